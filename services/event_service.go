package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"churchhub/models"
)

// codeAlphabet excludes ambiguous characters (0/O, 1/I).
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// EventService manages events and event check-ins, pushing every check-in
// to the live feed.
type EventService struct {
	db  *gorm.DB
	hub *FeedHub
}

// NewEventService creates an event service. hub may be nil in tests.
func NewEventService(db *gorm.DB, hub *FeedHub) *EventService {
	return &EventService{db: db, hub: hub}
}

// CreateEvent creates an event in the actor's church.
func (s *EventService) CreateEvent(actor *models.ChurchUser, req models.EventRequest) (*models.Event, error) {
	if !actor.HasPermission(models.PermManageEvents) {
		return nil, fmt.Errorf("%w: create event", ErrUnauthorized)
	}

	event := &models.Event{
		ChurchID:    actor.ChurchID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Recurrence:  req.Recurrence,
		CreatedByID: actor.ID,
	}
	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// GetEventByID returns an event in the actor's church.
func (s *EventService) GetEventByID(actor *models.ChurchUser, id uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: event %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &event, nil
}

// ListEvents returns the church's events ordered by start time.
func (s *EventService) ListEvents(actor *models.ChurchUser) ([]models.Event, error) {
	var events []models.Event
	if err := s.db.Where("church_id = ?", actor.ChurchID).Order("starts_at").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent updates an event's details.
func (s *EventService) UpdateEvent(actor *models.ChurchUser, id uint, req models.EventRequest) (*models.Event, error) {
	if !actor.HasPermission(models.PermManageEvents) {
		return nil, fmt.Errorf("%w: update event", ErrUnauthorized)
	}

	event, err := s.GetEventByID(actor, id)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.Recurrence = req.Recurrence
	event.UpdatedAt = time.Now()

	if err := s.db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes an event and its check-in records.
func (s *EventService) DeleteEvent(actor *models.ChurchUser, id uint) error {
	if !actor.HasPermission(models.PermManageEvents) {
		return fmt.Errorf("%w: delete event", ErrUnauthorized)
	}

	event, err := s.GetEventByID(actor, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventCheckIn{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, event.ID).Error
	})
}

// CheckIn records a person into an event, generating a pickup security
// code, and pushes the check-in to the live feed. Checking in an already
// checked-in person returns the existing active record.
func (s *EventService) CheckIn(actor *models.ChurchUser, eventID, personID uint) (*models.EventCheckIn, error) {
	if !actor.HasPermission(models.PermRecordAttendance) {
		return nil, fmt.Errorf("%w: record check-in", ErrUnauthorized)
	}

	event, err := s.GetEventByID(actor, eventID)
	if err != nil {
		return nil, err
	}

	var person models.Person
	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&person, personID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: person %d", ErrNotFound, personID)
		}
		return nil, err
	}

	var existing models.EventCheckIn
	err = s.db.Where("event_id = ? AND person_id = ? AND checked_out_at IS NULL", eventID, personID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	checkIn := &models.EventCheckIn{
		ChurchID:     actor.ChurchID,
		EventID:      eventID,
		PersonID:     personID,
		SecurityCode: securityCode(4),
		CheckedInBy:  actor.ID,
		CheckedInAt:  time.Now(),
	}
	if err := s.db.Create(checkIn).Error; err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Broadcast(models.CheckInEvent{
			ChurchID:    actor.ChurchID,
			EventID:     event.ID,
			EventTitle:  event.Title,
			PersonID:    person.ID,
			PersonName:  person.DisplayName(),
			Direction:   "in",
			CheckedInAt: checkIn.CheckedInAt,
		})
	}
	return checkIn, nil
}

// CheckOut closes an active check-in. Checking out twice has no
// additional effect.
func (s *EventService) CheckOut(actor *models.ChurchUser, checkInID uint) (*models.EventCheckIn, error) {
	if !actor.HasPermission(models.PermRecordAttendance) {
		return nil, fmt.Errorf("%w: record check-out", ErrUnauthorized)
	}

	var checkIn models.EventCheckIn
	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&checkIn, checkInID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: check-in %d", ErrNotFound, checkInID)
		}
		return nil, err
	}
	if checkIn.CheckedOutAt != nil {
		return &checkIn, nil
	}

	now := time.Now()
	checkIn.CheckedOutAt = &now
	if err := s.db.Save(&checkIn).Error; err != nil {
		return nil, err
	}

	if s.hub != nil {
		event, err := s.GetEventByID(actor, checkIn.EventID)
		if err != nil {
			return &checkIn, nil
		}
		var person models.Person
		if err := s.db.First(&person, checkIn.PersonID).Error; err != nil {
			return &checkIn, nil
		}
		s.hub.Broadcast(models.CheckInEvent{
			ChurchID:    actor.ChurchID,
			EventID:     event.ID,
			EventTitle:  event.Title,
			PersonID:    person.ID,
			PersonName:  person.DisplayName(),
			Direction:   "out",
			CheckedInAt: checkIn.CheckedInAt,
		})
	}
	return &checkIn, nil
}

// ListCheckIns returns an event's check-ins joined with person names.
func (s *EventService) ListCheckIns(actor *models.ChurchUser, eventID uint) ([]models.CheckInResponse, error) {
	if _, err := s.GetEventByID(actor, eventID); err != nil {
		return nil, err
	}

	var checkIns []models.EventCheckIn
	if err := s.db.Where("church_id = ? AND event_id = ?", actor.ChurchID, eventID).
		Order("checked_in_at").Find(&checkIns).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(checkIns))
	for _, c := range checkIns {
		ids = append(ids, c.PersonID)
	}
	names := make(map[uint]string, len(ids))
	if len(ids) > 0 {
		var people []models.Person
		if err := s.db.Where("id IN ?", ids).Find(&people).Error; err != nil {
			return nil, err
		}
		for i := range people {
			names[people[i].ID] = people[i].DisplayName()
		}
	}

	responses := make([]models.CheckInResponse, len(checkIns))
	for i, c := range checkIns {
		responses[i] = models.CheckInResponse{
			ID:           c.ID,
			EventID:      c.EventID,
			PersonID:     c.PersonID,
			PersonName:   names[c.PersonID],
			SecurityCode: c.SecurityCode,
			CheckedInAt:  c.CheckedInAt,
			CheckedOutAt: c.CheckedOutAt,
		}
	}
	return responses, nil
}

// securityCode generates a short pickup code.
func securityCode(n int) string {
	code := make([]byte, n)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}
