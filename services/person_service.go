package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"churchhub/config"
	"churchhub/models"
)

// PersonService manages the people directory and households. The redis
// client is optional; without it person lookups skip the cache.
type PersonService struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewPersonService creates a person service.
func NewPersonService(db *gorm.DB, rdb *redis.Client) *PersonService {
	return &PersonService{db: db, rdb: rdb}
}

// CreatePerson adds a person to the directory.
func (s *PersonService) CreatePerson(actor *models.ChurchUser, req models.PersonRequest) (*models.Person, error) {
	if !actor.HasPermission(models.PermManagePeople) {
		return nil, fmt.Errorf("%w: create person", ErrUnauthorized)
	}

	if req.HouseholdID != nil {
		if _, err := s.GetHouseholdByID(actor, *req.HouseholdID); err != nil {
			return nil, err
		}
	}

	person := &models.Person{
		ChurchID:    actor.ChurchID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		BirthDate:   req.BirthDate,
		HouseholdID: req.HouseholdID,
	}
	if err := s.db.Create(person).Error; err != nil {
		return nil, err
	}
	return person, nil
}

// GetPersonByID returns a person, via the cache when available.
func (s *PersonService) GetPersonByID(actor *models.ChurchUser, id uint) (*models.Person, error) {
	var person models.Person

	ctx := context.Background()
	key := fmt.Sprintf("person:%d", id)

	if s.rdb != nil {
		personJSON, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			if err := json.Unmarshal([]byte(personJSON), &person); err == nil && person.ChurchID == actor.ChurchID {
				return &person, nil
			}
		}
	}

	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&person, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: person %d", ErrNotFound, id)
		}
		return nil, err
	}

	if s.rdb != nil {
		personBytes, _ := json.Marshal(person)
		s.rdb.Set(ctx, key, personBytes, time.Duration(config.AppConfig.CacheExpiration)*time.Second)
	}
	return &person, nil
}

// ListPeople returns people in the church, optionally filtered by a
// case-insensitive name/email search, with limit/offset pagination.
func (s *PersonService) ListPeople(actor *models.ChurchUser, search string, limit, offset int) ([]models.Person, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := s.db.Where("church_id = ?", actor.ChurchID)
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}

	var people []models.Person
	if err := query.Order("last_name, first_name").Limit(limit).Offset(offset).Find(&people).Error; err != nil {
		return nil, err
	}
	return people, nil
}

// UpdatePerson updates a person's directory entry.
func (s *PersonService) UpdatePerson(actor *models.ChurchUser, id uint, req models.PersonRequest) (*models.Person, error) {
	if !actor.HasPermission(models.PermManagePeople) {
		return nil, fmt.Errorf("%w: update person", ErrUnauthorized)
	}

	person, err := s.GetPersonByID(actor, id)
	if err != nil {
		return nil, err
	}
	if req.HouseholdID != nil {
		if _, err := s.GetHouseholdByID(actor, *req.HouseholdID); err != nil {
			return nil, err
		}
	}

	person.FirstName = req.FirstName
	person.LastName = req.LastName
	person.Email = req.Email
	person.Phone = req.Phone
	person.Address = req.Address
	person.BirthDate = req.BirthDate
	person.HouseholdID = req.HouseholdID

	if err := s.db.Save(person).Error; err != nil {
		return nil, err
	}
	s.invalidatePerson(id)
	return person, nil
}

// DeletePerson removes a person and their group memberships.
func (s *PersonService) DeletePerson(actor *models.ChurchUser, id uint) error {
	if !actor.HasPermission(models.PermManagePeople) {
		return fmt.Errorf("%w: delete person", ErrUnauthorized)
	}

	person, err := s.GetPersonByID(actor, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Person{}, person.ID).Error
	})
	if err != nil {
		return err
	}
	s.invalidatePerson(id)
	return nil
}

// CreateHousehold creates a household.
func (s *PersonService) CreateHousehold(actor *models.ChurchUser, req models.HouseholdRequest) (*models.Household, error) {
	if !actor.HasPermission(models.PermManagePeople) {
		return nil, fmt.Errorf("%w: create household", ErrUnauthorized)
	}

	household := &models.Household{
		ChurchID: actor.ChurchID,
		Name:     req.Name,
		Address:  req.Address,
	}
	if err := s.db.Create(household).Error; err != nil {
		return nil, err
	}
	return household, nil
}

// GetHouseholdByID returns a household in the actor's church.
func (s *PersonService) GetHouseholdByID(actor *models.ChurchUser, id uint) (*models.Household, error) {
	var household models.Household
	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&household, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: household %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &household, nil
}

// GetHouseholdResponse returns a household with its members.
func (s *PersonService) GetHouseholdResponse(actor *models.ChurchUser, id uint) (*models.HouseholdResponse, error) {
	household, err := s.GetHouseholdByID(actor, id)
	if err != nil {
		return nil, err
	}

	var members []models.Person
	if err := s.db.Where("church_id = ? AND household_id = ?", actor.ChurchID, id).
		Order("last_name, first_name").Find(&members).Error; err != nil {
		return nil, err
	}

	return &models.HouseholdResponse{
		ID:      household.ID,
		Name:    household.Name,
		Address: household.Address,
		Members: members,
	}, nil
}

// ListHouseholds returns all households in the actor's church.
func (s *PersonService) ListHouseholds(actor *models.ChurchUser) ([]models.Household, error) {
	var households []models.Household
	if err := s.db.Where("church_id = ?", actor.ChurchID).Order("name").Find(&households).Error; err != nil {
		return nil, err
	}
	return households, nil
}

// DeleteHousehold removes a household; its members stay in the directory
// with the household reference cleared.
func (s *PersonService) DeleteHousehold(actor *models.ChurchUser, id uint) error {
	if !actor.HasPermission(models.PermManagePeople) {
		return fmt.Errorf("%w: delete household", ErrUnauthorized)
	}

	household, err := s.GetHouseholdByID(actor, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Person{}).
			Where("household_id = ?", id).
			Update("household_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Household{}, household.ID).Error
	})
}

func (s *PersonService) invalidatePerson(id uint) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(context.Background(), fmt.Sprintf("person:%d", id))
}
