package models

import (
	"time"
)

// Event is a church event people can be checked in to.
// Recurrence is stored as an opaque label; the backend does not expand it.
type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ChurchID    uint      `json:"church_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" gorm:"not null"`
	EndsAt      time.Time `json:"ends_at"`
	Recurrence  string    `json:"recurrence"`
	CreatedByID uint      `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventCheckIn records one person checked in to one event.
// SecurityCode is shown at drop-off and verified at pickup.
type EventCheckIn struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ChurchID     uint      `json:"church_id" gorm:"not null;index"`
	EventID      uint      `json:"event_id" gorm:"not null;index"`
	PersonID     uint      `json:"person_id" gorm:"not null;index"`
	SecurityCode string    `json:"security_code" gorm:"type:varchar(8)"`
	CheckedInBy  uint      `json:"checked_in_by"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

// EventRequest is the create/update request body for an event.
type EventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at"`
	Recurrence  string    `json:"recurrence"`
}

// CheckInRequest is the request body for checking a person in to an event.
type CheckInRequest struct {
	PersonID uint `json:"person_id" binding:"required"`
}

// CheckInResponse is a check-in joined with the person's display name.
type CheckInResponse struct {
	ID           uint       `json:"id"`
	EventID      uint       `json:"event_id"`
	PersonID     uint       `json:"person_id"`
	PersonName   string     `json:"person_name"`
	SecurityCode string     `json:"security_code"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

// CheckInEvent is the payload published to the check-in stream and
// broadcast on the live feed.
type CheckInEvent struct {
	ChurchID    uint      `json:"church_id"`
	EventID     uint      `json:"event_id"`
	EventTitle  string    `json:"event_title"`
	PersonID    uint      `json:"person_id"`
	PersonName  string    `json:"person_name"`
	Direction   string    `json:"direction"` // "in" or "out"
	CheckedInAt time.Time `json:"checked_in_at"`
}
