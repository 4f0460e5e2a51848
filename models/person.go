package models

import (
	"time"
)

// Person represents a person in the church directory.
// A person may or may not have a staff account (ChurchUser).
type Person struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ChurchID    uint       `json:"church_id" gorm:"not null;index"`
	FirstName   string     `json:"first_name" gorm:"not null"`
	LastName    string     `json:"last_name" gorm:"not null"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	HouseholdID *uint      `json:"household_id,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayName returns the person's full name.
func (p *Person) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// Household groups people living at one address.
type Household struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ChurchID  uint      `json:"church_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersonRequest is the create/update request body for a person.
type PersonRequest struct {
	FirstName   string     `json:"first_name" binding:"required"`
	LastName    string     `json:"last_name" binding:"required"`
	Email       string     `json:"email" binding:"omitempty,email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	BirthDate   *time.Time `json:"birth_date"`
	HouseholdID *uint      `json:"household_id"`
}

// HouseholdRequest is the create/update request body for a household.
type HouseholdRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// HouseholdResponse is a household with its members.
type HouseholdResponse struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Members []Person `json:"members,omitempty"`
}
