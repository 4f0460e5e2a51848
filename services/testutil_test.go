package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"churchhub/models"
)

// setupTestDB opens an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	// One connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Person{},
		&models.Household{},
		&models.Group{},
		&models.Subgroup{},
		&models.GroupMember{},
		&models.ChurchUser{},
		&models.Event{},
		&models.EventCheckIn{},
	)
	if err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}
	return db
}

// createTestPerson seeds a person in the given church.
func createTestPerson(t *testing.T, db *gorm.DB, churchID uint, firstName, lastName string) *models.Person {
	t.Helper()

	person := &models.Person{
		ChurchID:  churchID,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := db.Create(person).Error; err != nil {
		t.Fatalf("creating test person: %v", err)
	}
	return person
}

// createTestActor seeds a staff account with the given role, backed by a
// fresh person.
func createTestActor(t *testing.T, db *gorm.DB, churchID uint, role string) *models.ChurchUser {
	t.Helper()

	person := createTestPerson(t, db, churchID, "Test", role)
	user := &models.ChurchUser{
		ChurchID:            churchID,
		PersonID:            person.ID,
		Username:            fmt.Sprintf("%s-%d", role, person.ID),
		Password:            "hashed",
		Role:                role,
		GroupLeaderships:    []uint{},
		SubgroupLeaderships: []uint{},
		IsActive:            true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("creating test actor: %v", err)
	}
	return user
}

// createTestGroup seeds a group.
func createTestGroup(t *testing.T, db *gorm.DB, churchID uint, name string) *models.Group {
	t.Helper()

	group := &models.Group{
		ChurchID:  churchID,
		Name:      name,
		LeaderIDs: []uint{},
		IsActive:  true,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("creating test group: %v", err)
	}
	return group
}

// createTestSubgroup seeds a subgroup under a group.
func createTestSubgroup(t *testing.T, db *gorm.DB, churchID, parentGroupID uint, name string) *models.Subgroup {
	t.Helper()

	subgroup := &models.Subgroup{
		ChurchID:      churchID,
		ParentGroupID: parentGroupID,
		Name:          name,
		LeaderIDs:     []uint{},
		IsActive:      true,
	}
	if err := db.Create(subgroup).Error; err != nil {
		t.Fatalf("creating test subgroup: %v", err)
	}
	return subgroup
}

// date builds a UTC midnight timestamp for attendance tests.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
