package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"churchhub/models"
)

func createTestEvent(t *testing.T, svc *EventService, actor *models.ChurchUser, title string) *models.Event {
	t.Helper()

	event, err := svc.CreateEvent(actor, models.EventRequest{
		Title:    title,
		StartsAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating test event: %v", err)
	}
	return event
}

func TestCheckInGeneratesSecurityCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEventService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	event := createTestEvent(t, svc, admin, "Sunday Service")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	checkIn, err := svc.CheckIn(admin, event.ID, person.ID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if len(checkIn.SecurityCode) != 4 {
		t.Fatalf("expected 4-character code, got %q", checkIn.SecurityCode)
	}
	for _, ch := range checkIn.SecurityCode {
		if !strings.ContainsRune(codeAlphabet, ch) {
			t.Fatalf("code %q contains character outside alphabet", checkIn.SecurityCode)
		}
	}
}

func TestCheckInTwiceReturnsActiveRecord(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEventService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	event := createTestEvent(t, svc, admin, "Sunday Service")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	first, err := svc.CheckIn(admin, event.ID, person.ID)
	if err != nil {
		t.Fatalf("first check in: %v", err)
	}
	second, err := svc.CheckIn(admin, event.ID, person.ID)
	if err != nil {
		t.Fatalf("second check in: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing active check-in %d, got new record %d", first.ID, second.ID)
	}
}

func TestCheckOutIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEventService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	event := createTestEvent(t, svc, admin, "Sunday Service")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	checkIn, err := svc.CheckIn(admin, event.ID, person.ID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	out, err := svc.CheckOut(admin, checkIn.ID)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if out.CheckedOutAt == nil {
		t.Fatal("expected checked_out_at set")
	}
	firstOut := *out.CheckedOutAt

	again, err := svc.CheckOut(admin, checkIn.ID)
	if err != nil {
		t.Fatalf("repeat check out: %v", err)
	}
	if again.CheckedOutAt == nil || !again.CheckedOutAt.Equal(firstOut) {
		t.Fatalf("repeat check out changed timestamp: %v vs %v", again.CheckedOutAt, firstOut)
	}
}

func TestCheckOutThenCheckInAgain(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEventService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	event := createTestEvent(t, svc, admin, "Sunday Service")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	first, err := svc.CheckIn(admin, event.ID, person.ID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := svc.CheckOut(admin, first.ID); err != nil {
		t.Fatalf("check out: %v", err)
	}

	// After checkout the person can be checked in again as a new record.
	second, err := svc.CheckIn(admin, event.ID, person.ID)
	if err != nil {
		t.Fatalf("re-check in: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new check-in record after checkout")
	}
}

func TestDeleteEventCascadesCheckIns(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEventService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	event := createTestEvent(t, svc, admin, "Sunday Service")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	if _, err := svc.CheckIn(admin, event.ID, person.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if err := svc.DeleteEvent(admin, event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}

	var count int64
	db.Model(&models.EventCheckIn{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no check-ins after event delete, got %d", count)
	}
}

func TestCheckInUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEventService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	event := createTestEvent(t, svc, admin, "Sunday Service")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	// Volunteers may record attendance but not create events; an account
	// with no permissions at all is rejected here.
	noPerms := createTestActor(t, db, 1, models.UserRoleVolunteer)
	noPerms.Permissions = nil

	_, err := svc.CheckIn(noPerms, event.ID, person.ID)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
