package services

import (
	"errors"
	"testing"

	"churchhub/models"
)

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	user, err := svc.Register(admin, models.RegisterUserRequest{
		PersonID: person.ID,
		Username: "ann.baker",
		Password: "sunday-school",
		Role:     models.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !user.HasPermission(models.PermManagePeople) {
		t.Fatalf("staff role missing derived permissions: %v", user.Permissions)
	}

	loggedIn, err := svc.Login("ann.baker", "sunday-school")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("login returned account %d, want %d", loggedIn.ID, user.ID)
	}

	if _, err := svc.Login("ann.baker", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for bad password, got %v", err)
	}
	if _, err := svc.Login("nobody", "sunday-school"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	first := createTestPerson(t, db, 1, "Ann", "Baker")
	second := createTestPerson(t, db, 1, "Bob", "Cole")

	if _, err := svc.Register(admin, models.RegisterUserRequest{
		PersonID: first.ID,
		Username: "taken",
		Password: "password1",
		Role:     models.UserRoleStaff,
	}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(admin, models.RegisterUserRequest{
		PersonID: second.ID,
		Username: "taken",
		Password: "password2",
		Role:     models.UserRoleStaff,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegisterRequiresManageUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db, nil)
	pastor := createTestActor(t, db, 1, models.UserRolePastor)
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	_, err := svc.Register(pastor, models.RegisterUserRequest{
		PersonID: person.ID,
		Username: "ann.baker",
		Password: "password1",
		Role:     models.UserRoleStaff,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSetRoleRederivesPermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db, nil)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)

	updated, err := svc.SetRole(admin, volunteer.ID, models.UserRolePastor)
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if !updated.HasPermission(models.PermManageGroups) {
		t.Fatalf("pastor missing manage_groups after role change: %v", updated.Permissions)
	}

	if _, err := svc.SetRole(admin, volunteer.ID, "superuser"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}
