package services

import (
	"errors"
	"testing"

	"churchhub/models"
)

func TestCanAccessGroupByRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	group := createTestGroup(t, db, 1, "Worship")

	tests := []struct {
		role string
		want bool
	}{
		{models.UserRoleAdmin, true},
		{models.UserRolePastor, true}, // pastors carry manage_groups
		{models.UserRoleStaff, false},
		{models.UserRoleVolunteer, false},
	}

	for _, tt := range tests {
		actor := createTestActor(t, db, 1, tt.role)
		if got := svc.CanAccessGroup(actor, group.ID); got != tt.want {
			t.Errorf("role %s: CanAccessGroup = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestCanAccessGroupAsLeader(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	group := createTestGroup(t, db, 1, "Worship")
	other := createTestGroup(t, db, 1, "Youth")

	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)
	volunteer.GroupLeaderships = []uint{group.ID}

	if !svc.CanAccessGroup(volunteer, group.ID) {
		t.Fatal("leader denied access to own group")
	}
	if svc.CanAccessGroup(volunteer, other.ID) {
		t.Fatal("leader granted access to unrelated group")
	}
}

func TestCanAccessGroupNilActor(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)

	if svc.CanAccessGroup(nil, 1) {
		t.Fatal("nil actor granted access")
	}
}

func TestCanAccessSubgroupAsParentLeader(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")

	// Leading the parent group grants access to its subgroups.
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)
	volunteer.GroupLeaderships = []uint{group.ID}

	ok, err := svc.CanAccessSubgroup(volunteer, subgroup.ID)
	if err != nil {
		t.Fatalf("CanAccessSubgroup: %v", err)
	}
	if !ok {
		t.Fatal("parent group leader denied subgroup access")
	}
}

func TestCanAccessSubgroupAsSubgroupLeader(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")

	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)
	volunteer.SubgroupLeaderships = []uint{subgroup.ID}

	ok, err := svc.CanAccessSubgroup(volunteer, subgroup.ID)
	if err != nil {
		t.Fatalf("CanAccessSubgroup: %v", err)
	}
	if !ok {
		t.Fatal("subgroup leader denied access to own subgroup")
	}
}

func TestCanAccessSubgroupMissing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)

	_, err := svc.CanAccessSubgroup(volunteer, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequireGroupAccessError(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	group := createTestGroup(t, db, 1, "Worship")
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)

	err := svc.RequireGroupAccess(volunteer, group.ID)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCanRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccessService(db)
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)

	if !svc.CanRead(volunteer, 1) {
		t.Fatal("same-church read denied")
	}
	if svc.CanRead(volunteer, 2) {
		t.Fatal("cross-church read allowed")
	}
	if svc.CanRead(nil, 1) {
		t.Fatal("nil actor read allowed")
	}
}
