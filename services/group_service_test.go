package services

import (
	"errors"
	"testing"

	"churchhub/models"
)

func TestCreateGroupDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGroupService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)

	if _, err := svc.CreateGroup(admin, models.GroupRequest{Name: "Youth"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateGroup(admin, models.GroupRequest{Name: "Youth"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate name, got %v", err)
	}
}

func TestCreateGroupUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGroupService(db, NewAccessService(db))
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)

	_, err := svc.CreateGroup(volunteer, models.GroupRequest{Name: "Youth"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateSubgroupRequiresParent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGroupService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)

	_, err := svc.CreateSubgroup(admin, 999, models.SubgroupRequest{Name: "Vocals"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestDeleteGroupCascade(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessService(db)
	groups := NewGroupService(db, access)
	memberships := NewMembershipService(db, access)
	leadership := NewLeadershipService(db, access)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	leaderAccount := createTestActor(t, db, 1, models.UserRolePastor)

	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	if _, err := memberships.AddMember(admin, group.ID, person.ID, nil, ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := leadership.AssignGroupLeadership(admin, leaderAccount.ID, group.ID); err != nil {
		t.Fatalf("assign group leadership: %v", err)
	}
	if err := leadership.AssignSubgroupLeadership(admin, leaderAccount.ID, subgroup.ID); err != nil {
		t.Fatalf("assign subgroup leadership: %v", err)
	}

	if err := groups.DeleteGroup(admin, group.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	var subgroupCount, memberCount int64
	db.Model(&models.Subgroup{}).Where("parent_group_id = ?", group.ID).Count(&subgroupCount)
	db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&memberCount)
	if subgroupCount != 0 {
		t.Fatalf("expected no subgroups after cascade, got %d", subgroupCount)
	}
	if memberCount != 0 {
		t.Fatalf("expected no members after cascade, got %d", memberCount)
	}

	// Leadership references to the group and its subgroups are stripped.
	var reloaded models.ChurchUser
	if err := db.First(&reloaded, leaderAccount.ID).Error; err != nil {
		t.Fatalf("reloading account: %v", err)
	}
	if reloaded.LeadsGroup(group.ID) {
		t.Fatalf("account still references deleted group %d", group.ID)
	}
	if reloaded.LeadsSubgroup(subgroup.ID) {
		t.Fatalf("account still references deleted subgroup %d", subgroup.ID)
	}
}

func TestDeleteSubgroupKeepsParentMembership(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessService(db)
	groups := NewGroupService(db, access)
	memberships := NewMembershipService(db, access)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)

	group := createTestGroup(t, db, 1, "Worship Team")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := memberships.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := memberships.AssignSubgroup(admin, member.ID, &subgroup.ID); err != nil {
		t.Fatalf("assign subgroup: %v", err)
	}

	if err := groups.DeleteSubgroup(admin, subgroup.ID); err != nil {
		t.Fatalf("delete subgroup: %v", err)
	}

	// The membership survives with the subgroup assignment cleared.
	member, err = memberships.GetMember(admin, member.ID)
	if err != nil {
		t.Fatalf("membership gone after subgroup delete: %v", err)
	}
	if member.SubgroupID != nil {
		t.Fatalf("expected cleared subgroup, got %v", *member.SubgroupID)
	}
	if member.GroupID != group.ID {
		t.Fatalf("expected membership to stay in group %d, got %d", group.ID, member.GroupID)
	}
}

func TestDeleteSubgroupStripsLeadership(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessService(db)
	groups := NewGroupService(db, access)
	leadership := NewLeadershipService(db, access)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	leaderAccount := createTestActor(t, db, 1, models.UserRolePastor)

	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")

	if err := leadership.AssignSubgroupLeadership(admin, leaderAccount.ID, subgroup.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := groups.DeleteSubgroup(admin, subgroup.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var reloaded models.ChurchUser
	if err := db.First(&reloaded, leaderAccount.ID).Error; err != nil {
		t.Fatalf("reloading account: %v", err)
	}
	if reloaded.LeadsSubgroup(subgroup.ID) {
		t.Fatalf("account still references deleted subgroup %d", subgroup.ID)
	}
}

func TestGroupResponseMemberCount(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessService(db)
	groups := NewGroupService(db, access)
	memberships := NewMembershipService(db, access)
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)

	group := createTestGroup(t, db, 1, "Small Group")
	createTestSubgroup(t, db, 1, group.ID, "North Side")
	for _, name := range []string{"Ann", "Bob", "Cara"} {
		person := createTestPerson(t, db, 1, name, "Member")
		if _, err := memberships.AddMember(admin, group.ID, person.ID, nil, ""); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	response, err := groups.GetGroupResponse(admin, group.ID, true)
	if err != nil {
		t.Fatalf("response: %v", err)
	}
	if response.MemberCount != 3 {
		t.Fatalf("expected 3 members, got %d", response.MemberCount)
	}
	if len(response.Subgroups) != 1 {
		t.Fatalf("expected 1 subgroup, got %d", len(response.Subgroups))
	}
}

func TestGroupTenantScope(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGroupService(db, NewAccessService(db))
	adminChurch2 := createTestActor(t, db, 2, models.UserRoleAdmin)

	group := createTestGroup(t, db, 1, "Youth")

	_, err := svc.GetGroupByID(adminChurch2, group.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across churches, got %v", err)
	}
}
