package services

import (
	"errors"
	"testing"
	"time"

	"churchhub/models"
)

func TestAddMemberDuplicate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	if _, err := svc.AddMember(admin, group.ID, person.ID, nil, ""); err != nil {
		t.Fatalf("first add: %v", err)
	}

	_, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if !errors.Is(err, ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}
}

func TestAddMemberDefaultsRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if member.Role != models.RoleMember {
		t.Fatalf("expected default role %q, got %q", models.RoleMember, member.Role)
	}
}

func TestAddMemberUnknownRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	_, err := svc.AddMember(admin, group.ID, person.ID, nil, "overlord")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAddMemberWithSubgroupRequiresParentMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	// Joining directly into a subgroup needs an existing membership in the
	// parent group, which this person does not have.
	_, err := svc.AddMember(admin, group.ID, person.ID, &subgroup.ID, "")
	if !errors.Is(err, ErrInvalidSubgroupAssignment) {
		t.Fatalf("expected ErrInvalidSubgroupAssignment, got %v", err)
	}
}

func TestAddMemberUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	volunteer := createTestActor(t, db, 1, models.UserRoleVolunteer)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	_, err := svc.AddMember(volunteer, group.ID, person.ID, nil, "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAssignSubgroupMismatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	groupA := createTestGroup(t, db, 1, "Group A")
	groupB := createTestGroup(t, db, 1, "Group B")
	otherSubgroup := createTestSubgroup(t, db, 1, groupB.ID, "B Team")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, groupA.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.AssignSubgroup(admin, member.ID, &otherSubgroup.ID)
	if !errors.Is(err, ErrSubgroupGroupMismatch) {
		t.Fatalf("expected ErrSubgroupGroupMismatch, got %v", err)
	}
}

func TestAssignSubgroupAndClear(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	member, err = svc.AssignSubgroup(admin, member.ID, &subgroup.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if member.SubgroupID == nil || *member.SubgroupID != subgroup.ID {
		t.Fatalf("expected subgroup %d assigned, got %v", subgroup.ID, member.SubgroupID)
	}

	member, err = svc.AssignSubgroup(admin, member.ID, nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if member.SubgroupID != nil {
		t.Fatalf("expected cleared subgroup, got %v", *member.SubgroupID)
	}
}

func TestRemoveMember(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.RemoveMember(admin, member.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := svc.GetMember(admin, member.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestRecordAttendanceKeepsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	sunday := date(2026, time.March, 1)
	entries := []models.AttendanceEntry{
		{Date: sunday, Status: models.AttendancePresent},
		{Date: sunday, Status: models.AttendanceAbsent, Notes: "corrected"},
	}
	for _, entry := range entries {
		if _, err := svc.RecordAttendance(admin, member.ID, entry); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	member, err = svc.GetMember(admin, member.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(member.Attendance) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(member.Attendance))
	}
	// Insertion order is preserved.
	if member.Attendance[0].Status != models.AttendancePresent ||
		member.Attendance[1].Status != models.AttendanceAbsent {
		t.Fatalf("entries out of order: %+v", member.Attendance)
	}
}

func TestRecordAttendanceUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.RecordAttendance(admin, member.ID, models.AttendanceEntry{
		Date:   date(2026, time.March, 1),
		Status: "maybe",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAttendanceReportInclusiveRange(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Small Group")
	person := createTestPerson(t, db, 1, "Ann", "Baker")

	member, err := svc.AddMember(admin, group.ID, person.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	dates := []time.Time{
		date(2026, time.February, 28), // before range
		date(2026, time.March, 1),     // range start
		date(2026, time.March, 15),    // inside
		date(2026, time.March, 31),    // range end
		date(2026, time.April, 1),     // after range
	}
	for _, d := range dates {
		if _, err := svc.RecordAttendance(admin, member.ID, models.AttendanceEntry{
			Date:   d,
			Status: models.AttendancePresent,
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	reports, err := svc.AttendanceReport(admin, group.ID, nil,
		date(2026, time.March, 1), date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 member report, got %d", len(reports))
	}
	if reports[0].PersonName != "Ann Baker" {
		t.Fatalf("expected person name joined, got %q", reports[0].PersonName)
	}
	// Both range boundaries count.
	if len(reports[0].Entries) != 3 {
		t.Fatalf("expected 3 entries in range, got %d", len(reports[0].Entries))
	}
}

func TestAttendanceReportFilterBySubgroup(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, NewAccessService(db))
	admin := createTestActor(t, db, 1, models.UserRoleAdmin)
	group := createTestGroup(t, db, 1, "Worship")
	subgroup := createTestSubgroup(t, db, 1, group.ID, "Vocals")
	inSub := createTestPerson(t, db, 1, "Ann", "Baker")
	outSub := createTestPerson(t, db, 1, "Bob", "Cole")

	memberIn, err := svc.AddMember(admin, group.ID, inSub.ID, nil, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddMember(admin, group.ID, outSub.ID, nil, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AssignSubgroup(admin, memberIn.ID, &subgroup.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	reports, err := svc.AttendanceReport(admin, group.ID, &subgroup.ID,
		date(2026, time.January, 1), date(2026, time.December, 31))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(reports) != 1 || reports[0].PersonID != inSub.ID {
		t.Fatalf("expected only the subgroup member, got %+v", reports)
	}
}
