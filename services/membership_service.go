package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"churchhub/models"
)

// MembershipService manages group memberships, subgroup assignments and
// attendance records. All mutating operations are guarded by the access
// policy and scoped to the actor's church.
type MembershipService struct {
	DB     *gorm.DB
	Access *AccessService
}

// NewMembershipService creates a membership service.
func NewMembershipService(db *gorm.DB, access *AccessService) *MembershipService {
	return &MembershipService{DB: db, Access: access}
}

// AddMember creates a membership for a person in a group. The pre-check
// rejects duplicates early, but the unique index on (group_id, person_id)
// is the authoritative guard: a duplicate-key error from the store is
// reported as ErrDuplicateMembership as well.
func (s *MembershipService) AddMember(actor *models.ChurchUser, groupID, personID uint, subgroupID *uint, role models.MemberRole) (*models.GroupMember, error) {
	if err := s.Access.RequireGroupAccess(actor, groupID); err != nil {
		return nil, err
	}

	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidMemberRole(role) {
		return nil, fmt.Errorf("%w: unknown member role %q", ErrValidation, role)
	}

	var group models.Group
	if err := s.DB.Where("church_id = ?", actor.ChurchID).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
		}
		return nil, err
	}

	var person models.Person
	if err := s.DB.Where("church_id = ?", actor.ChurchID).First(&person, personID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: person %d", ErrNotFound, personID)
		}
		return nil, err
	}

	var count int64
	if err := s.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND person_id = ?", groupID, personID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateMembership
	}

	// A subgroup assignment at join time requires an existing membership in
	// the subgroup's parent group.
	if subgroupID != nil {
		subgroup, err := s.getSubgroup(actor.ChurchID, *subgroupID)
		if err != nil {
			return nil, err
		}
		var parentCount int64
		if err := s.DB.Model(&models.GroupMember{}).
			Where("group_id = ? AND person_id = ?", subgroup.ParentGroupID, personID).
			Count(&parentCount).Error; err != nil {
			return nil, err
		}
		if parentCount == 0 {
			return nil, fmt.Errorf("%w: person %d, subgroup %d", ErrInvalidSubgroupAssignment, personID, *subgroupID)
		}
	}

	member := &models.GroupMember{
		ChurchID:   actor.ChurchID,
		GroupID:    groupID,
		PersonID:   personID,
		SubgroupID: subgroupID,
		Role:       role,
		Attendance: []models.AttendanceEntry{},
		JoinedAt:   time.Now(),
	}

	if err := s.DB.Create(member).Error; err != nil {
		// Two concurrent adds race past the pre-check; the index decides.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateMembership
		}
		return nil, err
	}

	return member, nil
}

// AssignSubgroup sets or clears a member's subgroup. The subgroup must
// belong to the member's group; a nil subgroupID clears the assignment.
func (s *MembershipService) AssignSubgroup(actor *models.ChurchUser, memberID uint, subgroupID *uint) (*models.GroupMember, error) {
	member, err := s.getMember(actor.ChurchID, memberID)
	if err != nil {
		return nil, err
	}

	if subgroupID == nil {
		if err := s.Access.RequireGroupAccess(actor, member.GroupID); err != nil {
			return nil, err
		}
		member.SubgroupID = nil
	} else {
		if err := s.Access.RequireSubgroupAccess(actor, *subgroupID); err != nil {
			return nil, err
		}
		subgroup, err := s.getSubgroup(actor.ChurchID, *subgroupID)
		if err != nil {
			return nil, err
		}
		if subgroup.ParentGroupID != member.GroupID {
			return nil, fmt.Errorf("%w: subgroup %d belongs to group %d, member belongs to group %d",
				ErrSubgroupGroupMismatch, subgroup.ID, subgroup.ParentGroupID, member.GroupID)
		}
		member.SubgroupID = subgroupID
	}

	if err := s.DB.Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember deletes the membership record outright. Callers that want
// to keep the person in the parent group should clear the subgroup with
// AssignSubgroup instead.
func (s *MembershipService) RemoveMember(actor *models.ChurchUser, memberID uint) error {
	member, err := s.getMember(actor.ChurchID, memberID)
	if err != nil {
		return err
	}
	if err := s.Access.RequireGroupAccess(actor, member.GroupID); err != nil {
		return err
	}
	return s.DB.Delete(&models.GroupMember{}, member.ID).Error
}

// RecordAttendance appends one attendance entry to a membership.
// Same-date entries are not deduplicated; the log keeps what was recorded.
func (s *MembershipService) RecordAttendance(actor *models.ChurchUser, memberID uint, entry models.AttendanceEntry) (*models.GroupMember, error) {
	if !models.ValidAttendanceStatus(entry.Status) {
		return nil, fmt.Errorf("%w: unknown attendance status %q", ErrValidation, entry.Status)
	}

	member, err := s.getMember(actor.ChurchID, memberID)
	if err != nil {
		return nil, err
	}

	// Group access suffices; subgroup leaders may record for their own
	// subgroup's members.
	if !s.Access.CanAccessGroup(actor, member.GroupID) {
		if member.SubgroupID == nil {
			return nil, fmt.Errorf("%w: group %d", ErrUnauthorized, member.GroupID)
		}
		if err := s.Access.RequireSubgroupAccess(actor, *member.SubgroupID); err != nil {
			return nil, err
		}
	}

	member.Attendance = append(member.Attendance, entry)
	if err := s.DB.Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// AttendanceReport returns, per member of the group (or of one subgroup
// when subgroupID is given), the attendance entries whose date falls in
// [start, end] inclusive, joined with the person's display name.
func (s *MembershipService) AttendanceReport(actor *models.ChurchUser, groupID uint, subgroupID *uint, start, end time.Time) ([]models.MemberAttendanceReport, error) {
	if !s.Access.CanRead(actor, actor.ChurchID) {
		return nil, ErrUnauthorized
	}

	query := s.DB.Where("church_id = ? AND group_id = ?", actor.ChurchID, groupID)
	if subgroupID != nil {
		query = query.Where("subgroup_id = ?", *subgroupID)
	}

	var members []models.GroupMember
	if err := query.Find(&members).Error; err != nil {
		return nil, err
	}

	names, err := s.personNames(actor.ChurchID, members)
	if err != nil {
		return nil, err
	}

	reports := make([]models.MemberAttendanceReport, 0, len(members))
	for _, member := range members {
		entries := make([]models.AttendanceEntry, 0)
		for _, entry := range member.Attendance {
			if !entry.Date.Before(start) && !entry.Date.After(end) {
				entries = append(entries, entry)
			}
		}
		reports = append(reports, models.MemberAttendanceReport{
			MemberID:   member.ID,
			PersonID:   member.PersonID,
			PersonName: names[member.PersonID],
			Entries:    entries,
		})
	}

	return reports, nil
}

// GetMembers lists the memberships of a group joined with person names.
func (s *MembershipService) GetMembers(actor *models.ChurchUser, groupID uint) ([]models.MemberResponse, error) {
	var members []models.GroupMember
	if err := s.DB.Where("church_id = ? AND group_id = ?", actor.ChurchID, groupID).
		Find(&members).Error; err != nil {
		return nil, err
	}

	names, err := s.personNames(actor.ChurchID, members)
	if err != nil {
		return nil, err
	}

	responses := make([]models.MemberResponse, len(members))
	for i, member := range members {
		responses[i] = models.MemberResponse{
			ID:         member.ID,
			PersonID:   member.PersonID,
			PersonName: names[member.PersonID],
			GroupID:    member.GroupID,
			SubgroupID: member.SubgroupID,
			Role:       member.Role,
			JoinedAt:   member.JoinedAt,
		}
	}
	return responses, nil
}

// GetMember returns one membership in the actor's church.
func (s *MembershipService) GetMember(actor *models.ChurchUser, memberID uint) (*models.GroupMember, error) {
	return s.getMember(actor.ChurchID, memberID)
}

func (s *MembershipService) getMember(churchID, memberID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := s.DB.Where("church_id = ?", churchID).First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
		}
		return nil, err
	}
	return &member, nil
}

func (s *MembershipService) getSubgroup(churchID, subgroupID uint) (*models.Subgroup, error) {
	var subgroup models.Subgroup
	if err := s.DB.Where("church_id = ?", churchID).First(&subgroup, subgroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subgroup %d", ErrNotFound, subgroupID)
		}
		return nil, err
	}
	return &subgroup, nil
}

// personNames resolves the display names of the people behind a slice of
// memberships in one query.
func (s *MembershipService) personNames(churchID uint, members []models.GroupMember) (map[uint]string, error) {
	ids := make([]uint, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.PersonID)
	}
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var people []models.Person
	if err := s.DB.Where("church_id = ? AND id IN ?", churchID, ids).Find(&people).Error; err != nil {
		return nil, err
	}
	for i := range people {
		names[people[i].ID] = people[i].DisplayName()
	}
	return names, nil
}
