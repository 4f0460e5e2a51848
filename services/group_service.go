package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"churchhub/models"
)

// GroupService manages groups and subgroups, including the cascade
// cleanup of dependent records on deletion.
type GroupService struct {
	DB     *gorm.DB
	Access *AccessService
}

// NewGroupService creates a group service.
func NewGroupService(db *gorm.DB, access *AccessService) *GroupService {
	return &GroupService{DB: db, Access: access}
}

// CreateGroup creates a new group in the actor's church. Only admins and
// accounts with manage_groups may create groups.
func (s *GroupService) CreateGroup(actor *models.ChurchUser, req models.GroupRequest) (*models.Group, error) {
	if actor.Role != models.UserRoleAdmin && !actor.HasPermission(models.PermManageGroups) {
		return nil, fmt.Errorf("%w: create group", ErrUnauthorized)
	}

	// Group names are unique within a church.
	var existing models.Group
	err := s.DB.Where("church_id = ? AND name = ?", actor.ChurchID, req.Name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: group name %q already exists", ErrValidation, req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	group := &models.Group{
		ChurchID:     actor.ChurchID,
		Name:         req.Name,
		Description:  req.Description,
		MeetingDay:   req.MeetingDay,
		MeetingTime:  req.MeetingTime,
		MeetingPlace: req.MeetingPlace,
		LeaderIDs:    []uint{},
		CreatedByID:  actor.ID,
		IsActive:     true,
	}
	if err := s.DB.Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroupByID returns a group in the actor's church.
func (s *GroupService) GetGroupByID(actor *models.ChurchUser, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.DB.Where("church_id = ?", actor.ChurchID).First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: group %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &group, nil
}

// GetGroupResponse returns a group with its member count and, optionally,
// its subgroups.
func (s *GroupService) GetGroupResponse(actor *models.ChurchUser, id uint, includeSubgroups bool) (*models.GroupResponse, error) {
	group, err := s.GetGroupByID(actor, id)
	if err != nil {
		return nil, err
	}

	var memberCount int64
	if err := s.DB.Model(&models.GroupMember{}).Where("group_id = ?", id).Count(&memberCount).Error; err != nil {
		return nil, err
	}

	response := &models.GroupResponse{
		ID:           group.ID,
		Name:         group.Name,
		Description:  group.Description,
		MeetingDay:   group.MeetingDay,
		MeetingTime:  group.MeetingTime,
		MeetingPlace: group.MeetingPlace,
		LeaderIDs:    group.LeaderIDs,
		IsActive:     group.IsActive,
		CreatedAt:    group.CreatedAt,
		MemberCount:  int(memberCount),
	}

	if includeSubgroups {
		subgroups, err := s.GetSubgroups(actor, id)
		if err != nil {
			return nil, err
		}
		response.Subgroups = subgroups
	}
	return response, nil
}

// ListGroups returns all groups in the actor's church.
func (s *GroupService) ListGroups(actor *models.ChurchUser) ([]models.Group, error) {
	var groups []models.Group
	if err := s.DB.Where("church_id = ?", actor.ChurchID).Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// UpdateGroup updates a group's details. Leadership lists are not touched
// here; they belong to the leadership service.
func (s *GroupService) UpdateGroup(actor *models.ChurchUser, id uint, req models.GroupRequest) (*models.Group, error) {
	if err := s.Access.RequireGroupAccess(actor, id); err != nil {
		return nil, err
	}

	group, err := s.GetGroupByID(actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != group.Name {
		var existing models.Group
		err := s.DB.Where("church_id = ? AND name = ? AND id != ?", actor.ChurchID, req.Name, id).First(&existing).Error
		if err == nil {
			return nil, fmt.Errorf("%w: group name %q already exists", ErrValidation, req.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		group.Name = req.Name
	}
	group.Description = req.Description
	group.MeetingDay = req.MeetingDay
	group.MeetingTime = req.MeetingTime
	group.MeetingPlace = req.MeetingPlace
	group.UpdatedAt = time.Now()

	if err := s.DB.Save(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group and everything that depends on it:
// its subgroups, its membership records, and every leadership-list entry
// referencing the group or its subgroups. Dependents go first so no
// dangling reference is visible outside the transaction.
func (s *GroupService) DeleteGroup(actor *models.ChurchUser, id uint) error {
	if err := s.Access.RequireGroupAccess(actor, id); err != nil {
		return err
	}
	group, err := s.GetGroupByID(actor, id)
	if err != nil {
		return err
	}

	var subgroupIDs []uint
	if err := s.DB.Model(&models.Subgroup{}).
		Where("parent_group_id = ?", id).
		Pluck("id", &subgroupIDs).Error; err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_group_id = ?", id).Delete(&models.Subgroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if err := stripLeaderships(tx, actor.ChurchID, []uint{id}, subgroupIDs); err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, group.ID).Error
	})
}

// CreateSubgroup creates a subgroup under an existing group.
func (s *GroupService) CreateSubgroup(actor *models.ChurchUser, parentGroupID uint, req models.SubgroupRequest) (*models.Subgroup, error) {
	if err := s.Access.RequireGroupAccess(actor, parentGroupID); err != nil {
		return nil, err
	}

	// The parent must exist at creation time.
	if _, err := s.GetGroupByID(actor, parentGroupID); err != nil {
		return nil, err
	}

	subgroup := &models.Subgroup{
		ChurchID:      actor.ChurchID,
		ParentGroupID: parentGroupID,
		Name:          req.Name,
		Description:   req.Description,
		MeetingDay:    req.MeetingDay,
		MeetingTime:   req.MeetingTime,
		LeaderIDs:     []uint{},
		IsActive:      true,
	}
	if err := s.DB.Create(subgroup).Error; err != nil {
		return nil, err
	}
	return subgroup, nil
}

// GetSubgroupByID returns a subgroup in the actor's church.
func (s *GroupService) GetSubgroupByID(actor *models.ChurchUser, id uint) (*models.Subgroup, error) {
	var subgroup models.Subgroup
	if err := s.DB.Where("church_id = ?", actor.ChurchID).First(&subgroup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subgroup %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &subgroup, nil
}

// GetSubgroups lists the subgroups of a group.
func (s *GroupService) GetSubgroups(actor *models.ChurchUser, groupID uint) ([]models.Subgroup, error) {
	var subgroups []models.Subgroup
	if err := s.DB.Where("church_id = ? AND parent_group_id = ?", actor.ChurchID, groupID).
		Find(&subgroups).Error; err != nil {
		return nil, err
	}
	return subgroups, nil
}

// UpdateSubgroup updates a subgroup's details. The parent group cannot be
// changed after creation.
func (s *GroupService) UpdateSubgroup(actor *models.ChurchUser, id uint, req models.SubgroupRequest) (*models.Subgroup, error) {
	if err := s.Access.RequireSubgroupAccess(actor, id); err != nil {
		return nil, err
	}

	subgroup, err := s.GetSubgroupByID(actor, id)
	if err != nil {
		return nil, err
	}

	subgroup.Name = req.Name
	subgroup.Description = req.Description
	subgroup.MeetingDay = req.MeetingDay
	subgroup.MeetingTime = req.MeetingTime
	subgroup.UpdatedAt = time.Now()

	if err := s.DB.Save(subgroup).Error; err != nil {
		return nil, err
	}
	return subgroup, nil
}

// DeleteSubgroup removes a subgroup. Members assigned to it keep their
// membership in the parent group with the subgroup cleared; leadership
// references to the subgroup are stripped before the row is deleted.
func (s *GroupService) DeleteSubgroup(actor *models.ChurchUser, id uint) error {
	if err := s.Access.RequireSubgroupAccess(actor, id); err != nil {
		return err
	}
	subgroup, err := s.GetSubgroupByID(actor, id)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GroupMember{}).
			Where("subgroup_id = ?", id).
			Update("subgroup_id", nil).Error; err != nil {
			return err
		}
		if err := stripLeaderships(tx, actor.ChurchID, nil, []uint{id}); err != nil {
			return err
		}
		return tx.Delete(&models.Subgroup{}, subgroup.ID).Error
	})
}

// stripLeaderships removes the given group and subgroup ids from every
// staff account's leadership lists in the church. Only changed accounts
// are written back.
func stripLeaderships(tx *gorm.DB, churchID uint, groupIDs, subgroupIDs []uint) error {
	if len(groupIDs) == 0 && len(subgroupIDs) == 0 {
		return nil
	}

	var users []models.ChurchUser
	if err := tx.Where("church_id = ?", churchID).Find(&users).Error; err != nil {
		return err
	}

	for i := range users {
		user := &users[i]
		changed := false
		for _, id := range groupIDs {
			if containsID(user.GroupLeaderships, id) {
				user.GroupLeaderships = removeID(user.GroupLeaderships, id)
				changed = true
			}
		}
		for _, id := range subgroupIDs {
			if containsID(user.SubgroupLeaderships, id) {
				user.SubgroupLeaderships = removeID(user.SubgroupLeaderships, id)
				changed = true
			}
		}
		if changed {
			if err := tx.Save(user).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
