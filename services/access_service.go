package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"churchhub/models"
)

// AccessService decides whether a staff account may mutate a group or
// subgroup. Decisions are pure over the actor snapshot; subgroup checks
// need one lookup to resolve the parent group.
type AccessService struct {
	DB *gorm.DB
}

// NewAccessService creates an access policy evaluator.
func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// CanAccessGroup reports whether the actor may mutate the group:
// admins, accounts with manage_groups, and leaders of the group itself.
func (s *AccessService) CanAccessGroup(actor *models.ChurchUser, groupID uint) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.UserRoleAdmin || actor.HasPermission(models.PermManageGroups) {
		return true
	}
	return actor.LeadsGroup(groupID)
}

// CanAccessSubgroup reports whether the actor may mutate the subgroup:
// anyone who may mutate the parent group, plus leaders of the subgroup.
func (s *AccessService) CanAccessSubgroup(actor *models.ChurchUser, subgroupID uint) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if actor.Role == models.UserRoleAdmin || actor.HasPermission(models.PermManageGroups) {
		return true, nil
	}
	if actor.LeadsSubgroup(subgroupID) {
		return true, nil
	}

	// Resolve the parent group for the leader-of-parent case.
	var subgroup models.Subgroup
	if err := s.DB.First(&subgroup, subgroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: subgroup %d", ErrNotFound, subgroupID)
		}
		return false, err
	}
	return actor.LeadsGroup(subgroup.ParentGroupID), nil
}

// RequireGroupAccess returns ErrUnauthorized unless the actor may mutate
// the group.
func (s *AccessService) RequireGroupAccess(actor *models.ChurchUser, groupID uint) error {
	if !s.CanAccessGroup(actor, groupID) {
		return fmt.Errorf("%w: group %d", ErrUnauthorized, groupID)
	}
	return nil
}

// RequireSubgroupAccess returns ErrUnauthorized unless the actor may
// mutate the subgroup.
func (s *AccessService) RequireSubgroupAccess(actor *models.ChurchUser, subgroupID uint) error {
	ok, err := s.CanAccessSubgroup(actor, subgroupID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: subgroup %d", ErrUnauthorized, subgroupID)
	}
	return nil
}

// CanRead reports whether the actor may read records in the church tenant.
// Reads only require an authenticated account in the same church.
func (s *AccessService) CanRead(actor *models.ChurchUser, churchID uint) bool {
	return actor != nil && actor.ChurchID == churchID
}
