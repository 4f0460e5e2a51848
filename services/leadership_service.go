package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"churchhub/models"
)

// LeadershipService keeps Group.LeaderIDs / Subgroup.LeaderIDs and the
// mirrored ChurchUser leadership lists consistent. It is the only writer
// of either side of the mirror. Both writes of one assignment run in a
// single transaction, and every operation is an idempotent no-op when the
// state is already applied, so a retry after a partial failure converges.
type LeadershipService struct {
	DB     *gorm.DB
	Access *AccessService
}

// NewLeadershipService creates a leadership sync service.
func NewLeadershipService(db *gorm.DB, access *AccessService) *LeadershipService {
	return &LeadershipService{DB: db, Access: access}
}

// AssignGroupLeadership makes the account a leader of the group: the
// account's person is added to Group.LeaderIDs and the group id to the
// account's GroupLeaderships. Assigning twice has no additional effect.
func (s *LeadershipService) AssignGroupLeadership(actor *models.ChurchUser, churchUserID, groupID uint) error {
	if err := s.Access.RequireGroupAccess(actor, groupID); err != nil {
		return err
	}

	user, err := s.getUser(actor.ChurchID, churchUserID)
	if err != nil {
		return err
	}
	var group models.Group
	if err := s.DB.Where("church_id = ?", actor.ChurchID).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
		}
		return err
	}

	leaderChanged := !containsID(group.LeaderIDs, user.PersonID)
	mirrorChanged := !containsID(user.GroupLeaderships, groupID)
	if !leaderChanged && !mirrorChanged {
		return nil
	}
	group.LeaderIDs = appendID(group.LeaderIDs, user.PersonID)
	user.GroupLeaderships = appendID(user.GroupLeaderships, groupID)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&group).Error; err != nil {
			return err
		}
		return tx.Save(user).Error
	})
}

// RemoveGroupLeadership removes the account from both sides of the group
// leadership mirror. Removing twice has no additional effect.
func (s *LeadershipService) RemoveGroupLeadership(actor *models.ChurchUser, churchUserID, groupID uint) error {
	if err := s.Access.RequireGroupAccess(actor, groupID); err != nil {
		return err
	}

	user, err := s.getUser(actor.ChurchID, churchUserID)
	if err != nil {
		return err
	}
	var group models.Group
	if err := s.DB.Where("church_id = ?", actor.ChurchID).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
		}
		return err
	}

	if !containsID(group.LeaderIDs, user.PersonID) && !containsID(user.GroupLeaderships, groupID) {
		return nil
	}
	group.LeaderIDs = removeID(group.LeaderIDs, user.PersonID)
	user.GroupLeaderships = removeID(user.GroupLeaderships, groupID)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&group).Error; err != nil {
			return err
		}
		return tx.Save(user).Error
	})
}

// AssignSubgroupLeadership makes the account a leader of the subgroup,
// mirroring Subgroup.LeaderIDs and the account's SubgroupLeaderships.
func (s *LeadershipService) AssignSubgroupLeadership(actor *models.ChurchUser, churchUserID, subgroupID uint) error {
	if err := s.Access.RequireSubgroupAccess(actor, subgroupID); err != nil {
		return err
	}

	user, err := s.getUser(actor.ChurchID, churchUserID)
	if err != nil {
		return err
	}
	subgroup, err := s.getSubgroup(actor.ChurchID, subgroupID)
	if err != nil {
		return err
	}

	if containsID(subgroup.LeaderIDs, user.PersonID) && containsID(user.SubgroupLeaderships, subgroupID) {
		return nil
	}
	subgroup.LeaderIDs = appendID(subgroup.LeaderIDs, user.PersonID)
	user.SubgroupLeaderships = appendID(user.SubgroupLeaderships, subgroupID)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(subgroup).Error; err != nil {
			return err
		}
		return tx.Save(user).Error
	})
}

// RemoveSubgroupLeadership removes the account from both sides of the
// subgroup leadership mirror.
func (s *LeadershipService) RemoveSubgroupLeadership(actor *models.ChurchUser, churchUserID, subgroupID uint) error {
	if err := s.Access.RequireSubgroupAccess(actor, subgroupID); err != nil {
		return err
	}

	user, err := s.getUser(actor.ChurchID, churchUserID)
	if err != nil {
		return err
	}
	subgroup, err := s.getSubgroup(actor.ChurchID, subgroupID)
	if err != nil {
		return err
	}

	if !containsID(subgroup.LeaderIDs, user.PersonID) && !containsID(user.SubgroupLeaderships, subgroupID) {
		return nil
	}
	subgroup.LeaderIDs = removeID(subgroup.LeaderIDs, user.PersonID)
	user.SubgroupLeaderships = removeID(user.SubgroupLeaderships, subgroupID)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(subgroup).Error; err != nil {
			return err
		}
		return tx.Save(user).Error
	})
}

func (s *LeadershipService) getUser(churchID, userID uint) (*models.ChurchUser, error) {
	var user models.ChurchUser
	if err := s.DB.Where("church_id = ?", churchID).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

func (s *LeadershipService) getSubgroup(churchID, subgroupID uint) (*models.Subgroup, error) {
	var subgroup models.Subgroup
	if err := s.DB.Where("church_id = ?", churchID).First(&subgroup, subgroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subgroup %d", ErrNotFound, subgroupID)
		}
		return nil, err
	}
	return &subgroup, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func appendID(ids []uint, id uint) []uint {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
