package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff account roles.
const (
	UserRoleAdmin     = "admin"
	UserRolePastor    = "pastor"
	UserRoleStaff     = "staff"
	UserRoleVolunteer = "volunteer"
)

// Permission names checked by the access policy.
const (
	PermManagePeople     = "manage_people"
	PermManageGroups     = "manage_groups"
	PermManageEvents     = "manage_events"
	PermManageUsers      = "manage_users"
	PermRecordAttendance = "record_attendance"
)

// rolePermissions maps each role to its derived permission set.
// Permissions are recomputed from the role on every save and never taken
// from request input.
var rolePermissions = map[string][]string{
	UserRoleAdmin:     {PermManagePeople, PermManageGroups, PermManageEvents, PermManageUsers, PermRecordAttendance},
	UserRolePastor:    {PermManagePeople, PermManageGroups, PermManageEvents, PermRecordAttendance},
	UserRoleStaff:     {PermManagePeople, PermManageEvents, PermRecordAttendance},
	UserRoleVolunteer: {PermRecordAttendance},
}

// PermissionsForRole returns the permission set derived from a role.
func PermissionsForRole(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidUserRole reports whether the role is a known staff role.
func ValidUserRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// ChurchUser is a church-staff account tied to a Person.
// GroupLeaderships and SubgroupLeaderships mirror Group.LeaderIDs and
// Subgroup.LeaderIDs; they are written only by the leadership service.
type ChurchUser struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	ChurchID            uint      `json:"church_id" gorm:"not null;index"`
	PersonID            uint      `json:"person_id" gorm:"not null;uniqueIndex"`
	Username            string    `json:"username" gorm:"uniqueIndex;not null"`
	Password            string    `json:"-" gorm:"not null"`
	Role                string    `json:"role" gorm:"type:varchar(20);not null"`
	Permissions         []string  `json:"permissions" gorm:"serializer:json"`
	GroupLeaderships    []uint    `json:"group_leaderships" gorm:"serializer:json"`
	SubgroupLeaderships []uint    `json:"subgroup_leaderships" gorm:"serializer:json"`
	IsActive            bool      `json:"is_active" gorm:"default:true"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// BeforeSave derives the permission set from the role on every write, so
// stored permissions can never drift from the role.
func (u *ChurchUser) BeforeSave(tx *gorm.DB) error {
	u.Permissions = PermissionsForRole(u.Role)
	return nil
}

// HasPermission reports whether the account's derived permission set
// contains the named permission.
func (u *ChurchUser) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// LeadsGroup reports whether the account leads the given group.
func (u *ChurchUser) LeadsGroup(groupID uint) bool {
	for _, id := range u.GroupLeaderships {
		if id == groupID {
			return true
		}
	}
	return false
}

// LeadsSubgroup reports whether the account leads the given subgroup.
func (u *ChurchUser) LeadsSubgroup(subgroupID uint) bool {
	for _, id := range u.SubgroupLeaderships {
		if id == subgroupID {
			return true
		}
	}
	return false
}

// ChurchUserResponse is the account shape returned to clients.
type ChurchUserResponse struct {
	ID                  uint     `json:"id"`
	PersonID            uint     `json:"person_id"`
	Username            string   `json:"username"`
	Role                string   `json:"role"`
	Permissions         []string `json:"permissions"`
	GroupLeaderships    []uint   `json:"group_leaderships"`
	SubgroupLeaderships []uint   `json:"subgroup_leaderships"`
	IsActive            bool     `json:"is_active"`
}

// Response converts the account to its client-facing shape.
func (u *ChurchUser) Response() ChurchUserResponse {
	return ChurchUserResponse{
		ID:                  u.ID,
		PersonID:            u.PersonID,
		Username:            u.Username,
		Role:                u.Role,
		Permissions:         u.Permissions,
		GroupLeaderships:    u.GroupLeaderships,
		SubgroupLeaderships: u.SubgroupLeaderships,
		IsActive:            u.IsActive,
	}
}

// RegisterUserRequest is the request body for creating a staff account.
type RegisterUserRequest struct {
	PersonID uint   `json:"person_id" binding:"required"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest is the request body for staff login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
