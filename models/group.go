package models

import (
	"time"
)

// MemberRole is a person's role within a group.
type MemberRole string

const (
	RoleMember    MemberRole = "member"
	RoleLeader    MemberRole = "leader"
	RoleAssistant MemberRole = "assistant"
	RoleAdmin     MemberRole = "admin"
)

// ValidMemberRole reports whether the role is one of the known member roles.
func ValidMemberRole(r MemberRole) bool {
	switch r {
	case RoleMember, RoleLeader, RoleAssistant, RoleAdmin:
		return true
	}
	return false
}

// AttendanceStatus is a single attendance mark.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// ValidAttendanceStatus reports whether the status is a known attendance status.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused:
		return true
	}
	return false
}

// Group is a top-level congregational grouping with its own leaders
// and meeting schedule. Subgroups and memberships reference it by id.
type Group struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ChurchID       uint      `json:"church_id" gorm:"not null;index"`
	Name           string    `json:"name" gorm:"not null"`
	Description    string    `json:"description"`
	MeetingDay     string    `json:"meeting_day"`
	MeetingTime    string    `json:"meeting_time"`
	MeetingPlace   string    `json:"meeting_place"`
	LeaderIDs      []uint    `json:"leader_ids" gorm:"serializer:json"`
	CreatedByID    uint      `json:"created_by_id"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Subgroup is a sub-division of exactly one Group.
// ParentGroupID must reference an existing group at creation time; it may
// become dangling only through a group cascade delete, never directly.
type Subgroup struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ChurchID      uint      `json:"church_id" gorm:"not null;index"`
	ParentGroupID uint      `json:"parent_group_id" gorm:"not null;index"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description"`
	MeetingDay    string    `json:"meeting_day"`
	MeetingTime   string    `json:"meeting_time"`
	LeaderIDs     []uint    `json:"leader_ids" gorm:"serializer:json"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AttendanceEntry is one attendance mark on a membership.
// Entries are kept in insertion order; same-date duplicates are allowed.
type AttendanceEntry struct {
	Date   time.Time        `json:"date"`
	Status AttendanceStatus `json:"status"`
	Notes  string           `json:"notes,omitempty"`
}

// GroupMember joins a person to a group, with an optional subgroup
// assignment and the member's attendance history. The unique index on
// (group_id, person_id) is the authoritative guard against duplicate
// memberships under concurrent inserts.
type GroupMember struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	ChurchID   uint              `json:"church_id" gorm:"not null;index"`
	GroupID    uint              `json:"group_id" gorm:"not null;uniqueIndex:idx_group_person"`
	PersonID   uint              `json:"person_id" gorm:"not null;uniqueIndex:idx_group_person"`
	SubgroupID *uint             `json:"subgroup_id,omitempty" gorm:"index"`
	Role       MemberRole        `json:"role" gorm:"type:varchar(20);default:'member'"`
	Attendance []AttendanceEntry `json:"attendance" gorm:"serializer:json"`
	JoinedAt   time.Time         `json:"joined_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// GroupRequest is the create/update request body for a group.
type GroupRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	MeetingDay   string `json:"meeting_day"`
	MeetingTime  string `json:"meeting_time"`
	MeetingPlace string `json:"meeting_place"`
}

// SubgroupRequest is the create/update request body for a subgroup.
type SubgroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MeetingDay  string `json:"meeting_day"`
	MeetingTime string `json:"meeting_time"`
}

// AddMemberRequest is the request body for adding a person to a group.
type AddMemberRequest struct {
	PersonID   uint       `json:"person_id" binding:"required"`
	SubgroupID *uint      `json:"subgroup_id"`
	Role       MemberRole `json:"role"`
}

// AssignSubgroupRequest is the request body for (re)assigning a member's
// subgroup. A null subgroup_id clears the assignment.
type AssignSubgroupRequest struct {
	SubgroupID *uint `json:"subgroup_id"`
}

// AttendanceRequest is the request body for recording one attendance entry.
type AttendanceRequest struct {
	Date   time.Time        `json:"date" binding:"required"`
	Status AttendanceStatus `json:"status" binding:"required"`
	Notes  string           `json:"notes"`
}

// GroupResponse is a group with its member count.
type GroupResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MeetingDay   string    `json:"meeting_day"`
	MeetingTime  string    `json:"meeting_time"`
	MeetingPlace string    `json:"meeting_place"`
	LeaderIDs    []uint    `json:"leader_ids"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	MemberCount  int       `json:"member_count"`
	Subgroups    []Subgroup `json:"subgroups,omitempty"`
}

// MemberResponse is a membership joined with the person's display name.
type MemberResponse struct {
	ID         uint       `json:"id"`
	PersonID   uint       `json:"person_id"`
	PersonName string     `json:"person_name"`
	GroupID    uint       `json:"group_id"`
	SubgroupID *uint      `json:"subgroup_id,omitempty"`
	Role       MemberRole `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
}

// MemberAttendanceReport is one member's attendance entries within a
// requested date range.
type MemberAttendanceReport struct {
	MemberID   uint              `json:"member_id"`
	PersonID   uint              `json:"person_id"`
	PersonName string            `json:"person_name"`
	Entries    []AttendanceEntry `json:"entries"`
}
