package services

import (
	"errors"
)

// Error kinds surfaced by the services. Handlers map these to HTTP status
// codes with errors.Is; services wrap them with fmt.Errorf("%w: ...") to
// attach detail.
var (
	// ErrNotFound means a referenced group, subgroup, member, person,
	// household, event, or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateMembership means the person already has a membership
	// record in the group.
	ErrDuplicateMembership = errors.New("person already belongs to this group")

	// ErrInvalidSubgroupAssignment means a subgroup was given for a person
	// with no membership in the subgroup's parent group.
	ErrInvalidSubgroupAssignment = errors.New("person has no membership in the subgroup's parent group")

	// ErrSubgroupGroupMismatch means the subgroup's parent group is not the
	// member's group.
	ErrSubgroupGroupMismatch = errors.New("subgroup does not belong to the member's group")

	// ErrUnauthorized means the acting account may not perform the
	// operation on the target group or subgroup.
	ErrUnauthorized = errors.New("not authorized for this operation")

	// ErrValidation means the input was malformed (missing required field,
	// unrecognized enum value).
	ErrValidation = errors.New("invalid input")
)
