package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"churchhub/models"
	"churchhub/services"
)

// GroupController handles groups, subgroups, memberships and leadership
// assignments.
type GroupController struct {
	Groups      *services.GroupService
	Memberships *services.MembershipService
	Leadership  *services.LeadershipService
	Accounts    *services.AccountService
}

// NewGroupController creates a group controller.
func NewGroupController(groups *services.GroupService, memberships *services.MembershipService,
	leadership *services.LeadershipService, accounts *services.AccountService) *GroupController {
	return &GroupController{
		Groups:      groups,
		Memberships: memberships,
		Leadership:  leadership,
		Accounts:    accounts,
	}
}

// CreateGroup creates a group.
func (c *GroupController) CreateGroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	var req models.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	group, err := c.Groups.CreateGroup(actor, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "group created",
		"group":   group,
	})
}

// GetGroup returns a group with its member count and subgroups.
func (c *GroupController) GetGroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	group, err := c.Groups.GetGroupResponse(actor, id, true)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"group": group})
}

// ListGroups returns the church's groups.
func (c *GroupController) ListGroups(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	groups, err := c.Groups.ListGroups(actor)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"groups": groups})
}

// UpdateGroup updates a group's details.
func (c *GroupController) UpdateGroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	group, err := c.Groups.UpdateGroup(actor, id, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "group updated",
		"group":   group,
	})
}

// DeleteGroup removes a group and everything that depends on it.
func (c *GroupController) DeleteGroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.Groups.DeleteGroup(actor, id); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// CreateSubgroup creates a subgroup under a group.
func (c *GroupController) CreateSubgroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.SubgroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	subgroup, err := c.Groups.CreateSubgroup(actor, groupID, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "subgroup created",
		"subgroup": subgroup,
	})
}

// ListSubgroups lists a group's subgroups.
func (c *GroupController) ListSubgroups(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	subgroups, err := c.Groups.GetSubgroups(actor, groupID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"subgroups": subgroups})
}

// UpdateSubgroup updates a subgroup's details.
func (c *GroupController) UpdateSubgroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.SubgroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	subgroup, err := c.Groups.UpdateSubgroup(actor, id, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "subgroup updated",
		"subgroup": subgroup,
	})
}

// DeleteSubgroup removes a subgroup, keeping its members in the parent group.
func (c *GroupController) DeleteSubgroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.Groups.DeleteSubgroup(actor, id); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "subgroup deleted"})
}

// AddMember adds a person to a group.
func (c *GroupController) AddMember(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	member, err := c.Memberships.AddMember(actor, groupID, req.PersonID, req.SubgroupID, req.Role)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "member added",
		"member":  member,
	})
}

// ListMembers lists a group's members.
func (c *GroupController) ListMembers(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	members, err := c.Memberships.GetMembers(actor, groupID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"members": members})
}

// RemoveMember deletes a membership.
func (c *GroupController) RemoveMember(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	memberID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.Memberships.RemoveMember(actor, memberID); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// AssignSubgroup sets or clears a member's subgroup.
func (c *GroupController) AssignSubgroup(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	memberID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.AssignSubgroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	member, err := c.Memberships.AssignSubgroup(actor, memberID, req.SubgroupID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "subgroup assignment updated",
		"member":  member,
	})
}

// leadershipRequest names the staff account for a leadership change.
type leadershipRequest struct {
	ChurchUserID uint `json:"church_user_id" binding:"required"`
}

// AssignGroupLeader makes an account a leader of a group.
func (c *GroupController) AssignGroupLeader(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req leadershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := c.Leadership.AssignGroupLeadership(actor, req.ChurchUserID, groupID); err != nil {
		abortWithError(ctx, err)
		return
	}
	c.Accounts.InvalidateUser(req.ChurchUserID)
	ctx.JSON(http.StatusOK, gin.H{"message": "group leadership assigned"})
}

// RemoveGroupLeader removes an account from a group's leadership.
func (c *GroupController) RemoveGroupLeader(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	churchUserID, ok := idParam(ctx, "userID")
	if !ok {
		return
	}

	if err := c.Leadership.RemoveGroupLeadership(actor, churchUserID, groupID); err != nil {
		abortWithError(ctx, err)
		return
	}
	c.Accounts.InvalidateUser(churchUserID)
	ctx.JSON(http.StatusOK, gin.H{"message": "group leadership removed"})
}

// AssignSubgroupLeader makes an account a leader of a subgroup.
func (c *GroupController) AssignSubgroupLeader(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	subgroupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req leadershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := c.Leadership.AssignSubgroupLeadership(actor, req.ChurchUserID, subgroupID); err != nil {
		abortWithError(ctx, err)
		return
	}
	c.Accounts.InvalidateUser(req.ChurchUserID)
	ctx.JSON(http.StatusOK, gin.H{"message": "subgroup leadership assigned"})
}

// RemoveSubgroupLeader removes an account from a subgroup's leadership.
func (c *GroupController) RemoveSubgroupLeader(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	subgroupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	churchUserID, ok := idParam(ctx, "userID")
	if !ok {
		return
	}

	if err := c.Leadership.RemoveSubgroupLeadership(actor, churchUserID, subgroupID); err != nil {
		abortWithError(ctx, err)
		return
	}
	c.Accounts.InvalidateUser(churchUserID)
	ctx.JSON(http.StatusOK, gin.H{"message": "subgroup leadership removed"})
}
