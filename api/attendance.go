package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"churchhub/models"
	"churchhub/services"
)

// AttendanceController records attendance and serves attendance reports.
type AttendanceController struct {
	Memberships *services.MembershipService
	Accounts    *services.AccountService
}

// NewAttendanceController creates an attendance controller.
func NewAttendanceController(memberships *services.MembershipService, accounts *services.AccountService) *AttendanceController {
	return &AttendanceController{Memberships: memberships, Accounts: accounts}
}

// RecordAttendance appends one attendance entry to a membership.
func (c *AttendanceController) RecordAttendance(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	memberID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.AttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	member, err := c.Memberships.RecordAttendance(actor, memberID, models.AttendanceEntry{
		Date:   req.Date,
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "attendance recorded",
		"member":  member,
	})
}

// AttendanceReport returns per-member attendance for a group over an
// inclusive date range. Query params: start, end (2006-01-02), and an
// optional subgroup_id to narrow the report.
func (c *AttendanceController) AttendanceReport(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	groupID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	start, err := time.Parse("2006-01-02", ctx.Query("start"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", ctx.Query("end"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, expected YYYY-MM-DD"})
		return
	}
	// End of day, so entries on the end date count.
	end = end.Add(24*time.Hour - time.Nanosecond)

	var subgroupID *uint
	if raw := ctx.Query("subgroup_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid subgroup_id"})
			return
		}
		id := uint(parsed)
		subgroupID = &id
	}

	reports, err := c.Memberships.AttendanceReport(actor, groupID, subgroupID, start, end)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"group_id": groupID,
		"start":    start.Format("2006-01-02"),
		"end":      end.Format("2006-01-02"),
		"report":   reports,
	})
}
