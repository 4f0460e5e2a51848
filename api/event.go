package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"churchhub/models"
	"churchhub/services"
)

// EventController handles events and event check-ins.
type EventController struct {
	Events   *services.EventService
	Accounts *services.AccountService
}

// NewEventController creates an event controller.
func NewEventController(events *services.EventService, accounts *services.AccountService) *EventController {
	return &EventController{Events: events, Accounts: accounts}
}

// CreateEvent creates an event.
func (c *EventController) CreateEvent(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	var req models.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	event, err := c.Events.CreateEvent(actor, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "event created",
		"event":   event,
	})
}

// GetEvent returns one event.
func (c *EventController) GetEvent(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	event, err := c.Events.GetEventByID(actor, id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"event": event})
}

// ListEvents returns the church's events.
func (c *EventController) ListEvents(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	events, err := c.Events.ListEvents(actor)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"events": events})
}

// UpdateEvent updates an event.
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	event, err := c.Events.UpdateEvent(actor, id, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "event updated",
		"event":   event,
	})
}

// DeleteEvent removes an event and its check-ins.
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.Events.DeleteEvent(actor, id); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// CheckIn checks a person in to an event.
func (c *EventController) CheckIn(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	eventID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.CheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	checkIn, err := c.Events.CheckIn(actor, eventID, req.PersonID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "checked in",
		"check_in": checkIn,
	})
}

// CheckOut closes an active check-in.
func (c *EventController) CheckOut(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	checkInID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	checkIn, err := c.Events.CheckOut(actor, checkInID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "checked out",
		"check_in": checkIn,
	})
}

// ListCheckIns returns an event's check-ins.
func (c *EventController) ListCheckIns(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	eventID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	checkIns, err := c.Events.ListCheckIns(actor, eventID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"check_ins": checkIns})
}
