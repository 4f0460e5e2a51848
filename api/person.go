package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"churchhub/models"
	"churchhub/services"
)

// PersonController handles the people directory and households.
type PersonController struct {
	People   *services.PersonService
	Accounts *services.AccountService
}

// NewPersonController creates a person controller.
func NewPersonController(people *services.PersonService, accounts *services.AccountService) *PersonController {
	return &PersonController{People: people, Accounts: accounts}
}

// CreatePerson adds a person to the directory.
func (c *PersonController) CreatePerson(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	var req models.PersonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	person, err := c.People.CreatePerson(actor, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "person created",
		"person":  person,
	})
}

// GetPerson returns one person.
func (c *PersonController) GetPerson(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	person, err := c.People.GetPersonByID(actor, id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"person": person})
}

// ListPeople returns people, with optional search and pagination.
func (c *PersonController) ListPeople(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	people, err := c.People.ListPeople(actor, ctx.Query("search"), limit, offset)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"people": people})
}

// UpdatePerson updates a directory entry.
func (c *PersonController) UpdatePerson(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req models.PersonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	person, err := c.People.UpdatePerson(actor, id, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "person updated",
		"person":  person,
	})
}

// DeletePerson removes a person and their memberships.
func (c *PersonController) DeletePerson(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.People.DeletePerson(actor, id); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "person deleted"})
}

// CreateHousehold creates a household.
func (c *PersonController) CreateHousehold(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	var req models.HouseholdRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	household, err := c.People.CreateHousehold(actor, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":   "household created",
		"household": household,
	})
}

// GetHousehold returns a household with its members.
func (c *PersonController) GetHousehold(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	household, err := c.People.GetHouseholdResponse(actor, id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"household": household})
}

// ListHouseholds returns the church's households.
func (c *PersonController) ListHouseholds(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	households, err := c.People.ListHouseholds(actor)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"households": households})
}

// DeleteHousehold removes a household; members stay in the directory.
func (c *PersonController) DeleteHousehold(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.People.DeleteHousehold(actor, id); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "household deleted"})
}
