package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"churchhub/middleware"
	"churchhub/models"
	"churchhub/services"
)

// AuthController handles staff account authentication and management.
type AuthController struct {
	Accounts *services.AccountService
}

// NewAuthController creates an auth controller.
func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{Accounts: accounts}
}

// Login verifies credentials and returns a signed token.
func (c *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	user, err := c.Accounts.Login(req.Username, req.Password)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, user.Role, user.ChurchID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user":    user.Response(),
		"token":   token,
	})
}

// Register creates a staff account for an existing person.
func (c *AuthController) Register(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	var req models.RegisterUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	user, err := c.Accounts.Register(actor, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "account created",
		"user":    user.Response(),
	})
}

// GetProfile returns the acting account.
func (c *AuthController) GetProfile(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": actor.Response()})
}

// ChangePassword updates the acting account's password.
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := c.Accounts.ChangePassword(actor.ID, req.OldPassword, req.NewPassword); err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// ListUsers returns the church's staff accounts.
func (c *AuthController) ListUsers(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	users, err := c.Accounts.ListUsers(actor)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"users": users})
}

// SetRole changes an account's role.
func (c *AuthController) SetRole(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	userID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	user, err := c.Accounts.SetRole(actor, userID, req.Role)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "role updated",
		"user":    user.Response(),
	})
}
