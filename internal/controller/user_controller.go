package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/service"
)

type UserController struct {
	Users  *service.UserService
	Orders *service.OrderService
}

func NewUserController(users *service.UserService, orders *service.OrderService) *UserController {
	return &UserController{Users: users, Orders: orders}
}

// POST /auth/signup — No requiere token
func (ctl *UserController) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := ctl.Users.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /auth/login — No requiere token
func (ctl *UserController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := ctl.Users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /users/me
func (ctl *UserController) Me(c *gin.Context) {
	user, err := ctl.Users.Get(c.Request.Context(), mustIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /users/me/profile
func (ctl *UserController) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Users.UpdateProfile(c.Request.Context(), mustIdentity(c), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// PATCH /users/me/preferences
func (ctl *UserController) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Users.UpdatePreferences(c.Request.Context(), mustIdentity(c), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "preferences updated"})
}

// PATCH /admin/users/:id/block
func (ctl *UserController) Block(c *gin.Context) {
	var req dto.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Orders.BlockUser(c.Request.Context(), mustIdentity(c), c.Param("id"), *req.IsBlocked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user access updated"})
}
