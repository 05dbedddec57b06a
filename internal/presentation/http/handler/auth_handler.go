package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/duka-pos/internal/application/service"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/duka-pos/internal/presentation/http/middleware"
)

// AuthHandler handles authentication and operator accounts
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates an operator and opens a session
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", gin.H{
		"user":         output.User,
		"session_id":   output.SessionID,
		"access_token": output.AccessToken,
		"token_type":   "Bearer",
	})
}

// Logout ends the session; its checkout is discarded with it
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if err := h.authService.Logout(sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Logged out successfully", nil)
}

// Me returns the current operator
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User retrieved successfully", user)
}

// CreateUser creates an operator account (admin only)
// @Router /users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req request.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     enum.Role(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "User created successfully", user)
}
