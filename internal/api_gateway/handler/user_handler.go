package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/fin-api-ledger/internal/api_gateway/middleware"
	"github.com/fin-api-ledger/internal/api_gateway/service"
)

// UserHandler handles registration, login and profile requests
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(logger *slog.Logger, userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Create registers a new user
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	u, err := h.userService.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapUserToResponse(u))
}

// Authenticate exchanges credentials for a bearer token
func (h *UserHandler) Authenticate(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapSessionToResponse(session))
}

// Profile returns the authenticated user
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	u, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapUserToResponse(u))
}
