package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/artcycle/core/internal/application/services"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/logger"
	"github.com/artcycle/core/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Registration failed", "error", err, "email", req.Email)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, response)
}

// Login handles user login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Login failed", "error", err, "email", req.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

// userIDFromContext extracts the authenticated user's ID set by the auth
// middleware.
func userIDFromContext(c echo.Context) uuid.UUID {
	userIDStr, ok := c.Get("user").(string)
	if !ok {
		return uuid.Nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil
	}

	return userID
}

// domainHTTPError maps domain sentinel errors onto the HTTP taxonomy:
// validation failures are 400/409, ownership failures 403/404, session
// problems 401, everything else a generic 500 with the wrapped message.
func domainHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, entities.ErrGoalNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "You do not have access to this goal")
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please re-authenticate")
	case errors.Is(err, entities.ErrSubmissionInFlight),
		errors.Is(err, entities.ErrDayAlreadyCompleted),
		errors.Is(err, entities.ErrGoalAlreadyStarted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrDayLocked),
		errors.Is(err, entities.ErrCycleExpired),
		errors.Is(err, entities.ErrMissingEvidence),
		errors.Is(err, entities.ErrNoteTooLong),
		errors.Is(err, entities.ErrInvalidDayNumber),
		errors.Is(err, entities.ErrInvalidDuration),
		errors.Is(err, entities.ErrInvalidPlanType),
		errors.Is(err, entities.ErrScheduleOutOfRange),
		errors.Is(err, entities.ErrGoalNotEditable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
