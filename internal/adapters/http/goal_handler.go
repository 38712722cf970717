package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/artcycle/core/internal/application/services"
	"github.com/artcycle/core/internal/infrastructure/logger"
	"github.com/artcycle/core/internal/ports"
)

// GoalHandler handles goal lifecycle requests
type GoalHandler struct {
	goalService *services.GoalService
	logger      *logger.Logger
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(goalService *services.GoalService, logger *logger.Logger) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
		logger:      logger,
	}
}

// CreateGoal handles goal creation
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	var req ports.CreateGoalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	goal, err := h.goalService.CreateGoal(c.Request().Context(), userIDFromContext(c), req)
	if err != nil {
		h.logger.Error("Create goal failed", "error", err)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, goal)
}

// ListGoals returns all goals of the caller
func (h *GoalHandler) ListGoals(c echo.Context) error {
	goals, err := h.goalService.ListGoals(c.Request().Context(), userIDFromContext(c))
	if err != nil {
		h.logger.Error("List goals failed", "error", err)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, goals)
}

// GetGoal returns a single goal
func (h *GoalHandler) GetGoal(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	goal, err := h.goalService.GetGoal(c.Request().Context(), userIDFromContext(c), goalID)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, goal)
}

// UpdateGoal edits a goal's title or schedule before activation
func (h *GoalHandler) UpdateGoal(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateGoalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	goal, err := h.goalService.UpdateGoal(c.Request().Context(), userIDFromContext(c), goalID, req)
	if err != nil {
		h.logger.Error("Update goal failed", "error", err, "goal_id", goalID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, goal)
}

// StartGoal activates a goal
func (h *GoalHandler) StartGoal(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	goal, err := h.goalService.StartGoal(c.Request().Context(), userIDFromContext(c), goalID)
	if err != nil {
		h.logger.Error("Start goal failed", "error", err, "goal_id", goalID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, goal)
}

// DeleteGoal deletes a goal and everything keyed by it
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	if err := h.goalService.DeleteGoal(c.Request().Context(), userIDFromContext(c), goalID); err != nil {
		h.logger.Error("Delete goal failed", "error", err, "goal_id", goalID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Goal deleted"})
}

// GetCycleState returns the derived per-day state of the goal
func (h *GoalHandler) GetCycleState(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	state, err := h.goalService.CycleStateFor(c.Request().Context(), userIDFromContext(c), goalID)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, state)
}

func parseGoalID(c echo.Context) (uuid.UUID, error) {
	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid goal ID")
	}
	return goalID, nil
}
