package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/artcycle/core/internal/application/services"
	"github.com/artcycle/core/internal/infrastructure/logger"
	"github.com/artcycle/core/internal/ports"
)

// CheckInHandler handles evidence selection, day check-ins and ledger views
type CheckInHandler struct {
	checkInService *services.CheckInService
	ledgerService  *services.LedgerService
	logger         *logger.Logger
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkInService *services.CheckInService, ledgerService *services.LedgerService, logger *logger.Logger) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
		ledgerService:  ledgerService,
		logger:         logger,
	}
}

// SelectEvidence stages an uploaded artwork as evidence for a task
func (h *CheckInHandler) SelectEvidence(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	dayNumber, err := parseDayNumber(c)
	if err != nil {
		return err
	}

	var req ports.SelectEvidenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.checkInService.SelectEvidence(c.Request().Context(), userIDFromContext(c), goalID, dayNumber, req.TaskID, req.EvidenceID); err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Evidence selected"})
}

// CompleteDay submits the completion of one day
func (h *CheckInHandler) CompleteDay(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	dayNumber, err := parseDayNumber(c)
	if err != nil {
		return err
	}

	var req ports.CheckInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	record, err := h.checkInService.CompleteDay(c.Request().Context(), userIDFromContext(c), goalID, dayNumber, req.Note)
	if err != nil {
		h.logger.Error("Check-in failed", "error", err, "goal_id", goalID, "day", dayNumber)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, record)
}

// RefreshLedger re-fetches the authoritative completion ledger
func (h *CheckInHandler) RefreshLedger(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	if err := h.ledgerService.Refresh(c.Request().Context(), goalID); err != nil {
		h.logger.Error("Ledger refresh failed", "error", err, "goal_id", goalID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Ledger reconciled"})
}

// GetCompletions returns the cached completion records for a date
func (h *CheckInHandler) GetCompletions(c echo.Context) error {
	goalID, err := parseGoalID(c)
	if err != nil {
		return err
	}

	rawDate := c.QueryParam("date")
	if rawDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing date query parameter")
	}

	records, ok := h.ledgerService.CompletionsFor(goalID, rawDate)
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{})
	}

	return c.JSON(http.StatusOK, records)
}

func parseDayNumber(c echo.Context) (int, error) {
	dayNumber, err := strconv.Atoi(c.Param("day"))
	if err != nil || dayNumber < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid day number")
	}
	return dayNumber, nil
}
