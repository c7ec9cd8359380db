package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exeval-api/internal/service"
	"github.com/noah-isme/exeval-api/internal/utils"
)

// AverageHandler serves the derived average read endpoints.
type AverageHandler struct {
	service service.AverageService
	logger  zerolog.Logger
}

// NewAverageHandler builds an average handler instance.
func NewAverageHandler(service service.AverageService, logger zerolog.Logger) *AverageHandler {
	return &AverageHandler{
		service: service,
		logger:  logger.With().Str("component", "average_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AverageHandler) Register(router fiber.Router) {
	router.Get("/team", h.teamAverage)
	router.Get("/team-type", h.teamTypeAverage)
}

func (h *AverageHandler) teamAverage(c *fiber.Ctx) error {
	teamID, err := parseQueryUint(c, "team_id")
	if err != nil || teamID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "team_id is required")
	}
	move, err := parseQueryInt(c, "move")
	if err != nil || move == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "move is required")
	}

	average, found, err := h.service.TeamAverage(c.Context(), *teamID, *move)
	if err != nil {
		return h.handleError(c, err)
	}
	if !found {
		return utils.SendError(c, fiber.StatusNotFound, "no submissions to average")
	}

	return utils.SendSuccess(c, "team average computed", average)
}

func (h *AverageHandler) teamTypeAverage(c *fiber.Ctx) error {
	evaluationID, err := parseQueryUint(c, "evaluation_id")
	if err != nil || evaluationID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "evaluation_id is required")
	}
	teamTypeID, err := parseQueryUint(c, "team_type_id")
	if err != nil || teamTypeID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "team_type_id is required")
	}
	move, err := parseQueryInt(c, "move")
	if err != nil || move == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "move is required")
	}

	average, found, err := h.service.TeamTypeAverage(c.Context(), *evaluationID, *teamTypeID, *move)
	if err != nil {
		return h.handleError(c, err)
	}
	if !found {
		return utils.SendError(c, fiber.StatusNotFound, "no submissions to average")
	}

	return utils.SendSuccess(c, "team type average computed", average)
}

func (h *AverageHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTeamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "team not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
