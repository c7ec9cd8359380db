package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/repository"
	"github.com/noah-isme/exeval-api/internal/service"
	"github.com/noah-isme/exeval-api/internal/utils"
)

// EvaluationHandler manages exercise endpoints: the read model, the move
// advance trigger, and the persisted event log.
type EvaluationHandler struct {
	lifecycle service.LifecycleService
	events    service.EventService
	logger    zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler instance.
func NewEvaluationHandler(lifecycle service.LifecycleService, events service.EventService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		lifecycle: lifecycle,
		events:    events,
		logger:    logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Patch("/:id/move", h.advanceMove)
	router.Get("/:id/events", h.listEvents)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation id")
	}

	evaluation, err := h.lifecycle.GetEvaluation(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *EvaluationHandler) advanceMove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation id")
	}

	var payload dto.AdvanceMoveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.lifecycle.AdvanceMove(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "move advanced", evaluation)
}

func (h *EvaluationHandler) listEvents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation id")
	}

	filter := repository.EventLogFilter{EvaluationID: &id}
	if action := c.Query("action"); action != "" {
		filter.Action = action
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	if limit != nil {
		filter.Limit = *limit
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}
	if offset != nil {
		filter.Offset = *offset
	}

	events, err := h.events.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "events retrieved", dto.NewEventResponseSlice(events))
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrMoveOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, "move number out of range")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
