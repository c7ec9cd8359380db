package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/service"
	"github.com/noah-isme/exeval-api/internal/utils"
)

// ScoringModelHandler manages rubric endpoints.
type ScoringModelHandler struct {
	service service.ScoringModelService
	logger  zerolog.Logger
}

// NewScoringModelHandler builds a scoring model handler instance.
func NewScoringModelHandler(service service.ScoringModelService, logger zerolog.Logger) *ScoringModelHandler {
	return &ScoringModelHandler{
		service: service,
		logger:  logger.With().Str("component", "scoring_model_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ScoringModelHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id/archive", h.archive)
}

func (h *ScoringModelHandler) list(c *fiber.Ctx) error {
	scoringModels, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scoring models retrieved", scoringModels)
}

func (h *ScoringModelHandler) create(c *fiber.Ctx) error {
	var payload dto.ScoringModelCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	model, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "scoring model created", model)
}

func (h *ScoringModelHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid scoring model id")
	}

	model, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scoring model retrieved", model)
}

func (h *ScoringModelHandler) archive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid scoring model id")
	}

	if err := h.service.Archive(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scoring model archived", nil)
}

func (h *ScoringModelHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrScoringModelNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "scoring model not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
