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

// SubmissionHandler manages the submission aggregate endpoints, the option
// toggles nested under it, and option comments.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the submission routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/request", h.request)
	router.Get("/:id", h.get)
	router.Post("/:id/submit", h.submit)
	router.Post("/:id/clear", h.clear)
	router.Post("/:id/preset", h.preset)
}

// RegisterOptions attaches the option routes to the provided router group.
func (h *SubmissionHandler) RegisterOptions(router fiber.Router) {
	router.Patch("/:id", h.setOption)
	router.Post("/:id/comments", h.addComment)
}

// RegisterComments attaches the comment routes to the provided router group.
func (h *SubmissionHandler) RegisterComments(router fiber.Router) {
	router.Patch("/:id", h.updateComment)
	router.Delete("/:id", h.deleteComment)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	evaluationID, err := parseQueryUint(c, "evaluation_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation_id")
	}
	filter.EvaluationID = evaluationID
	move, err := parseQueryInt(c, "move")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid move")
	}
	filter.MoveNumber = move
	teamID, err := parseQueryUint(c, "team_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid team_id")
	}
	filter.TeamID = teamID
	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id")
	}
	filter.UserID = userID
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) request(c *fiber.Ctx) error {
	var payload dto.SubmissionRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Request(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.service.Submit(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission marked complete", submission)
}

func (h *SubmissionHandler) clear(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.service.ClearSelections(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission cleared", submission)
}

func (h *SubmissionHandler) preset(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.service.PresetSelections(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission preset from previous move", submission)
}

func (h *SubmissionHandler) setOption(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid option id")
	}

	var payload dto.SetOptionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.SetOption(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "option updated", submission)
}

func (h *SubmissionHandler) addComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid option id")
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.AddComment(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}

func (h *SubmissionHandler) updateComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var payload dto.CommentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.UpdateComment(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment updated", comment)
}

func (h *SubmissionHandler) deleteComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid comment id")
	}

	if err := h.service.DeleteComment(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment deleted", nil)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrOptionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission option not found")
	case errors.Is(err, service.ErrCommentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "comment not found")
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrSubmissionNotActive):
		return utils.SendError(c, fiber.StatusConflict, "submission is not active")
	case errors.Is(err, service.ErrMoveOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, "move number out of range")
	case errors.Is(err, service.ErrInvalidScope):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission scope")
	case errors.Is(err, service.ErrEmptyComment):
		return utils.SendError(c, fiber.StatusBadRequest, "comment body is empty")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
