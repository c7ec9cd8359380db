package dto

import (
	"time"

	"github.com/noah-isme/exeval-api/internal/models"
)

// SubmissionRequestPayload identifies the scope a caller wants a submission
// for. The engine creates the row lazily if it does not exist yet.
type SubmissionRequestPayload struct {
	EvaluationID uint `json:"evaluation_id" validate:"required"`
	MoveNumber   *int `json:"move_number" validate:"required,gte=0"`
	TeamID       uint `json:"team_id"`
	UserID       uint `json:"user_id"`
}

// SetOptionRequest toggles one submission option.
type SetOptionRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

// CommentCreateRequest attaches a note to a submission option.
type CommentCreateRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// CommentUpdateRequest edits an existing note.
type CommentUpdateRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// SubmissionFilter narrows submission list queries.
type SubmissionFilter struct {
	EvaluationID *uint
	MoveNumber   *int
	TeamID       *uint
	UserID       *uint
	Status       *string
}

// SubmissionResponse is the wire shape of the full submission aggregate.
type SubmissionResponse struct {
	ID               uint                         `json:"id"`
	EvaluationID     uint                         `json:"evaluation_id"`
	ScoringModelID   uint                         `json:"scoring_model_id"`
	MoveNumber       int                          `json:"move_number"`
	TeamID           *uint                        `json:"team_id"`
	UserID           *uint                        `json:"user_id"`
	GroupID          *uint                        `json:"group_id"`
	Score            float64                      `json:"score"`
	Status           string                       `json:"status"`
	ScoreIsAnAverage bool                         `json:"score_is_an_average"`
	Categories       []SubmissionCategoryResponse `json:"categories"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// SubmissionCategoryResponse is one scored category snapshot.
type SubmissionCategoryResponse struct {
	ID                uint                       `json:"id"`
	ScoringCategoryID uint                       `json:"scoring_category_id"`
	Name              string                     `json:"name"`
	Score             float64                    `json:"score"`
	Options           []SubmissionOptionResponse `json:"options"`
}

// SubmissionOptionResponse is one option snapshot with its rubric values.
type SubmissionOptionResponse struct {
	ID              uint                        `json:"id"`
	ScoringOptionID uint                        `json:"scoring_option_id"`
	Description     string                      `json:"description"`
	Value           float64                     `json:"value"`
	IsModifier      bool                        `json:"is_modifier"`
	IsSelected      bool                        `json:"is_selected"`
	SelectedCount   int                         `json:"selected_count"`
	Comments        []SubmissionCommentResponse `json:"comments"`
}

// SubmissionCommentResponse is one option note.
type SubmissionCommentResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubmissionResponse maps a submission aggregate onto its wire shape.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	categories := make([]SubmissionCategoryResponse, 0, len(submission.Categories))
	for _, category := range submission.Categories {
		categories = append(categories, newSubmissionCategoryResponse(category))
	}

	return SubmissionResponse{
		ID:               submission.ID,
		EvaluationID:     submission.EvaluationID,
		ScoringModelID:   submission.ScoringModelID,
		MoveNumber:       submission.MoveNumber,
		TeamID:           optionalID(submission.TeamID),
		UserID:           optionalID(submission.UserID),
		GroupID:          optionalID(submission.GroupID),
		Score:            submission.Score,
		Status:           submission.Status,
		ScoreIsAnAverage: submission.ScoreIsAnAverage,
		Categories:       categories,
		CreatedAt:        submission.CreatedAt,
		UpdatedAt:        submission.UpdatedAt,
	}
}

// NewSubmissionResponseSlice maps a list of aggregates.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}

func newSubmissionCategoryResponse(category models.SubmissionCategory) SubmissionCategoryResponse {
	options := make([]SubmissionOptionResponse, 0, len(category.Options))
	for _, option := range category.Options {
		options = append(options, newSubmissionOptionResponse(option))
	}

	return SubmissionCategoryResponse{
		ID:                category.ID,
		ScoringCategoryID: category.ScoringCategoryID,
		Name:              category.ScoringCategory.Name,
		Score:             category.Score,
		Options:           options,
	}
}

func newSubmissionOptionResponse(option models.SubmissionOption) SubmissionOptionResponse {
	comments := make([]SubmissionCommentResponse, 0, len(option.Comments))
	for _, comment := range option.Comments {
		comments = append(comments, SubmissionCommentResponse{
			ID:        comment.ID,
			UserID:    comment.UserID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
			UpdatedAt: comment.UpdatedAt,
		})
	}

	return SubmissionOptionResponse{
		ID:              option.ID,
		ScoringOptionID: option.ScoringOptionID,
		Description:     option.ScoringOption.Description,
		Value:           option.ScoringOption.Value,
		IsModifier:      option.ScoringOption.IsModifier,
		IsSelected:      option.IsSelected,
		SelectedCount:   option.SelectedCount,
		Comments:        comments,
	}
}

// NewSubmissionCommentResponse maps a single comment.
func NewSubmissionCommentResponse(comment models.SubmissionComment) SubmissionCommentResponse {
	return SubmissionCommentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
