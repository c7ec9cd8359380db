package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries. A nil field is not
// applied. PersonalOnly/TeamScopeOnly select by the scope shape rather than
// by a concrete id.
type SubmissionFilter struct {
	EvaluationID  *uint
	MoveNumber    *int
	TeamID        *uint
	TeamIDs       []uint
	UserID        *uint
	Status        *string
	PersonalOnly  bool
	TeamScopeOnly bool
}

// SubmissionRepository defines data operations for the submission aggregate.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByScope(ctx context.Context, evaluationID uint, moveNumber int, teamID, userID uint) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	SaveTree(ctx context.Context, submission *models.Submission, dropComments bool) error
	UpdateStatus(ctx context.Context, id uint, status string) error

	GetCategory(ctx context.Context, id uint) (models.SubmissionCategory, error)
	GetOption(ctx context.Context, id uint) (models.SubmissionOption, error)

	CreateComment(ctx context.Context, comment *models.SubmissionComment) error
	GetComment(ctx context.Context, id uint) (models.SubmissionComment, error)
	UpdateComment(ctx context.Context, comment *models.SubmissionComment) error
	DeleteComment(ctx context.Context, id uint) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("ScoringModel").
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("submission_categories.id")
		}).
		Preload("Categories.ScoringCategory").
		Preload("Categories.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("submission_options.id")
		}).
		Preload("Categories.Options.ScoringOption").
		Preload("Categories.Options.Comments")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByScope(ctx context.Context, evaluationID uint, moveNumber int, teamID, userID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("evaluation_id = ?", evaluationID).
		Where("move_number = ?", moveNumber).
		Where("team_id = ?", teamID).
		Where("user_id = ?", userID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.EvaluationID != nil {
		query = query.Where("evaluation_id = ?", *filter.EvaluationID)
	}

	if filter.MoveNumber != nil {
		query = query.Where("move_number = ?", *filter.MoveNumber)
	}

	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}

	if len(filter.TeamIDs) > 0 {
		query = query.Where("team_id IN ?", filter.TeamIDs)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.PersonalOnly {
		query = query.Where("user_id <> 0")
	}

	if filter.TeamScopeOnly {
		query = query.Where("team_id <> 0").Where("user_id = 0")
	}

	var submissions []models.Submission
	if err := query.Order("move_number, team_id, user_id").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// SaveTree persists the selection and score state of an already-loaded
// aggregate in one transaction: option selections, category scores, and the
// submission total either all land or none do. With dropComments set, every
// comment attached to the submission's options is removed as well.
func (r *submissionRepository) SaveTree(ctx context.Context, submission *models.Submission, dropComments bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		optionIDs := make([]uint, 0)
		for _, category := range submission.Categories {
			for _, option := range category.Options {
				optionIDs = append(optionIDs, option.ID)
			}
		}

		if dropComments && len(optionIDs) > 0 {
			if err := tx.Where("submission_option_id IN ?", optionIDs).
				Delete(&models.SubmissionComment{}).Error; err != nil {
				return err
			}
		}

		for _, category := range submission.Categories {
			for _, option := range category.Options {
				if err := tx.Model(&models.SubmissionOption{}).
					Where("id = ?", option.ID).
					Update("is_selected", option.IsSelected).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&models.SubmissionCategory{}).
				Where("id = ?", category.ID).
				Update("score", category.Score).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Update("score", submission.Score).Error
	})
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *submissionRepository) GetCategory(ctx context.Context, id uint) (models.SubmissionCategory, error) {
	var category models.SubmissionCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return models.SubmissionCategory{}, err
	}

	return category, nil
}

func (r *submissionRepository) GetOption(ctx context.Context, id uint) (models.SubmissionOption, error) {
	var option models.SubmissionOption
	if err := r.db.WithContext(ctx).
		Preload("ScoringOption").
		Preload("Comments").
		First(&option, id).Error; err != nil {
		return models.SubmissionOption{}, err
	}

	return option, nil
}

func (r *submissionRepository) CreateComment(ctx context.Context, comment *models.SubmissionComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *submissionRepository) GetComment(ctx context.Context, id uint) (models.SubmissionComment, error) {
	var comment models.SubmissionComment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return models.SubmissionComment{}, err
	}

	return comment, nil
}

func (r *submissionRepository) UpdateComment(ctx context.Context, comment *models.SubmissionComment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *submissionRepository) DeleteComment(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.SubmissionComment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
