package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/models"
)

// ScoringModelRepository defines data operations for rubric trees.
type ScoringModelRepository interface {
	Create(ctx context.Context, model *models.ScoringModel) error
	GetByID(ctx context.Context, id uint) (models.ScoringModel, error)
	List(ctx context.Context) ([]models.ScoringModel, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type scoringModelRepository struct {
	db *gorm.DB
}

// NewScoringModelRepository instantiates the repository.
func NewScoringModelRepository(db *gorm.DB) ScoringModelRepository {
	return &scoringModelRepository{db: db}
}

func (r *scoringModelRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ScoringModel{}).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("scoring_categories.display_order, scoring_categories.id")
		}).
		Preload("Categories.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("scoring_options.display_order, scoring_options.id")
		})
}

func (r *scoringModelRepository) Create(ctx context.Context, model *models.ScoringModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *scoringModelRepository) GetByID(ctx context.Context, id uint) (models.ScoringModel, error) {
	var model models.ScoringModel
	if err := r.baseQuery(ctx).First(&model, id).Error; err != nil {
		return models.ScoringModel{}, err
	}

	return model, nil
}

func (r *scoringModelRepository) List(ctx context.Context) ([]models.ScoringModel, error) {
	var list []models.ScoringModel
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}

	return list, nil
}

func (r *scoringModelRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.ScoringModel{}).
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
