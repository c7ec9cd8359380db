package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/models"
)

// EventLogFilter narrows event log queries.
type EventLogFilter struct {
	EvaluationID *uint
	Action       string
	Limit        int
	Offset       int
}

// EventLogRepository defines data operations for the engine event log.
type EventLogRepository interface {
	Create(ctx context.Context, entry *models.EventLog) error
	List(ctx context.Context, filter EventLogFilter) ([]models.EventLog, error)
}

type eventLogRepository struct {
	db *gorm.DB
}

// NewEventLogRepository instantiates the repository.
func NewEventLogRepository(db *gorm.DB) EventLogRepository {
	return &eventLogRepository{db: db}
}

func (r *eventLogRepository) Create(ctx context.Context, entry *models.EventLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *eventLogRepository) List(ctx context.Context, filter EventLogFilter) ([]models.EventLog, error) {
	query := r.db.WithContext(ctx).Model(&models.EventLog{})

	if filter.EvaluationID != nil {
		query = query.Where("evaluation_id = ?", *filter.EvaluationID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var entries []models.EventLog
	if err := query.Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
