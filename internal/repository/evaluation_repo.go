package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/models"
)

// EvaluationRepository exposes the read surface of the exercise entities the
// engine depends on, plus the single write it owns: the current move number.
type EvaluationRepository interface {
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	ListTeams(ctx context.Context, evaluationID uint) ([]models.Team, error)
	GetTeam(ctx context.Context, id uint) (models.Team, error)
	TeamsOfType(ctx context.Context, evaluationID, teamTypeID uint) ([]models.Team, error)
	IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error)
	UpdateCurrentMove(ctx context.Context, id uint, moveNumber int) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).
		Preload("Teams", func(db *gorm.DB) *gorm.DB {
			return db.Order("teams.id")
		}).
		Preload("Teams.TeamType").
		First(&evaluation, id).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) ListTeams(ctx context.Context, evaluationID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("TeamType").
		Where("evaluation_id = ?", evaluationID).
		Order("id").
		Find(&teams).Error; err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *evaluationRepository) GetTeam(ctx context.Context, id uint) (models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).
		Preload("TeamType").
		First(&team, id).Error; err != nil {
		return models.Team{}, err
	}

	return team, nil
}

func (r *evaluationRepository) TeamsOfType(ctx context.Context, evaluationID, teamTypeID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("TeamType").
		Where("evaluation_id = ?", evaluationID).
		Where("team_type_id = ?", teamTypeID).
		Order("id").
		Find(&teams).Error; err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *evaluationRepository) IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TeamMembership{}).
		Where("team_id = ?", teamID).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *evaluationRepository) UpdateCurrentMove(ctx context.Context, id uint, moveNumber int) error {
	result := r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Where("id = ?", id).
		Update("current_move_number", moveNumber)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
