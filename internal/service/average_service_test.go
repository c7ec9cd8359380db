package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
)

func newAverageStack(t *testing.T, db *gorm.DB, cache *redis.Client) AverageService {
	t.Helper()

	submissions := repository.NewSubmissionRepository(db)
	evaluations := repository.NewEvaluationRepository(db)
	return NewAverageService(submissions, evaluations, cache, time.Minute, zerolog.Nop())
}

func setSubmissionScore(t *testing.T, db *gorm.DB, id uint, score float64) {
	t.Helper()
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", id).Update("score", score).Error)
}

func setCategoryScore(t *testing.T, db *gorm.DB, submission models.Submission, categoryName string, score float64) {
	t.Helper()
	for _, category := range submission.Categories {
		if category.ScoringCategory.Name == categoryName {
			require.NoError(t, db.Model(&models.SubmissionCategory{}).
				Where("id = ?", category.ID).
				Update("score", score).Error)
			return
		}
	}
	t.Fatalf("category %q not found in submission %d", categoryName, submission.ID)
}

func selectOption(t *testing.T, db *gorm.DB, submission models.Submission, description string) {
	t.Helper()
	require.NoError(t, db.Model(&models.SubmissionOption{}).
		Where("id = ?", findOptionID(t, submission, description)).
		Update("is_selected", true).Error)
}

func TestTeamAverageExcludesZeroTotals(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	lifecycle := fixture.lifecycle(t)
	ctx := context.Background()

	// Three members on Team Alpha with totals 0, 4, and 6.
	team := fixture.teams[0]
	for _, userID := range []uint{110, 111} {
		require.NoError(t, db.Create(&models.TeamMembership{TeamID: team.ID, UserID: userID}).Error)
	}

	members := []uint{100, 110, 111}
	scores := []float64{0, 4, 6}
	findings := []float64{0, 2, 3}
	var personal []models.Submission
	for i, userID := range members {
		submission, err := lifecycle.GetOrCreate(ctx, SubmissionSpec{
			EvaluationID: fixture.evaluation.ID,
			MoveNumber:   0,
			TeamID:       team.ID,
			UserID:       userID,
		})
		require.NoError(t, err)
		setSubmissionScore(t, db, submission.ID, scores[i])
		setCategoryScore(t, db, submission, "Findings", findings[i])
		personal = append(personal, submission)
	}
	selectOption(t, db, personal[1], "Minor finding")
	selectOption(t, db, personal[2], "Minor finding")

	svc := newAverageStack(t, db, nil)

	average, found, err := svc.TeamAverage(ctx, team.ID, 0)
	require.NoError(t, err)
	require.True(t, found)

	// The zero total is left out of the overall mean, but its category
	// contribution still counts.
	require.InDelta(t, 5.0, average.Score, 1e-9)
	require.True(t, average.ScoreIsAnAverage)
	require.Zero(t, average.ID)
	require.NotNil(t, average.TeamID)
	require.Equal(t, team.ID, *average.TeamID)
	require.NotNil(t, average.GroupID)
	require.Equal(t, fixture.teamType.ID, *average.GroupID)
	require.Nil(t, average.UserID)

	for _, category := range average.Categories {
		if category.Name != "Findings" {
			continue
		}
		require.InDelta(t, 5.0/3.0, category.Score, 1e-9)
		for _, option := range category.Options {
			if option.Description == "Minor finding" {
				require.Equal(t, 2, option.SelectedCount)
			}
		}
	}

	// No personal submissions on Team Bravo yet.
	_, found, err = svc.TeamAverage(ctx, fixture.teams[1].ID, 0)
	require.NoError(t, err)
	require.False(t, found)

	_, _, err = svc.TeamAverage(ctx, 9999, 0)
	require.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTeamAverageCacheAside(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := newTestDB(t)
	fixture := seedFixture(t, db)
	lifecycle := fixture.lifecycle(t)
	ctx := context.Background()

	team := fixture.teams[0]
	submission, err := lifecycle.GetOrCreate(ctx, SubmissionSpec{
		EvaluationID: fixture.evaluation.ID,
		MoveNumber:   0,
		TeamID:       team.ID,
		UserID:       100,
	})
	require.NoError(t, err)
	setSubmissionScore(t, db, submission.ID, 4)

	svc := newAverageStack(t, db, redisClient)

	first, found, err := svc.TeamAverage(ctx, team.ID, 0)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 4.0, first.Score, 1e-9)

	// The database moves on but the cached entry is served until it ages
	// out.
	setSubmissionScore(t, db, submission.ID, 9)
	second, found, err := svc.TeamAverage(ctx, team.ID, 0)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 4.0, second.Score, 1e-9)

	mini.FlushAll()
	third, found, err := svc.TeamAverage(ctx, team.ID, 0)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 9.0, third.Score, 1e-9)
}

func TestTeamTypeAverage(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	lifecycle := fixture.lifecycle(t)
	ctx := context.Background()

	// One team-scope submission per team of the type.
	scores := []float64{4, 6}
	for i, team := range fixture.teams {
		submission, err := lifecycle.GetOrCreate(ctx, SubmissionSpec{
			EvaluationID: fixture.evaluation.ID,
			MoveNumber:   0,
			TeamID:       team.ID,
		})
		require.NoError(t, err)
		setSubmissionScore(t, db, submission.ID, scores[i])
	}

	svc := newAverageStack(t, db, nil)

	average, found, err := svc.TeamTypeAverage(ctx, fixture.evaluation.ID, fixture.teamType.ID, 0)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 5.0, average.Score, 1e-9)
	require.True(t, average.ScoreIsAnAverage)
	require.NotNil(t, average.GroupID)
	require.Equal(t, fixture.teamType.ID, *average.GroupID)
	require.Nil(t, average.TeamID)

	// A type that does not expose an average yields nothing.
	hidden := models.TeamType{Name: "Observers", IsOfficialScoreContributor: false, ShowTeamTypeAverage: false}
	require.NoError(t, db.Create(&hidden).Error)
	observerTeam := models.Team{EvaluationID: fixture.evaluation.ID, TeamTypeID: hidden.ID, Name: "Watchers"}
	require.NoError(t, db.Create(&observerTeam).Error)
	submission, err := lifecycle.GetOrCreate(ctx, SubmissionSpec{
		EvaluationID: fixture.evaluation.ID,
		MoveNumber:   0,
		TeamID:       observerTeam.ID,
	})
	require.NoError(t, err)
	setSubmissionScore(t, db, submission.ID, 7)

	_, found, err = svc.TeamTypeAverage(ctx, fixture.evaluation.ID, hidden.ID, 0)
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = svc.TeamTypeAverage(ctx, fixture.evaluation.ID, 9999, 0)
	require.NoError(t, err)
	require.False(t, found)
}
