package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/observability"
	"github.com/noah-isme/exeval-api/internal/repository"
)

// ErrTeamNotFound indicates an unknown team id.
var ErrTeamNotFound = errors.New("team not found")

// AverageService computes read-only averaged submissions. The results are
// synthesized on demand and never persisted; the caller can tell them apart
// from stored submissions by the score_is_an_average flag and the zero id.
type AverageService interface {
	// TeamAverage averages the personal submissions of a team's members for
	// one move. found is false when no member has a submission there.
	TeamAverage(ctx context.Context, teamID uint, moveNumber int) (dto.SubmissionResponse, bool, error)
	// TeamTypeAverage averages the team-scope submissions of every team of
	// the given type for one move. found is false when the team type does
	// not expose an average or no team has a submission there.
	TeamTypeAverage(ctx context.Context, evaluationID, teamTypeID uint, moveNumber int) (dto.SubmissionResponse, bool, error)
}

type averageService struct {
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewAverageService constructs an AverageService. cache may be nil, in which
// case every call computes from the database.
func NewAverageService(
	submissions repository.SubmissionRepository,
	evaluations repository.EvaluationRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) AverageService {
	return &averageService{
		submissions: submissions,
		evaluations: evaluations,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "average_service").Logger(),
	}
}

// cachedAverage is the cache entry shape. The found flag is cached too so
// that empty scopes do not hit the database on every request.
type cachedAverage struct {
	Found    bool                   `json:"found"`
	Response dto.SubmissionResponse `json:"response"`
}

func (s *averageService) TeamAverage(ctx context.Context, teamID uint, moveNumber int) (dto.SubmissionResponse, bool, error) {
	key := fmt.Sprintf("avg:team:%d:%d", teamID, moveNumber)
	if response, found, ok := s.fromCache(ctx, key); ok {
		return response, found, nil
	}

	team, err := s.evaluations.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, false, ErrTeamNotFound
		}
		return dto.SubmissionResponse{}, false, err
	}

	contributors, err := s.submissions.List(ctx, repository.SubmissionFilter{
		EvaluationID: &team.EvaluationID,
		MoveNumber:   &moveNumber,
		TeamID:       &teamID,
		PersonalOnly: true,
	})
	if err != nil {
		return dto.SubmissionResponse{}, false, err
	}

	average, found := averageSubmissions(contributors, team.ID, team.TeamTypeID)
	s.toCache(ctx, key, average, found)
	return average, found, nil
}

func (s *averageService) TeamTypeAverage(ctx context.Context, evaluationID, teamTypeID uint, moveNumber int) (dto.SubmissionResponse, bool, error) {
	key := fmt.Sprintf("avg:type:%d:%d:%d", evaluationID, teamTypeID, moveNumber)
	if response, found, ok := s.fromCache(ctx, key); ok {
		return response, found, nil
	}

	teams, err := s.evaluations.TeamsOfType(ctx, evaluationID, teamTypeID)
	if err != nil {
		return dto.SubmissionResponse{}, false, err
	}
	if len(teams) == 0 {
		return dto.SubmissionResponse{}, false, nil
	}

	// The type has to both contribute to the official picture and opt in
	// to exposing an aggregate, otherwise there is nothing to show.
	teamType := teams[0].TeamType
	if !teamType.ShowTeamTypeAverage || !teamType.IsOfficialScoreContributor {
		return dto.SubmissionResponse{}, false, nil
	}

	teamIDs := make([]uint, 0, len(teams))
	for _, team := range teams {
		teamIDs = append(teamIDs, team.ID)
	}

	contributors, err := s.submissions.List(ctx, repository.SubmissionFilter{
		EvaluationID:  &evaluationID,
		MoveNumber:    &moveNumber,
		TeamIDs:       teamIDs,
		TeamScopeOnly: true,
	})
	if err != nil {
		return dto.SubmissionResponse{}, false, err
	}

	average, found := averageSubmissions(contributors, 0, teamTypeID)
	s.toCache(ctx, key, average, found)
	return average, found, nil
}

// averageSubmissions folds contributing submissions into one synthetic
// aggregate marked with the team and team-type it was derived for. The
// overall score is the mean of the non-zero contributor totals only; a
// contributor sitting at exactly 0.0 is treated as not yet scored and
// skipped. Category scores average across all contributors, and each option
// carries the count of contributors that selected it.
func averageSubmissions(contributors []models.Submission, teamID, groupID uint) (dto.SubmissionResponse, bool) {
	if len(contributors) == 0 {
		return dto.SubmissionResponse{}, false
	}

	skeleton := dto.NewSubmissionResponse(contributors[0])
	skeleton.ID = 0
	skeleton.TeamID = nil
	if teamID != 0 {
		skeleton.TeamID = &teamID
	}
	skeleton.UserID = nil
	skeleton.GroupID = nil
	if groupID != 0 {
		skeleton.GroupID = &groupID
	}
	skeleton.Status = models.SubmissionStatusActive
	skeleton.ScoreIsAnAverage = true

	categoryTotals := make(map[uint]float64, len(skeleton.Categories))
	optionCounts := make(map[uint]int)

	var scoreSum float64
	var scoreCount int
	for _, contributor := range contributors {
		if contributor.Score != 0 {
			scoreSum += contributor.Score
			scoreCount++
		}
		for _, category := range contributor.Categories {
			categoryTotals[category.ScoringCategoryID] += category.Score
			for _, option := range category.Options {
				if option.IsSelected {
					optionCounts[option.ScoringOptionID]++
				}
			}
		}
	}

	skeleton.Score = 0
	if scoreCount > 0 {
		skeleton.Score = scoreSum / float64(scoreCount)
	}

	for i := range skeleton.Categories {
		category := &skeleton.Categories[i]
		category.ID = 0
		category.Score = categoryTotals[category.ScoringCategoryID] / float64(len(contributors))
		for j := range category.Options {
			option := &category.Options[j]
			option.ID = 0
			option.SelectedCount = optionCounts[option.ScoringOptionID]
			option.IsSelected = false
			option.Comments = nil
		}
	}

	return skeleton, true
}

func (s *averageService) fromCache(ctx context.Context, key string) (dto.SubmissionResponse, bool, bool) {
	if s.cache == nil {
		return dto.SubmissionResponse{}, false, false
	}

	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.AverageCacheRequests().WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("average cache read failed")
		} else {
			observability.AverageCacheRequests().WithLabelValues("miss").Inc()
		}
		return dto.SubmissionResponse{}, false, false
	}

	var entry cachedAverage
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		observability.AverageCacheRequests().WithLabelValues("error").Inc()
		return dto.SubmissionResponse{}, false, false
	}

	observability.AverageCacheRequests().WithLabelValues("hit").Inc()
	return entry.Response, entry.Found, true
}

func (s *averageService) toCache(ctx context.Context, key string, response dto.SubmissionResponse, found bool) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(cachedAverage{Found: found, Response: response})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("average cache write failed")
	}
}
