package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
)

// ErrForbidden indicates the caller may not perform the operation.
var ErrForbidden = errors.New("operation not permitted")

// Actor identifies the authenticated caller of an engine operation.
type Actor struct {
	ID   uint
	Role string
}

// Roles recognised by the engine's access checks.
const (
	RoleAdmin            = "admin"
	RoleFacilitator      = "facilitator"
	RoleContentDeveloper = "content_developer"
	RoleParticipant      = "participant"
)

// Authorizer is the access-decision collaborator consulted before every
// mutating operation. Implementations must fail closed: any doubt or lookup
// failure denies the call.
type Authorizer interface {
	CanMutateSubmission(ctx context.Context, actor Actor, submission models.Submission) error
	CanIncrementMove(ctx context.Context, actor Actor, evaluationID uint) error
	CanManageModels(ctx context.Context, actor Actor) error
}

type membershipAuthorizer struct {
	evaluations repository.EvaluationRepository
	logger      zerolog.Logger
}

// NewAuthorizer builds the default membership-based authorizer: users may
// mutate their own personal submissions, team members their team's
// submission, and facilitators/admins everything including the official
// submission and the move counter.
func NewAuthorizer(evaluations repository.EvaluationRepository, logger zerolog.Logger) Authorizer {
	return &membershipAuthorizer{
		evaluations: evaluations,
		logger:      logger.With().Str("component", "authorizer").Logger(),
	}
}

func (a *membershipAuthorizer) CanMutateSubmission(ctx context.Context, actor Actor, submission models.Submission) error {
	if actor.ID == 0 {
		return ErrForbidden
	}

	if actor.Role == RoleAdmin || actor.Role == RoleFacilitator {
		return nil
	}

	switch {
	case submission.IsUserScope():
		if submission.UserID == actor.ID {
			return nil
		}
	case submission.IsTeamScope():
		member, err := a.evaluations.IsTeamMember(ctx, submission.TeamID, actor.ID)
		if err != nil {
			a.logger.Error().Err(err).Uint("team_id", submission.TeamID).Msg("membership lookup failed, denying")
			return ErrForbidden
		}
		if member {
			return nil
		}
	}

	return ErrForbidden
}

func (a *membershipAuthorizer) CanIncrementMove(_ context.Context, actor Actor, _ uint) error {
	if actor.Role == RoleAdmin || actor.Role == RoleFacilitator {
		return nil
	}
	return ErrForbidden
}

func (a *membershipAuthorizer) CanManageModels(_ context.Context, actor Actor) error {
	if actor.Role == RoleAdmin || actor.Role == RoleContentDeveloper {
		return nil
	}
	return ErrForbidden
}
