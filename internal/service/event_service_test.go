package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
)

func TestEventServicePersistsAndLists(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	ctx := context.Background()

	svc := NewEventService(repository.NewEventLogRepository(db), nil, nil, "exeval.events", zerolog.Nop())

	submissionID := uint(42)
	svc.Emit(ctx, Event{
		EvaluationID: fixture.evaluation.ID,
		SubmissionID: &submissionID,
		ActorID:      7,
		Action:       models.EventOptionSet,
		Metadata:     map[string]interface{}{"option_id": 3, "selected": true},
	})
	svc.Emit(ctx, Event{
		EvaluationID: fixture.evaluation.ID,
		ActorID:      1,
		Action:       models.EventMoveAdvanced,
		Metadata:     map[string]interface{}{"move_number": 1},
	})

	all, err := svc.List(ctx, repository.EventLogFilter{EvaluationID: &fixture.evaluation.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)

	toggles, err := svc.List(ctx, repository.EventLogFilter{
		EvaluationID: &fixture.evaluation.ID,
		Action:       models.EventOptionSet,
	})
	require.NoError(t, err)
	require.Len(t, toggles, 1)
	require.Equal(t, uint(7), toggles[0].ActorID)
	require.NotNil(t, toggles[0].SubmissionID)
	require.Equal(t, submissionID, *toggles[0].SubmissionID)
	require.Equal(t, true, toggles[0].Metadata["selected"])
}
