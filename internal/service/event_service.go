package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/observability"
	"github.com/noah-isme/exeval-api/internal/repository"
)

// Event describes one notable engine occurrence.
type Event struct {
	EvaluationID uint                   `json:"evaluation_id"`
	SubmissionID *uint                  `json:"submission_id,omitempty"`
	ActorID      uint                   `json:"actor_id"`
	Action       string                 `json:"action"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventRecorder is the fire-and-forget telemetry sink. Emit never blocks the
// caller on broker availability and never returns an error.
type EventRecorder interface {
	Emit(ctx context.Context, event Event)
}

// EventService records engine events and exposes the persisted log.
type EventService interface {
	EventRecorder
	List(ctx context.Context, filter repository.EventLogFilter) ([]models.EventLog, error)
}

type eventEnvelope struct {
	Source string    `json:"source"`
	Event  Event     `json:"event"`
	SentAt time.Time `json:"sent_at"`
}

type eventService struct {
	repo    repository.EventLogRepository
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	nodeID  string
}

// NewEventService constructs the telemetry recorder. The redis and NATS
// connections are optional; a nil connection simply skips that sink.
func NewEventService(repo repository.EventLogRepository, redisClient *redis.Client, natsConn *nats.Conn, subject string, logger zerolog.Logger) EventService {
	channel := ""
	if subject != "" {
		channel = subject + ":log"
	}

	return &eventService{
		repo:    repo,
		redis:   redisClient,
		channel: channel,
		nats:    natsConn,
		subject: subject,
		logger:  logger.With().Str("component", "event_service").Logger(),
		nodeID:  uuid.NewString(),
	}
}

func (s *eventService) Emit(ctx context.Context, event Event) {
	if event.Action == "" {
		return
	}

	entry := models.EventLog{
		EvaluationID: event.EvaluationID,
		SubmissionID: event.SubmissionID,
		ActorID:      event.ActorID,
		Action:       event.Action,
		Metadata:     toJSONMap(event.Metadata),
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Str("action", event.Action).Msg("failed to persist engine event")
	}

	payload, err := json.Marshal(eventEnvelope{Source: s.nodeID, Event: event, SentAt: time.Now().UTC()})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal engine event")
		return
	}

	if s.redis != nil && s.channel != "" {
		if err := s.redis.Publish(ctx, s.channel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish engine event to redis")
		}
	}

	if s.nats != nil && s.subject != "" {
		if err := s.nats.Publish(s.subject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish engine event to nats")
		}
	}

	observability.EventsPublished().WithLabelValues(event.Action).Inc()
}

func (s *eventService) List(ctx context.Context, filter repository.EventLogFilter) ([]models.EventLog, error) {
	return s.repo.List(ctx, filter)
}

func toJSONMap(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	result := datatypes.JSONMap{}
	for key, value := range metadata {
		result[key] = value
	}
	return result
}
