// Package analytics provides activity event capture and processing.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"

	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
)

const (
	// StreamKey is the Redis stream for activity events.
	StreamKey = "stream:activity_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:activity_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// ActivityEventPayload is the compressed event format for the Redis stream.
type ActivityEventPayload struct {
	Kind       string  `json:"k"`           // payment | attendance | access
	UserID     string  `json:"u"`           // user_id
	Status     string  `json:"s"`           // outcome: completed, check-in, granted, ...
	Amount     float64 `json:"a,omitempty"` // charge amount, payments only
	Currency   string  `json:"c,omitempty"` // currency code, payments only
	Location   string  `json:"l,omitempty"` // merchant, attendance location, or area
	OccurredAt int64   `json:"t"`           // Unix milliseconds
}

// PaymentEvent builds a payload for a charge attempt.
func PaymentEvent(userID, status string, amount float64, currency, merchant string) ActivityEventPayload {
	return ActivityEventPayload{
		Kind:       model.ActivityKindPayment,
		UserID:     userID,
		Status:     status,
		Amount:     amount,
		Currency:   currency,
		Location:   TruncateLocation(merchant),
		OccurredAt: time.Now().UnixMilli(),
	}
}

// AttendanceEvent builds a payload for an attendance record.
func AttendanceEvent(userID, recordType, location string) ActivityEventPayload {
	return ActivityEventPayload{
		Kind:       model.ActivityKindAttendance,
		UserID:     userID,
		Status:     recordType,
		Location:   TruncateLocation(location),
		OccurredAt: time.Now().UnixMilli(),
	}
}

// AccessEvent builds a payload for an access-control decision.
func AccessEvent(userID, action, area string) ActivityEventPayload {
	return ActivityEventPayload{
		Kind:       model.ActivityKindAccess,
		UserID:     userID,
		Status:     action,
		Location:   TruncateLocation(area),
		OccurredAt: time.Now().UnixMilli(),
	}
}

// Publisher enqueues activity events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
	}
}

// Publish adds an activity event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event ActivityEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event ActivityEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish activity event",
				"kind", event.Kind,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("activity event published",
			"kind", event.Kind,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}

// TruncateLocation truncates free-text location metadata to at most 128
// bytes, backing off to a rune boundary so the payload stays valid UTF-8.
func TruncateLocation(location string) string {
	if len(location) <= maxEventMetaLength {
		return location
	}
	cut := maxEventMetaLength
	for cut > 0 && !utf8.RuneStart(location[cut]) {
		cut--
	}
	return location[:cut]
}
