package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/palmgate/palmgate/internal/analytics"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/repository"
)

// ErrInvalidAttendanceType is returned for unknown attendance record types.
var ErrInvalidAttendanceType = errors.New("invalid attendance type")

// AttendanceService handles palm-verified attendance events.
type AttendanceService struct {
	verifier *PalmVerifier
	repo     *repository.Repository
	metrics  metrics.Recorder
	events   *analytics.Publisher
}

// NewAttendanceService creates a new AttendanceService. The publisher may be
// nil, in which case no activity events are emitted.
func NewAttendanceService(verifier *PalmVerifier, repo *repository.Repository, recorder metrics.Recorder, events *analytics.Publisher) *AttendanceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AttendanceService{
		verifier: verifier,
		repo:     repo,
		metrics:  recorder,
		events:   events,
	}
}

// RecordInput defines input for recording an attendance event.
type RecordInput struct {
	PalmScanID string
	Type       string
	Location   string
}

// RecordOutput carries the stored record plus the profile for the
// terminal's greeting display.
type RecordOutput struct {
	Record  *model.AttendanceRecord
	Profile *model.Profile
}

// Record resolves the palm scan and stores an attendance event.
func (s *AttendanceService) Record(ctx context.Context, input RecordInput) (*RecordOutput, error) {
	if !model.IsValidAttendanceType(input.Type) {
		return nil, ErrInvalidAttendanceType
	}

	profile, err := s.verifier.Resolve(ctx, input.PalmScanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &model.AttendanceRecord{
		ID:        ulid.Make().String(),
		UserID:    profile.UserID,
		Type:      input.Type,
		Location:  input.Location,
		Timestamp: now,
		CreatedAt: now,
	}

	if err := s.repo.CreateAttendanceRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record attendance: %w", err)
	}

	s.metrics.IncAttendance(input.Type)
	if s.events != nil {
		s.events.PublishAsync(analytics.AttendanceEvent(profile.UserID, input.Type, input.Location))
	}

	return &RecordOutput{Record: record, Profile: profile}, nil
}
