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

// ErrUnknownArea is returned when a terminal asks about an area that is not
// under access control.
var ErrUnknownArea = errors.New("unknown area")

// deniedReason is recorded on denied access decisions.
const deniedReason = "role does not grant access to this area"

// AccessService handles palm-verified access control at door terminals.
type AccessService struct {
	verifier *PalmVerifier
	repo     *repository.Repository
	metrics  metrics.Recorder
	events   *analytics.Publisher
}

// NewAccessService creates a new AccessService. The publisher may be nil,
// in which case no activity events are emitted.
func NewAccessService(verifier *PalmVerifier, repo *repository.Repository, recorder metrics.Recorder, events *analytics.Publisher) *AccessService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccessService{
		verifier: verifier,
		repo:     repo,
		metrics:  recorder,
		events:   events,
	}
}

// CheckInput defines input for an access check.
type CheckInput struct {
	PalmScanID string
	Area       string
}

// Decision is the outcome of an access check. Every decision, granted or
// denied, is written to the audit log.
type Decision struct {
	Granted bool
	Reason  string
	Profile *model.Profile
	Log     *model.AccessLog
}

// Check resolves the palm scan and decides whether any of the user's roles
// grants entry to the area. Users without explicit role assignments get the
// baseline "user" role.
func (s *AccessService) Check(ctx context.Context, input CheckInput) (*Decision, error) {
	if !model.IsKnownArea(input.Area) {
		return nil, ErrUnknownArea
	}

	profile, err := s.verifier.Resolve(ctx, input.PalmScanID)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.GetRolesByUserID(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}

	granted := model.AnyRoleGrantsArea(roles, input.Area)

	action := model.AccessDenied
	reason := deniedReason
	if granted {
		action = model.AccessGranted
		reason = ""
	}

	now := time.Now().UTC()
	log := &model.AccessLog{
		ID:        ulid.Make().String(),
		UserID:    profile.UserID,
		Area:      input.Area,
		Action:    action,
		Reason:    reason,
		Timestamp: now,
		CreatedAt: now,
	}

	if err := s.repo.CreateAccessLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to record access decision: %w", err)
	}

	s.metrics.IncAccessDecision(action)
	if s.events != nil {
		s.events.PublishAsync(analytics.AccessEvent(profile.UserID, action, input.Area))
	}

	return &Decision{
		Granted: granted,
		Reason:  reason,
		Profile: profile,
		Log:     log,
	}, nil
}
