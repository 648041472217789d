package match

import (
	"context"
	"errors"
	"log/slog"

	"lifeline/internal/audit"
	"lifeline/internal/compat"
	"lifeline/internal/donor"
	"lifeline/internal/eligibility"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/request"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

// CacheInvalidator drops cached donor searches for a request when its match
// set changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, requestID domain.RequestID)
}

// Service orchestrates the match lifecycle: creation, status transitions
// with their side effects, and deletion. It is the only writer of match
// records.
type Service struct {
	matches  Store
	donors   donor.Store
	requests request.Store

	audit   audit.Publisher
	metrics *metrics.Metrics
	cache   CacheInvalidator
	logger  *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithAudit(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(matches Store, donors donor.Store, requests request.Store, opts ...Option) *Service {
	s := &Service{
		matches:  matches,
		donors:   donors,
		requests: requests,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the donor against the request and persists a PENDING
// match. The duplicate-active-match guard lives in the store so it holds
// under concurrent creates.
func (s *Service) Create(ctx context.Context, donorID domain.DonorID, requestID domain.RequestID, notes string) (*Match, error) {
	now := requestcontext.Now(ctx)

	d, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		return nil, translateNotFound(err, "donor not found")
	}
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "blood request not found")
	}

	if !r.IsOpen() {
		return nil, dErrors.New(dErrors.CodeConflict, "blood request is no longer open")
	}
	if !compat.IsCompatible(d.BloodType, r.BloodType) {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			"donor blood type "+d.BloodType.String()+" cannot supply "+r.BloodType.String())
	}
	if !d.IsAvailable {
		return nil, dErrors.New(dErrors.CodeConflict, "donor is not available")
	}
	if !d.IsVerified {
		return nil, dErrors.New(dErrors.CodeConflict, "donor is not verified")
	}
	if elig := eligibility.Compute(d.LastDonation, d.Gender, now); !elig.CanDonate {
		return nil, dErrors.New(dErrors.CodeConflict, "donor is not eligible to donate yet")
	}

	m := NewMatch(donorID, requestID, notes, requestcontext.UserID(ctx), now)
	if err := s.matches.Create(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "donor already has an active match for this request")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create match")
	}

	s.metrics.IncMatchCreated()
	if s.cache != nil {
		s.cache.Invalidate(ctx, requestID)
	}
	s.emit(ctx, audit.Event{
		Type:      audit.EventMatchCreated,
		MatchID:   m.ID.String(),
		DonorID:   donorID.String(),
		RequestID: requestID.String(),
		ToStatus:  m.Status.String(),
		ActorID:   requestcontext.UserID(ctx).String(),
		Timestamp: now,
	})
	return m, nil
}

// Transition moves a match along one edge of the status graph. Entering
// COMPLETED triggers the donor stat update and the request completion
// cascade.
func (s *Service) Transition(ctx context.Context, matchID domain.MatchID, newStatus Status, notes string) (*Match, error) {
	now := requestcontext.Now(ctx)

	var previous Status
	m, err := s.matches.Execute(ctx, matchID,
		func(m *Match) error {
			previous = m.Status
			return m.CanTransitionTo(newStatus)
		},
		func(m *Match) {
			m.ApplyTransition(newStatus, notes, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "match not found")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "match was modified concurrently")
		}
		return nil, err
	}

	s.metrics.IncMatchTransition(previous.String(), newStatus.String())
	s.emit(ctx, audit.Event{
		Type:       audit.EventMatchStatusChanged,
		MatchID:    m.ID.String(),
		DonorID:    m.DonorID.String(),
		RequestID:  m.RequestID.String(),
		FromStatus: previous.String(),
		ToStatus:   newStatus.String(),
		ActorID:    requestcontext.UserID(ctx).String(),
		Timestamp:  now,
	})

	if newStatus == StatusCompleted {
		if err := s.completeMatch(ctx, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// completeMatch applies the COMPLETED side effects: donation stats on the
// donor, then the request fulfillment check.
func (s *Service) completeMatch(ctx context.Context, m *Match) error {
	now := requestcontext.Now(ctx)

	if _, err := s.donors.ApplyDonationStats(ctx, m.DonorID, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donor stats")
	}

	completed, err := s.matches.CountByRequestWithStatus(ctx, m.RequestID, []Status{StatusCompleted})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count completed matches")
	}
	r, err := s.requests.FindByID(ctx, m.RequestID)
	if err != nil {
		return translateNotFound(err, "blood request not found")
	}
	if completed < r.UnitsRequired || r.Status == request.StatusCompleted {
		return nil
	}

	if _, err := s.requests.MarkCompleted(ctx, m.RequestID, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete request")
	}
	s.metrics.IncRequestCompleted()
	s.emit(ctx, audit.Event{
		Type:      audit.EventRequestCompleted,
		RequestID: m.RequestID.String(),
		Timestamp: now,
	})
	s.logger.InfoContext(ctx, "blood request fulfilled",
		"request_id", m.RequestID.String(),
		"units_required", r.UnitsRequired,
	)
	return nil
}

// Delete removes a match that never progressed (PENDING) or was called off
// (CANCELLED).
func (s *Service) Delete(ctx context.Context, matchID domain.MatchID) error {
	var deleted Match
	err := s.matches.Delete(ctx, matchID, func(m *Match) error {
		deleted = *m
		return m.CanDelete()
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "match not found")
		}
		return err
	}

	s.metrics.IncMatchDeleted()
	if s.cache != nil {
		s.cache.Invalidate(ctx, deleted.RequestID)
	}
	s.emit(ctx, audit.Event{
		Type:      audit.EventMatchDeleted,
		MatchID:   matchID.String(),
		DonorID:   deleted.DonorID.String(),
		RequestID: deleted.RequestID.String(),
		ActorID:   requestcontext.UserID(ctx).String(),
		Timestamp: requestcontext.Now(ctx),
	})
	return nil
}

// Get returns a single match.
func (s *Service) Get(ctx context.Context, matchID domain.MatchID) (*Match, error) {
	m, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, translateNotFound(err, "match not found")
	}
	return m, nil
}

// ListByRequest returns every match for a request, oldest first.
func (s *Service) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*Match, error) {
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		return nil, translateNotFound(err, "blood request not found")
	}
	return s.matches.ListByRequest(ctx, requestID)
}

// ActiveDonorIDs exposes the exclusion set for donor searches.
func (s *Service) ActiveDonorIDs(ctx context.Context, requestID domain.RequestID) ([]domain.DonorID, error) {
	return s.matches.ActiveDonorIDs(ctx, requestID)
}

// emit sends an audit event; failures are logged and never fail the
// mutation that triggered them.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"type", string(event.Type), "error", err)
	}
}

func translateNotFound(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
