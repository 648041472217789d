package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/internal/audit"
	"lifeline/internal/donor"
	"lifeline/internal/request"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	donors   *donor.MemoryStore
	requests *request.MemoryStore
	matches  *MemoryStore
	audit    *audit.MemoryPublisher
	service  *Service
	ctx      context.Context
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.donors = donor.NewMemoryStore()
	s.requests = request.NewMemoryStore()
	s.matches = NewMemoryStore()
	s.audit = audit.NewMemoryPublisher()
	s.service = NewService(s.matches, s.donors, s.requests, WithAudit(s.audit))
	s.now = time.Date(2026, time.May, 10, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) seedDonor(mutators ...func(*donor.Donor)) *donor.Donor {
	d := &donor.Donor{
		ID:               domain.NewDonorID(),
		BloodType:        domain.OPositive,
		Gender:           domain.GenderMale,
		Area:             "Dhaka - Gulshan",
		IsAvailable:      true,
		IsVerified:       true,
		DonationCount:    3,
		ReliabilityScore: 5.0,
	}
	for _, mutate := range mutators {
		mutate(d)
	}
	s.donors.Seed(d)
	return d
}

func (s *ServiceSuite) seedRequest(mutators ...func(*request.BloodRequest)) *request.BloodRequest {
	r := &request.BloodRequest{
		ID:            domain.NewRequestID(),
		BloodType:     domain.OPositive,
		Location:      "Dhaka",
		UrgencyLevel:  domain.UrgencyUrgent,
		UnitsRequired: 1,
		Status:        request.StatusOpen,
	}
	for _, mutate := range mutators {
		mutate(r)
	}
	s.requests.Seed(r)
	return r
}

func (s *ServiceSuite) TestCreate() {
	s.Run("eligible compatible donor yields pending match", func() {
		d := s.seedDonor()
		r := s.seedRequest()

		m, err := s.service.Create(s.ctx, d.ID, r.ID, "first call tonight")
		s.Require().NoError(err)
		s.Equal(StatusPending, m.Status)
		s.Equal(d.ID, m.DonorID)
		s.Equal(r.ID, m.RequestID)
		s.Equal("first call tonight", m.Notes)
		s.Equal(s.now, m.CreatedAt)

		events := s.audit.Events()
		s.Require().Len(events, 1)
		s.Equal(audit.EventMatchCreated, events[0].Type)
	})

	s.Run("never-donated donor is eligible", func() {
		d := s.seedDonor(func(d *donor.Donor) { d.LastDonation = nil })
		r := s.seedRequest()
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.NoError(err)
	})

	s.Run("unknown donor", func() {
		r := s.seedRequest()
		_, err := s.service.Create(s.ctx, domain.NewDonorID(), r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown request", func() {
		d := s.seedDonor()
		_, err := s.service.Create(s.ctx, d.ID, domain.NewRequestID(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("incompatible blood type", func() {
		d := s.seedDonor(func(d *donor.Donor) { d.BloodType = domain.ABPositive })
		r := s.seedRequest(func(r *request.BloodRequest) { r.BloodType = domain.OPositive })
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unavailable donor", func() {
		d := s.seedDonor(func(d *donor.Donor) { d.IsAvailable = false })
		r := s.seedRequest()
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unverified donor", func() {
		d := s.seedDonor(func(d *donor.Donor) { d.IsVerified = false })
		r := s.seedRequest()
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("donor inside the gap window", func() {
		recent := s.now.AddDate(0, 0, -30)
		d := s.seedDonor(func(d *donor.Donor) { d.LastDonation = &recent })
		r := s.seedRequest()
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("request no longer open", func() {
		d := s.seedDonor()
		r := s.seedRequest(func(r *request.BloodRequest) { r.Status = request.StatusCancelled })
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("duplicate active match conflicts", func() {
		d := s.seedDonor()
		r := s.seedRequest()
		_, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.Require().NoError(err)
		_, err = s.service.Create(s.ctx, d.ID, r.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("new match allowed after previous one was rejected", func() {
		d := s.seedDonor()
		r := s.seedRequest(func(r *request.BloodRequest) { r.UnitsRequired = 2 })
		m, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.Require().NoError(err)

		_, err = s.service.Transition(s.ctx, m.ID, StatusContacted, "")
		s.Require().NoError(err)
		_, err = s.service.Transition(s.ctx, m.ID, StatusRejected, "not reachable")
		s.Require().NoError(err)

		_, err = s.service.Create(s.ctx, d.ID, r.ID, "trying again next week")
		s.NoError(err)
	})
}

func (s *ServiceSuite) createMatch() (*donor.Donor, *request.BloodRequest, *Match) {
	d := s.seedDonor()
	r := s.seedRequest()
	m, err := s.service.Create(s.ctx, d.ID, r.ID, "")
	s.Require().NoError(err)
	return d, r, m
}

func (s *ServiceSuite) TestTransition() {
	s.Run("contacting stamps the contacted timestamp", func() {
		_, _, m := s.createMatch()
		later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))

		updated, err := s.service.Transition(later, m.ID, StatusContacted, "called at noon")
		s.Require().NoError(err)
		s.Equal(StatusContacted, updated.Status)
		s.Require().NotNil(updated.ContactedAt)
		s.Equal(s.now.Add(2*time.Hour), *updated.ContactedAt)
		s.Equal("called at noon", updated.Notes)
	})

	s.Run("skipping an edge is rejected", func() {
		_, _, m := s.createMatch()
		_, err := s.service.Transition(s.ctx, m.ID, StatusCompleted, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		// State unchanged after the rejection.
		got, err := s.service.Get(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(StatusPending, got.Status)
	})

	s.Run("terminal states accept nothing", func() {
		_, _, m := s.createMatch()
		_, err := s.service.Transition(s.ctx, m.ID, StatusCancelled, "")
		s.Require().NoError(err)
		for _, next := range []Status{StatusPending, StatusContacted, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled} {
			_, err := s.service.Transition(s.ctx, m.ID, next, "")
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "CANCELLED -> %s", next)
		}
	})

	s.Run("unknown match", func() {
		_, err := s.service.Transition(s.ctx, domain.NewMatchID(), StatusContacted, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) progressToCompleted(matchID domain.MatchID) {
	_, err := s.service.Transition(s.ctx, matchID, StatusContacted, "")
	s.Require().NoError(err)
	_, err = s.service.Transition(s.ctx, matchID, StatusAccepted, "")
	s.Require().NoError(err)
	_, err = s.service.Transition(s.ctx, matchID, StatusCompleted, "")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCompletionSideEffects() {
	s.Run("donor stats update on completion", func() {
		d, _, m := s.createMatch()
		s.progressToCompleted(m.ID)

		updated, err := s.donors.FindByID(s.ctx, d.ID)
		s.Require().NoError(err)
		s.Require().NotNil(updated.LastDonation)
		s.Equal(s.now, *updated.LastDonation)
		s.Equal(d.DonationCount+1, updated.DonationCount)
		s.InDelta(d.ReliabilityScore+donor.ReliabilityBumpPerDonation, updated.ReliabilityScore, 1e-9)
	})

	s.Run("one of two units leaves the request open", func() {
		r := s.seedRequest(func(r *request.BloodRequest) { r.UnitsRequired = 2 })
		d := s.seedDonor()
		m, err := s.service.Create(s.ctx, d.ID, r.ID, "")
		s.Require().NoError(err)
		s.progressToCompleted(m.ID)

		got, err := s.requests.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(request.StatusOpen, got.Status)
		s.Nil(got.CompletedAt)
	})

	s.Run("second completed unit completes the request", func() {
		r := s.seedRequest(func(r *request.BloodRequest) { r.UnitsRequired = 2 })
		d1 := s.seedDonor()
		d2 := s.seedDonor(func(d *donor.Donor) { d.BloodType = domain.ONegative })

		m1, err := s.service.Create(s.ctx, d1.ID, r.ID, "")
		s.Require().NoError(err)
		m2, err := s.service.Create(s.ctx, d2.ID, r.ID, "")
		s.Require().NoError(err)

		s.progressToCompleted(m1.ID)
		s.progressToCompleted(m2.ID)

		got, err := s.requests.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(request.StatusCompleted, got.Status)
		s.Require().NotNil(got.CompletedAt)
		s.Equal(s.now, *got.CompletedAt)

		var completedEvents int
		for _, e := range s.audit.Events() {
			if e.Type == audit.EventRequestCompleted {
				completedEvents++
			}
		}
		s.Equal(1, completedEvents)
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("pending match deletes", func() {
		_, _, m := s.createMatch()
		s.NoError(s.service.Delete(s.ctx, m.ID))
		_, err := s.service.Get(s.ctx, m.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("cancelled match deletes", func() {
		_, _, m := s.createMatch()
		_, err := s.service.Transition(s.ctx, m.ID, StatusCancelled, "")
		s.Require().NoError(err)
		s.NoError(s.service.Delete(s.ctx, m.ID))
	})

	s.Run("contacted match refuses deletion", func() {
		_, _, m := s.createMatch()
		_, err := s.service.Transition(s.ctx, m.ID, StatusContacted, "")
		s.Require().NoError(err)

		err = s.service.Delete(s.ctx, m.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		// Still there.
		_, err = s.service.Get(s.ctx, m.ID)
		s.NoError(err)
	})

	s.Run("unknown match", func() {
		err := s.service.Delete(s.ctx, domain.NewMatchID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestActiveDonorIDs() {
	d, r, m := s.createMatch()

	ids, err := s.service.ActiveDonorIDs(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal([]domain.DonorID{d.ID}, ids)

	_, err = s.service.Transition(s.ctx, m.ID, StatusCancelled, "")
	s.Require().NoError(err)

	ids, err = s.service.ActiveDonorIDs(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Empty(ids)
}
