// Package handler exposes the matching API over HTTP. It stays thin:
// decode, delegate, encode.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/match"
	"lifeline/internal/matching"
	"lifeline/internal/platform/middleware"
	"lifeline/internal/request"
	"lifeline/internal/transport/http/shared"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// MatchService defines the match lifecycle operations the handler needs.
type MatchService interface {
	Create(ctx context.Context, donorID domain.DonorID, requestID domain.RequestID, notes string) (*match.Match, error)
	Transition(ctx context.Context, matchID domain.MatchID, newStatus match.Status, notes string) (*match.Match, error)
	Delete(ctx context.Context, matchID domain.MatchID) error
	Get(ctx context.Context, matchID domain.MatchID) (*match.Match, error)
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*match.Match, error)
	ActiveDonorIDs(ctx context.Context, requestID domain.RequestID) ([]domain.DonorID, error)
}

// Finder ranks candidate donors for a request.
type Finder interface {
	FindCandidates(ctx context.Context, req *request.BloodRequest, params matching.Params) ([]*matching.RankedDonor, error)
}

// RequestReader looks up blood requests for the search endpoint.
type RequestReader interface {
	FindByID(ctx context.Context, requestID domain.RequestID) (*request.BloodRequest, error)
}

// Handler handles matching and match lifecycle endpoints.
type Handler struct {
	logger       *slog.Logger
	matches      MatchService
	finder       Finder
	requests     RequestReader
	jwtValidator middleware.JWTValidator

	// maxDistanceKm caps the distance bound callers may request. Zero means
	// uncapped.
	maxDistanceKm float64
}

func New(
	matches MatchService,
	finder Finder,
	requests RequestReader,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
	maxDistanceKm float64) *Handler {
	return &Handler{
		logger:        logger,
		matches:       matches,
		finder:        finder,
		requests:      requests,
		jwtValidator:  jwtValidator,
		maxDistanceKm: maxDistanceKm,
	}
}

// Register registers the matching routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.RequestTime)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	api.Post("/matches/find-donors", h.handleFindDonors)
	api.Post("/matches", h.handleCreateMatch)
	api.Get("/matches/{matchID}", h.handleGetMatch)
	api.Patch("/matches/{matchID}", h.handleTransitionMatch)
	api.Delete("/matches/{matchID}", h.handleDeleteMatch)
	api.Get("/requests/{requestID}/matches", h.handleListMatches)

	r.Mount("/", api)
}

type findDonorsRequest struct {
	RequestID     string  `json:"request_id"`
	MaxDistanceKm float64 `json:"max_distance_km"`
	Limit         int     `json:"limit"`
}

type findDonorsResponse struct {
	RequestID  string                  `json:"request_id"`
	Candidates []*matching.RankedDonor `json:"candidates"`
	Count      int                     `json:"count"`
}

// handleFindDonors runs a ranked donor search for a blood request. Donors
// with an active match for the request are always excluded.
func (h *Handler) handleFindDonors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body findDonorsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	requestID, err := domain.ParseRequestID(body.RequestID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, err := h.requests.FindByID(ctx, requestID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "blood request not found"))
		return
	}

	excluded, err := h.matches.ActiveDonorIDs(ctx, requestID)
	if err != nil {
		h.logError(ctx, "active donor lookup failed", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "search failed"))
		return
	}

	maxDistance := body.MaxDistanceKm
	if h.maxDistanceKm > 0 && (maxDistance <= 0 || maxDistance > h.maxDistanceKm) {
		maxDistance = h.maxDistanceKm
	}

	candidates, err := h.finder.FindCandidates(ctx, req, matching.Params{
		MaxDistanceKm:    maxDistance,
		Limit:            body.Limit,
		ExcludedDonorIDs: excluded,
	})
	if err != nil {
		h.logError(ctx, "donor search failed", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "search failed"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, findDonorsResponse{
		RequestID:  requestID.String(),
		Candidates: candidates,
		Count:      len(candidates),
	})
}

type createMatchRequest struct {
	DonorID   string `json:"donor_id"`
	RequestID string `json:"request_id"`
	Notes     string `json:"notes"`
}

func (h *Handler) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	donorID, err := domain.ParseDonorID(body.DonorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requestID, err := domain.ParseRequestID(body.RequestID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	m, err := h.matches.Create(ctx, donorID, requestID, body.Notes)
	if err != nil {
		h.writeServiceError(ctx, w, "create match failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, m)
}

type transitionMatchRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) handleTransitionMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := domain.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body transitionMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := match.ParseStatus(body.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	m, err := h.matches.Transition(ctx, matchID, status, body.Notes)
	if err != nil {
		h.writeServiceError(ctx, w, "transition match failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := domain.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.matches.Delete(ctx, matchID); err != nil {
		h.writeServiceError(ctx, w, "delete match failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := domain.ParseMatchID(chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	m, err := h.matches.Get(ctx, matchID)
	if err != nil {
		h.writeServiceError(ctx, w, "get match failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, m)
}

type listMatchesResponse struct {
	RequestID string         `json:"request_id"`
	Matches   []*match.Match `json:"matches"`
	Count     int            `json:"count"`
}

func (h *Handler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID, err := domain.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	matches, err := h.matches.ListByRequest(ctx, requestID)
	if err != nil {
		h.writeServiceError(ctx, w, "list matches failed", err)
		return
	}
	if matches == nil {
		matches = []*match.Match{}
	}
	shared.WriteJSON(w, http.StatusOK, listMatchesResponse{
		RequestID: requestID.String(),
		Matches:   matches,
		Count:     len(matches),
	})
}

// writeServiceError logs unexpected failures and lets expected domain errors
// pass through with their own status.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logError(ctx, msg, err)
	}
	shared.WriteError(w, err)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
