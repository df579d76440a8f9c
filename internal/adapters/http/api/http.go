// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/foundercircle/growthengine/internal/adapters/repository"
	"github.com/foundercircle/growthengine/internal/domain/model"
	"github.com/foundercircle/growthengine/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Track ingests one interaction event. A zero occurredAt means "now".
	// It returns the effective event id and whether the event was a
	// duplicate delivery.
	Track(ctx context.Context, eventID, memberID, eventType string, payload map[string]string, occurredAt time.Time) (string, bool, error)

	// Read operations expose derived member state.
	BehaviorProfile(ctx context.Context, memberID string) (types.BehaviorProfile, error)
	ComputeScore(ctx context.Context, memberID string) (types.FundingScore, error)
	LatestScore(ctx context.Context, memberID string) (types.FundingScore, error)
	ScoreHistory(ctx context.Context, memberID string, limit int) ([]types.FundingScore, error)
	Tasks(ctx context.Context, memberID string) ([]types.GrowthTask, error)
	CompleteTask(ctx context.Context, taskID, memberID string) (types.GrowthTask, error)
	Suggestions(ctx context.Context, memberID string) ([]types.Suggestion, error)
	Streaks(ctx context.Context, memberID string) (map[string]types.Streak, error)

	// UpsertMemberState replaces the read-only member/business view that
	// the profile collaborator pushes.
	UpsertMemberState(ctx context.Context, st model.MemberState) error
}

// TrackRequest is the ingestion input accepted by POST /track.
type TrackRequest struct {
	EventID    string            `json:"event_id,omitempty"`
	MemberID   string            `json:"member_id"`
	Type       string            `json:"type"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt string            `json:"occurred_at,omitempty"` // RFC3339, defaults to now
}

// Server wires HTTP routes for the business API.
type Server struct {
	trackHandler   *TrackHandler
	membersHandler *MembersHandler
	tasksHandler   *TasksHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxHistoryLimit int) *Server {
	return &Server{
		trackHandler:   NewTrackHandler(deps),
		membersHandler: NewMembersHandler(deps, maxHistoryLimit),
		tasksHandler:   NewTasksHandler(deps),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/track", MetricsMiddleware(s.trackHandler.HandlePostTrack, "track"))
	mux.HandleFunc("/members/", MetricsMiddleware(s.membersHandler.Handle, "members"))
	mux.HandleFunc("/tasks/", MetricsMiddleware(s.tasksHandler.HandleComplete, "tasks"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates engine errors into HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
