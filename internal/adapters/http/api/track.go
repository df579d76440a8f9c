// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// TrackHandler handles event ingestion requests.
type TrackHandler struct {
	deps Dependencies
}

// NewTrackHandler creates a new track handler.
func NewTrackHandler(deps Dependencies) *TrackHandler {
	return &TrackHandler{deps: deps}
}

func (r TrackRequest) validate() error {
	switch {
	case strings.TrimSpace(r.MemberID) == "":
		return errors.New("missing member_id")
	case strings.TrimSpace(r.Type) == "":
		return errors.New("missing type")
	}
	if r.OccurredAt != "" {
		if _, err := time.Parse(time.RFC3339, r.OccurredAt); err != nil {
			return errors.New("invalid occurred_at; must be RFC3339")
		}
	}
	return nil
}

type trackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostTrack handles POST /track requests.
func (h *TrackHandler) HandlePostTrack(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_track"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != "" {
		occurredAt, _ = time.Parse(time.RFC3339, req.OccurredAt)
	}

	eventID, duplicate, err := h.deps.Track(r.Context(), req.EventID, req.MemberID, req.Type, req.Payload, occurredAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, trackResponse{Status: "duplicate", EventID: eventID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, trackResponse{Status: "accepted", EventID: eventID})
}
