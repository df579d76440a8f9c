// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// MembersHandler dispatches /members/{id}/... requests to the derived-state
// read (and score recompute) operations.
type MembersHandler struct {
	deps            Dependencies
	maxHistoryLimit int
}

// NewMembersHandler creates a new members handler.
func NewMembersHandler(deps Dependencies, maxHistoryLimit int) *MembersHandler {
	return &MembersHandler{deps: deps, maxHistoryLimit: maxHistoryLimit}
}

// Handle routes /members/{member_id}/{resource}.
func (h *MembersHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/members/")
	memberID, resource, _ := strings.Cut(rest, "/")
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch resource {
	case "profile":
		h.handleProfile(w, r, memberID)
	case "score":
		h.handleScore(w, r, memberID)
	case "score/history":
		h.handleScoreHistory(w, r, memberID)
	case "tasks":
		h.handleTasks(w, r, memberID)
	case "suggestions":
		h.handleSuggestions(w, r, memberID)
	case "streaks":
		h.handleStreaks(w, r, memberID)
	case "state":
		h.handleState(w, r, memberID)
	default:
		http.NotFound(w, r)
	}
}

// handleProfile handles GET /members/{id}/profile.
func (h *MembersHandler) handleProfile(w http.ResponseWriter, r *http.Request, memberID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	profile, err := h.deps.BehaviorProfile(r.Context(), memberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleScore handles GET (latest) and POST (recompute) /members/{id}/score.
func (h *MembersHandler) handleScore(w http.ResponseWriter, r *http.Request, memberID string) {
	switch r.Method {
	case http.MethodGet:
		score, err := h.deps.LatestScore(r.Context(), memberID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, score)
	case http.MethodPost:
		score, err := h.deps.ComputeScore(r.Context(), memberID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, score)
	default:
		http.NotFound(w, r)
	}
}

// handleScoreHistory handles GET /members/{id}/score/history?limit=N.
func (h *MembersHandler) handleScoreHistory(w http.ResponseWriter, r *http.Request, memberID string) {
	const op = "api.get_score_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := h.maxHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > h.maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	history, err := h.deps.ScoreHistory(r.Context(), memberID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleTasks handles GET /members/{id}/tasks.
func (h *MembersHandler) handleTasks(w http.ResponseWriter, r *http.Request, memberID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tasks, err := h.deps.Tasks(r.Context(), memberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleSuggestions handles GET /members/{id}/suggestions.
func (h *MembersHandler) handleSuggestions(w http.ResponseWriter, r *http.Request, memberID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	suggestions, err := h.deps.Suggestions(r.Context(), memberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// memberStateRequest is the wire shape of the member/business view pushed
// by the profile collaborator.
type memberStateRequest struct {
	BusinessName      string            `json:"business_name"`
	Bio               string            `json:"bio"`
	Category          string            `json:"category"`
	Products          []productRequest  `json:"products,omitempty"`
	PitchDeck         *pitchDeckRequest `json:"pitch_deck,omitempty"`
	FollowerCount     int               `json:"follower_count"`
	FollowerCountPrev int               `json:"follower_count_prev"`
	ReceivedLikes     int               `json:"received_likes"`
	ReceivedComments  int               `json:"received_comments"`
}

type productRequest struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
	Sold  bool     `json:"sold"`
}

type pitchDeckRequest struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	Market   string `json:"market"`
	Ask      string `json:"ask"`
}

func (req memberStateRequest) toModel(memberID string) model.MemberState {
	st := model.MemberState{
		MemberID:          memberID,
		BusinessName:      req.BusinessName,
		Bio:               req.Bio,
		Category:          req.Category,
		FollowerCount:     req.FollowerCount,
		FollowerCountPrev: req.FollowerCountPrev,
		ReceivedLikes:     req.ReceivedLikes,
		ReceivedComments:  req.ReceivedComments,
	}
	for _, p := range req.Products {
		st.Products = append(st.Products, model.Product{Name: p.Name, Price: p.Price, Sold: p.Sold})
	}
	if d := req.PitchDeck; d != nil {
		st.PitchDeck = &model.PitchDeck{
			Problem:  d.Problem,
			Solution: d.Solution,
			Market:   d.Market,
			Ask:      d.Ask,
		}
	}
	return st
}

// handleState handles PUT /members/{id}/state.
func (h *MembersHandler) handleState(w http.ResponseWriter, r *http.Request, memberID string) {
	const op = "api.put_member_state"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req memberStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.UpsertMemberState(r.Context(), req.toModel(memberID)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStreaks handles GET /members/{id}/streaks.
func (h *MembersHandler) handleStreaks(w http.ResponseWriter, r *http.Request, memberID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	streaks, err := h.deps.Streaks(r.Context(), memberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}
