// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// TasksHandler handles task completion requests.
type TasksHandler struct {
	deps Dependencies
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(deps Dependencies) *TasksHandler {
	return &TasksHandler{deps: deps}
}

// completeRequest carries the acting member. Identity comes from the auth
// collaborator in front of the engine; the engine only checks ownership.
type completeRequest struct {
	MemberID string `json:"member_id"`
}

// HandleComplete handles POST /tasks/{task_id}/complete requests.
func (h *TasksHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_task_complete"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
	taskID, action, _ := strings.Cut(rest, "/")
	if taskID == "" || action != "complete" {
		http.NotFound(w, r)
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.MemberID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing member_id")))
		return
	}

	task, err := h.deps.CompleteTask(r.Context(), taskID, req.MemberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
