package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/familydo/internal/dashboard"
	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/model"
	"github.com/dukerupert/familydo/internal/websocket"
)

type TaskHandler struct {
	dir    *directory.Client
	hub    notifier
	logger *slog.Logger
}

func NewTaskHandler(dir *directory.Client, hub notifier, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{dir: dir, hub: hub, logger: logger}
}

// taskRow is one line of the task list: the task plus its resolved
// assignee, type and badge colour.
type taskRow struct {
	model.Task
	MemberName  string `json:"memberName"`
	TypeTitle   string `json:"typeTitle"`
	StatusColor string `json:"statusColor"`
}

type taskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
	TypeID      int64        `json:"typeId"`
	MemberID    int64        `json:"memberId"`
}

func (req *taskRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if req.Title == "" || req.Description == "" || req.TypeID == 0 || req.MemberID == 0 {
		return "title, description, typeId and memberId are required"
	}
	if req.Status != "" && !req.Status.Known() {
		return "unknown status " + string(req.Status)
	}
	return ""
}

// List returns every task resolved against members and task types. Tasks
// whose member or type is gone show "Unknown".
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	board, err := h.dir.LoadBoard(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "failed to list tasks", err)
		return
	}

	rows := make([]taskRow, 0, len(board.Tasks))
	for _, t := range board.Tasks {
		rows = append(rows, taskRow{
			Task:        t,
			MemberName:  dashboard.LookupMemberName(board.Members, t.MemberID),
			TypeTitle:   dashboard.LookupTypeTitle(board.TaskTypes, t.TypeID),
			StatusColor: dashboard.StatusColor(t.Status),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.dir.GetTask(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to get task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t, err := h.dir.CreateTask(r.Context(), model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		TypeID:      req.TypeID,
		MemberID:    req.MemberID,
	})
	if err != nil {
		writeStoreError(w, h.logger, "failed to create task", err)
		return
	}

	notify(h.hub, websocket.EntityTask, websocket.ActionCreated, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

// Update takes the full task form. An empty status leaves the current one.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	patch := model.TaskPatch{
		Title:       &req.Title,
		Description: &req.Description,
		TypeID:      &req.TypeID,
		MemberID:    &req.MemberID,
	}
	if req.Status != "" {
		patch.Status = &req.Status
	}

	t, err := h.dir.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, h.logger, "failed to update task", err)
		return
	}

	notify(h.hub, websocket.EntityTask, websocket.ActionUpdated, t.ID)
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.dir.DeleteTask(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "failed to delete task", err)
		return
	}

	notify(h.hub, websocket.EntityTask, websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
