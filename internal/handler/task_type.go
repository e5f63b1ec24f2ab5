package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/model"
	"github.com/dukerupert/familydo/internal/websocket"
)

type TaskTypeHandler struct {
	dir    *directory.Client
	hub    notifier
	logger *slog.Logger
}

func NewTaskTypeHandler(dir *directory.Client, hub notifier, logger *slog.Logger) *TaskTypeHandler {
	return &TaskTypeHandler{dir: dir, hub: hub, logger: logger}
}

func decodeTitle(r *http.Request) (string, string) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return "", "invalid JSON"
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "", "title is required"
	}
	return req.Title, ""
}

func (h *TaskTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.dir.ListTaskTypes(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "failed to list task types", err)
		return
	}
	if types == nil {
		types = []model.TaskType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *TaskTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tt, err := h.dir.GetTaskType(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to get task type", err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

func (h *TaskTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	title, msg := decodeTitle(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	tt, err := h.dir.CreateTaskType(r.Context(), model.TaskType{Title: title})
	if err != nil {
		writeStoreError(w, h.logger, "failed to create task type", err)
		return
	}

	notify(h.hub, websocket.EntityTaskType, websocket.ActionCreated, tt.ID)
	writeJSON(w, http.StatusCreated, tt)
}

func (h *TaskTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	title, msg := decodeTitle(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	tt, err := h.dir.UpdateTaskType(r.Context(), id, model.TaskTypePatch{Title: &title})
	if err != nil {
		writeStoreError(w, h.logger, "failed to update task type", err)
		return
	}

	notify(h.hub, websocket.EntityTaskType, websocket.ActionUpdated, tt.ID)
	writeJSON(w, http.StatusOK, tt)
}

// Delete does not touch tasks of this type.
func (h *TaskTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.dir.DeleteTaskType(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "failed to delete task type", err)
		return
	}

	notify(h.hub, websocket.EntityTaskType, websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
