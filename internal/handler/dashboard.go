package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/familydo/internal/dashboard"
	"github.com/dukerupert/familydo/internal/directory"
)

type DashboardHandler struct {
	dir    *directory.Client
	logger *slog.Logger
}

func NewDashboardHandler(dir *directory.Client, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dir: dir, logger: logger}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	tasks, members, err := h.dir.LoadTasksAndMembers(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "failed to load dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Summarize(tasks, members))
}
