package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/model"
	"github.com/dukerupert/familydo/internal/websocket"
)

const minPasswordLen = 3

type MemberHandler struct {
	dir    *directory.Client
	hub    notifier
	logger *slog.Logger
}

func NewMemberHandler(dir *directory.Client, hub notifier, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{dir: dir, hub: hub, logger: logger}
}

type memberView struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	FullName  string     `json:"fullName"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role,omitempty"`
}

func viewMember(m model.Member) memberView {
	return memberView{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		FullName:  m.FullName(),
		Phone:     m.Phone,
		Email:     m.Email,
		Role:      m.Role,
	}
}

type memberRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (req *memberRequest) validate() string {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if req.FirstName == "" || req.LastName == "" || req.Phone == "" || req.Email == "" || req.Password == "" {
		return "all fields are required"
	}
	if len(req.Password) < minPasswordLen {
		return "password must be at least 3 characters"
	}
	return ""
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.dir.ListMembers(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "failed to list members", err)
		return
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewMember(m))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	m, err := h.dir.GetMember(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to get member", err)
		return
	}
	writeJSON(w, http.StatusOK, viewMember(*m))
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	m, err := h.dir.CreateMember(r.Context(), model.Member{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
	})
	if m != nil {
		notify(h.hub, websocket.EntityMember, websocket.ActionCreated, m.ID)
	}
	if err != nil {
		writeStoreError(w, h.logger, "failed to create member", err)
		return
	}

	writeJSON(w, http.StatusCreated, viewMember(*m))
}

// Update takes the full member form, like Create, and applies it as a patch.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	current, err := h.dir.GetMember(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to update member", err)
		return
	}
	// The credential lookup after the update goes by the new email, so a
	// taken address would patch someone else's login.
	if current.Email != req.Email {
		exists, err := h.dir.EmailExists(r.Context(), req.Email)
		if err != nil {
			writeStoreError(w, h.logger, "failed to update member", err)
			return
		}
		if exists {
			writeStoreError(w, h.logger, "failed to update member", directory.ErrDuplicateEmail)
			return
		}
	}

	m, err := h.dir.UpdateMember(r.Context(), id, model.MemberPatch{
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		Phone:     &req.Phone,
		Email:     &req.Email,
		Password:  &req.Password,
	})
	if m != nil {
		notify(h.hub, websocket.EntityMember, websocket.ActionUpdated, m.ID)
	}
	if err != nil {
		writeStoreError(w, h.logger, "failed to update member", err)
		return
	}

	writeJSON(w, http.StatusOK, viewMember(*m))
}

// Delete leaves the member's tasks in place; they show as assigned to
// "Unknown" afterwards.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = h.dir.DeleteMember(r.Context(), id)
	if err == nil || errors.Is(err, directory.ErrCredentialSync) {
		notify(h.hub, websocket.EntityMember, websocket.ActionDeleted, id)
	}
	if err != nil {
		writeStoreError(w, h.logger, "failed to delete member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
