package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/model"
)

type AuthHandler struct {
	dir    *directory.Client
	logger *slog.Logger
}

func NewAuthHandler(dir *directory.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{dir: dir, logger: logger}
}

// userView is what a client learns about the account it logged into.
type userView struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.dir.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeStoreError(w, h.logger, "failed to log in", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, userView{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Email:     user.Email,
		Role:      user.Role,
	})
}
