package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/familydo/internal/collection"
	"github.com/dukerupert/familydo/internal/directory"
	"github.com/dukerupert/familydo/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeStoreError maps a directory or store failure onto a response.
// Anything that never reached a decision in the store is a 502.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	var te *collection.TransportError
	switch {
	case errors.Is(err, directory.ErrCredentialSync):
		logger.Error(msg, "error", err)
		writeError(w, http.StatusBadGateway, msg+": member saved but credential not updated")
		return
	case errors.Is(err, directory.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already used by another member")
		return
	case collection.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.As(err, &te) && te.StatusCode == http.StatusConflict:
		writeError(w, http.StatusConflict, "email already used by another member")
		return
	}

	logger.Error(msg, "error", err)
	switch {
	case collection.IsTransport(err):
		writeError(w, http.StatusBadGateway, msg)
	default:
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// notifier is the part of the websocket hub handlers use.
type notifier interface {
	Notify(entity websocket.Entity, action websocket.Action, id int64)
}

func notify(n notifier, entity websocket.Entity, action websocket.Action, id int64) {
	if n != nil {
		n.Notify(entity, action, id)
	}
}
