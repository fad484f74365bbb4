package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/voice-booking-agent/internal/calls"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON body. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeCallError maps call layer errors onto status codes.
func writeCallError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calls.ErrCallNotFound):
		writeError(w, http.StatusNotFound, "call not found")
	case errors.Is(err, calls.ErrWrongMode):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, calls.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text required")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
