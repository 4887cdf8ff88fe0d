package webserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/psidex/topoedit/internal/command"
	"github.com/psidex/topoedit/internal/exporter"
	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, topology.ErrNodeNotFound),
		errors.Is(err, persona.ErrUnknownPersona):
		return http.StatusNotFound
	case errors.Is(err, topology.ErrNoPendingEdit):
		return http.StatusConflict
	case errors.Is(err, command.ErrInvalid),
		errors.Is(err, exporter.ErrUnknownFormat),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
