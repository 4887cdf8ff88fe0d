package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/psidex/topoedit/internal/command"
	"github.com/psidex/topoedit/internal/exporter"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

type sessionCreated struct {
	ID    string         `json:"id"`
	State topology.State `json:"state"`
}

type validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.registry.Len()})
}

func (s *Server) listPersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) listFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, exporter.Names())
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var cfg SessionConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.newSession(cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionCreated{ID: sess.ID, State: sess.Store.Snapshot()})
}

// newSession validates cfg and starts a session, loading its persona if one
// is named. Nothing is created when the persona is unknown.
func (s *Server) newSession(cfg SessionConfig) (*session.Session, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	var p topology.Persona
	if cfg.PersonaType != "" {
		var err error
		if p, err = s.catalog.Get(cfg.PersonaType); err != nil {
			return nil, err
		}
	}

	sess := s.registry.Create(cfg.storeOptions()...)
	if cfg.PersonaType != "" {
		sess.Store.LoadPersona(cfg.PersonaType, p)
	}
	return sess, nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	store, err := topology.FromContext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyCommand(w http.ResponseWriter, r *http.Request) {
	store, err := topology.FromContext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var cmd command.Command
	if err := decodeBody(r, &cmd); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := command.Apply(store, s.catalog, cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	store, err := topology.FromContext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "graphology"
	}
	st := store.Snapshot()
	title := st.PersonaType
	if title == "" {
		title = chi.URLParam(r, "id")
	}
	renderer, err := exporter.ByName(format, title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "topology"+renderer.Extension()))
	}
	if err := renderer.Render(w, st); err != nil {
		// Headers are gone, all we can do is log.
		s.logger.Error("Export failed", "format", format, "err", err)
	}
}

func (s *Server) validateSession(w http.ResponseWriter, r *http.Request) {
	store, err := topology.FromContext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sequential, _ := strconv.ParseBool(r.URL.Query().Get("sequential"))
	res := validation{Valid: true}
	if err := store.Validate(topology.ValidateOptions{RequireSequentialIDs: sequential}); err != nil {
		res = validation{Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeBody reads JSON into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
