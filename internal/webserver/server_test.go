package webserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/topoedit/internal/command"
	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/metrics"
	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

type testEnv struct {
	server   *Server
	registry *session.Registry
	catalog  *persona.Catalog
	http     *httptest.Server
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	logger := lib.DiscardLogger()
	env := &testEnv{
		registry: session.NewRegistry(logger),
		catalog:  persona.NewCatalog(),
	}
	env.server = NewServer(logger, env.registry, env.catalog, opts...)
	env.http = httptest.NewServer(env.server.Handler())
	t.Cleanup(env.http.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.http.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (e *testEnv) createSession(t *testing.T, cfg string) sessionCreated {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/sessions", cfg)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created sessionCreated
	require.NoError(t, json.Unmarshal(body, &created))
	return created
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok", "sessions": 0}`, string(body))
}

func TestListPersonasAndFormats(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodGet, "/api/personas", "")
	var summaries []persona.Summary
	require.NoError(t, json.Unmarshal(body, &summaries))
	var types []string
	for _, s := range summaries {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, "star")

	_, body = env.do(t, http.MethodGet, "/api/formats", "")
	assert.JSONEq(t, `["echarts", "graphml", "graphology", "json", "vis", "yaml"]`, string(body))
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	created := env.createSession(t, `{"personaType": "star"}`)
	star, err := env.catalog.Get("star")
	require.NoError(t, err)
	assert.Equal(t, star.Nodes, created.State.Nodes)
	assert.Equal(t, star.Edges, created.State.Edges)
	assert.Equal(t, "star", created.State.PersonaType)

	// An empty body is an empty config.
	blank := env.createSession(t, "")
	assert.Empty(t, blank.State.Nodes)

	_, body := env.do(t, http.MethodGet, "/api/sessions", "")
	var ids []string
	require.NoError(t, json.Unmarshal(body, &ids))
	assert.ElementsMatch(t, []string{created.ID, blank.ID}, ids)
}

func TestCreateSession_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		body string
		code int
	}{
		{`{"personaType": "nope"}`, http.StatusNotFound},
		{`{"ids": "random"}`, http.StatusBadRequest},
		{`{"canvasWidth": -1}`, http.StatusBadRequest},
		{`{"runtime": "forever"}`, http.StatusBadRequest},
		{`{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := env.do(t, http.MethodPost, "/api/sessions", tt.body)
		assert.Equal(t, tt.code, resp.StatusCode, tt.body)

		var e errorBody
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, tt.code, e.Code)
		assert.NotEmpty(t, e.Error)
	}
	assert.Zero(t, env.registry.Len(), "failed creates leave no session behind")
}

func TestCommands(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t, `{"personaType": "line", "canvasWidth": 100, "canvasHeight": 50}`).ID
	path := "/api/sessions/" + id + "/commands"

	resp, body := env.do(t, http.MethodPost, path, `{"op": "addNode"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res command.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.Change)
	assert.Equal(t, topology.KindAddNode, res.Change.Kind)
	assert.True(t, res.Change.State.DialogOpen)
	require.NotNil(t, res.Change.State.EditBuffer)
	assert.Equal(t, topology.Position{X: 50, Y: 25}, res.Change.State.EditBuffer.Position)

	resp, _ = env.do(t, http.MethodPost, path, `{"op": "updateEditBuffer", "property": "label", "value": "gw"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = env.do(t, http.MethodPost, path, `{"op": "saveEdit"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "gw", res.Change.State.Nodes[len(res.Change.State.Nodes)-1].Data.Label)

	tests := []struct {
		cmd  string
		code int
	}{
		{`{"op": "saveEdit"}`, http.StatusConflict},
		{`{"op": "editNode", "nodeId": "missing"}`, http.StatusNotFound},
		{`{"op": "loadPersona", "personaType": "missing"}`, http.StatusNotFound},
		{`{"op": "dance"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := env.do(t, http.MethodPost, path, tt.cmd)
		assert.Equal(t, tt.code, resp.StatusCode, "%s: %s", tt.cmd, body)
	}

	resp, body = env.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st topology.State
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Len(t, st.Nodes, 6)
	assert.False(t, st.DialogOpen)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/export"} {
		resp, _ := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	resp, _ := env.do(t, http.MethodPost, "/api/sessions/nope/commands", `{"op": "openDialog"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t, "").ID

	resp, _ := env.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t, `{"personaType": "ring"}`).ID

	resp, body := env.do(t, http.MethodGet, "/api/sessions/"+id+"/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var g struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(body, &g))
	assert.Len(t, g.Nodes, 6)

	resp, body = env.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=echarts&download=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="topology.html"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(body), "<title>ring</title>")

	resp, _ = env.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=echarts&download=false", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Disposition"))

	resp, body = env.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=graphml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p, err := persona.DecodeGraphML(strings.NewReader(string(body)))
	require.NoError(t, err)
	assert.Len(t, p.Edges, 6)

	resp, _ = env.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=svg", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t, `{"personaType": "mesh"}`).ID

	_, body := env.do(t, http.MethodGet, "/api/sessions/"+id+"/validate?sequential=true", "")
	assert.JSONEq(t, `{"valid": true}`, string(body))

	env.do(t, http.MethodPost, "/api/sessions/"+id+"/commands",
		`{"op": "replaceEdges", "edges": [{"id": "x", "source": "0", "target": "42"}]}`)
	_, body = env.do(t, http.MethodGet, "/api/sessions/"+id+"/validate", "")
	var v validation
	require.NoError(t, json.Unmarshal(body, &v))
	assert.False(t, v.Valid)
	assert.Contains(t, v.Error, `target "42" does not exist`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	env := newTestEnv(t, WithMetrics(m, reg))
	m.Watch(env.registry)

	id := env.createSession(t, "").ID
	env.do(t, http.MethodPost, "/api/sessions/"+id+"/commands", `{"op": "openDialog"}`)

	resp, body := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `topoedit_mutations_total{kind="openDialog"} 1`)
	assert.Contains(t, string(body), "topoedit_sessions 1")
}

func TestNoMetricsWithoutGatherer(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerWithoutStoreInContext(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.getSession(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), topology.ErrContextUnavailable.Error())
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, WithAllowedOrigins("http://editor.local"))
	req, err := http.NewRequest(http.MethodOptions, env.http.URL+"/api/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://editor.local")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://editor.local", resp.Header.Get("Access-Control-Allow-Origin"))
}
