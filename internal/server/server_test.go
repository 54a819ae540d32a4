package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/internal/metrics"
	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/pipeline"
	"github.com/matzehuels/techtree/pkg/session"
	"github.com/matzehuels/techtree/pkg/techtree"
)

func civTree() *graph.Tree {
	return &graph.Tree{Nodes: []graph.Node{
		{ID: "fire", Label: "Fire"},
		{ID: "stone", Label: "Stone Tools"},
		{ID: "cooking", Label: "Cooking", Prereqs: []string{"fire"}},
		{ID: "city", Type: "goal", Prereqs: []string{"cooking", "stone"}},
	}}
}

func newTestServer(t *testing.T, c cache.Cache) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	srv := New(
		Config{DefaultTree: civTree()},
		session.NewMemoryStore(time.Minute),
		pipeline.NewRunner(c, nil, logger),
		logger,
	)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func createSession(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp, data := do(t, http.MethodPost, ts.URL+"/sessions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /sessions = %d: %s", resp.StatusCode, data)
	}
	return decode[SessionResponse](t, data).ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, data := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"status":"ok"`) {
		t.Errorf("body = %s", data)
	}
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts, "")
	base := ts.URL + "/sessions/" + id

	resp, data := do(t, http.MethodPost, base+"/toggle/cooking", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle locked = %d: %s", resp.StatusCode, data)
	}
	if got := decode[ToggleResponse](t, data); got.Change != "none" {
		t.Errorf("locked toggle change = %q, want none", got.Change)
	}

	for _, node := range []string{"fire", "cooking"} {
		resp, data = do(t, http.MethodPost, base+"/toggle/"+node, "")
		if got := decode[ToggleResponse](t, data); got.Change != "completed" {
			t.Fatalf("toggle %s = %d %s", node, resp.StatusCode, data)
		}
	}

	resp, data = do(t, http.MethodGet, base+"/snapshot?width=800&height=600", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot = %d: %s", resp.StatusCode, data)
	}
	snap := decode[techtree.Snapshot](t, data)
	if snap.Viewport.Width != 800 || snap.Progress.Done != 2 {
		t.Errorf("snapshot viewport %+v, progress %+v", snap.Viewport, snap.Progress)
	}
	if n, _ := snap.Node("cooking"); n.State != techtree.StateDone {
		t.Errorf("cooking state = %v", n.State)
	}

	resp, data = do(t, http.MethodPost, base+"/toggle/fire", "")
	got := decode[ToggleResponse](t, data)
	if got.Change != "revoked" || len(got.Revoked) != 1 || got.Revoked[0] != "cooking" {
		t.Errorf("revoke = %+v", got)
	}

	resp, data = do(t, http.MethodGet, base+"/nodes/city/tooltip", "")
	tip := decode[techtree.Tooltip](t, data)
	if tip.State != techtree.StateLocked || len(tip.Prereqs) != 2 {
		t.Errorf("tooltip = %+v", tip)
	}

	do(t, http.MethodPost, base+"/toggle/stone", "")
	resp, data = do(t, http.MethodPost, base+"/reset", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"done":0`) {
		t.Errorf("reset = %d %s", resp.StatusCode, data)
	}

	resp, _ = do(t, http.MethodDelete, base, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, base+"/snapshot", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("snapshot after delete = %d", resp.StatusCode)
	}
}

func TestCreateWithTree(t *testing.T) {
	ts := newTestServer(t, nil)

	body := `{"tree": {"nodes": [{"id": "a"}, {"id": "b", "prereqs": ["a"]}]}, "done": ["a"], "layout": {"nodeWidth": 90}}`
	resp, data := do(t, http.MethodPost, ts.URL+"/sessions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	sr := decode[SessionResponse](t, data)
	if sr.Nodes != 2 || sr.Progress.Done != 1 {
		t.Errorf("session = %+v", sr)
	}

	_, data = do(t, http.MethodGet, ts.URL+"/sessions/"+sr.ID+"/snapshot", "")
	if snap := decode[techtree.Snapshot](t, data); snap.NodeWidth != 90 {
		t.Errorf("NodeWidth = %v, want 90", snap.NodeWidth)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/sessions/nope/snapshot", "", 404, "SESSION_NOT_FOUND"},
		{"unknown node", http.MethodPost, "/sessions/" + id + "/toggle/nope", "", 404, "NOT_FOUND"},
		{"unknown tooltip", http.MethodGet, "/sessions/" + id + "/nodes/nope/tooltip", "", 404, "NOT_FOUND"},
		{"bad width", http.MethodGet, "/sessions/" + id + "/snapshot?width=wide", "", 400, "INVALID_INPUT"},
		{"NaN width", http.MethodGet, "/sessions/" + id + "/snapshot?width=NaN", "", 400, "INVALID_INPUT"},
		{"infinite height", http.MethodGet, "/sessions/" + id + "/snapshot?height=Inf", "", 400, "INVALID_INPUT"},
		{"bad format", http.MethodGet, "/sessions/" + id + "/snapshot?format=png", "", 400, "INVALID_INPUT"},
		{"bad json", http.MethodPost, "/sessions", "{", 400, "INVALID_FORMAT"},
		{"cycle", http.MethodPost, "/sessions",
			`{"tree": {"nodes": [{"id": "a", "prereqs": ["b"]}, {"id": "b", "prereqs": ["a"]}]}}`, 400, "CYCLE_DETECTED"},
		{"dangling", http.MethodPost, "/sessions",
			`{"tree": {"nodes": [{"id": "a", "prereqs": ["ghost"]}]}}`, 400, "MALFORMED_GRAPH"},
		{"delete unknown", http.MethodDelete, "/sessions/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "", 404, "SESSION_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, data)
			}
			if got := decode[ErrorResponse](t, data); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestSnapshotFormats(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts, "")

	resp, data := do(t, http.MethodGet, ts.URL+"/sessions/"+id+"/snapshot?format=dot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("body = %s", data)
	}
}

// recordingCacheHooks counts layout cache events.
type recordingCacheHooks struct {
	observability.NoopCacheHooks
	mu   sync.Mutex
	hits map[string]int
	sets map[string]int
}

func (h *recordingCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[keyType]++
}

func (h *recordingCacheHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sets[keyType]++
}

func TestLayoutSharedAcrossSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	hooks := &recordingCacheHooks{hits: map[string]int{}, sets: map[string]int{}}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, c)
	var id string
	for i := 0; i < 2; i++ {
		id = createSession(t, ts, "")
		resp, data := do(t, http.MethodGet, ts.URL+"/sessions/"+id+"/snapshot?width=640&height=480", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("snapshot = %d: %s", resp.StatusCode, data)
		}
	}
	// The session engine already holds this layout, so the cache is not read.
	if resp, data := do(t, http.MethodGet, ts.URL+"/sessions/"+id+"/snapshot?width=640&height=480", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat snapshot = %d: %s", resp.StatusCode, data)
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.sets["layout"] != 1 || hooks.hits["layout"] != 1 {
		t.Errorf("layout cache sets=%d hits=%d, want 1 and 1", hooks.sets["layout"], hooks.hits["layout"])
	}
	if len(mr.Keys()) == 0 {
		t.Error("layout should be stored in redis")
	}
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.Install()
	t.Cleanup(observability.Reset)

	logger := log.New(io.Discard)
	store := session.NewMemoryStore(time.Minute)
	m.TrackSessions(store.Len)
	srv := New(Config{DefaultTree: civTree(), Metrics: m.Handler()}, store, pipeline.NewRunner(nil, nil, logger), logger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	id := createSession(t, ts, "")
	do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/toggle/fire", "")

	resp, data := do(t, http.MethodGet, ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`techtree_toggles_total{kind="completed"} 1`,
		`techtree_sessions 1`,
		`route="/sessions/{id}/toggle/{node}"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	logger := log.New(io.Discard)
	srv := New(
		Config{Addr: "127.0.0.1:0", CleanupInterval: time.Millisecond},
		session.NewMemoryStore(time.Minute),
		pipeline.NewRunner(nil, nil, logger),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
