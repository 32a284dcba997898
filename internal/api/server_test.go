package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
	"github.com/dgnsrekt/lwc_agent/internal/idgen"
	"github.com/dgnsrekt/lwc_agent/internal/snapshot"
)

// fakePage answers the channel's sync-path probes so handlers backed by a
// real controller complete without a browser.
type fakePage struct {
	ch *chartctl.Channel
	mu sync.Mutex
	n  int
}

func (f *fakePage) exec(script string) error {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
	if strings.Contains(script, `document.readyState == "complete"`) {
		f.ch.HandleCallback(evalReply(script, "true"))
	} else if strings.Contains(script, "toDataURL") {
		f.ch.HandleCallback(evalReply(script, "data:image/png;base64,aW1hZ2U="))
	}
	return nil
}

// evalReply echoes a tagged evaluation script's return prefix back with the
// given value, the way the page posts results.
func evalReply(script, value string) string {
	start := strings.Index(script, `("`)
	if start < 0 {
		return ""
	}
	start += 2
	end := strings.Index(script[start:], `"`)
	if end < 0 {
		return ""
	}
	return script[start:start+end] + value
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	page := &fakePage{}
	ch := chartctl.NewChannel(page.exec, 2*time.Second)
	page.ch = ch
	if err := ch.OnReady(); err != nil {
		t.Fatalf("OnReady() error = %v", err)
	}
	win := chartctl.NewWindow(ch, idgen.New("obj"))
	snaps, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	srv := httptest.NewServer(NewServer(controller.NewService(win, snaps)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	decoded := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func TestChartEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create chart status = %d; body %v", resp.StatusCode, body)
	}
	chartID, _ := body["id"].(string)
	if chartID == "" {
		t.Fatalf("create chart returned no id: %v", body)
	}

	rows := []map[string]any{}
	base := time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rows = append(rows, map[string]any{
			"time":  base.Add(time.Duration(i) * time.Minute).UnixMilli(),
			"open":  100.0 + float64(i),
			"high":  101.0 + float64(i),
			"low":   99.0 + float64(i),
			"close": 100.5 + float64(i),
		})
	}
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/v1/charts/"+chartID+"/data", map[string]any{"rows": rows})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set data status = %d; body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/charts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list charts status = %d", resp.StatusCode)
	}
	charts, _ := body["charts"].([]any)
	if len(charts) != 1 {
		t.Fatalf("charts = %d; want 1", len(charts))
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/charts/"+chartID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete chart status = %d", resp.StatusCode)
	}
	// Deletes are idempotent.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/charts/"+chartID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat delete status = %d", resp.StatusCode)
	}
}

func TestErrorCodeMapping(t *testing.T) {
	srv := newTestServer(t)

	// Unknown chart id maps to 400.
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/charts/nope", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown chart status = %d; want 400", resp.StatusCode)
	}

	// Marker before data maps to 409.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create chart status = %d", resp.StatusCode)
	}
	chartID := body["id"].(string)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts/"+chartID+"/markers", map[string]any{"text": "entry"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("marker before data status = %d; want 409", resp.StatusCode)
	}

	// Missing snapshot maps to 404.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/snapshots/aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing snapshot status = %d; want 404", resp.StatusCode)
	}
}

func TestSeriesAndDrawingEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts", map[string]any{})
	chartID := body["id"].(string)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts/"+chartID+"/series/line", map[string]any{"name": "SMA 20"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create line status = %d; body %v", resp.StatusCode, body)
	}
	seriesID := body["id"].(string)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/charts/"+chartID+"/series", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list series status = %d", resp.StatusCode)
	}
	series, _ := body["series"].([]any)
	if len(series) != 1 {
		t.Fatalf("series = %d; want 1", len(series))
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts/"+chartID+"/drawings/horizontal-line", map[string]any{"price": 101.5})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create hline status = %d; body %v", resp.StatusCode, body)
	}
	drawingID := body["id"].(string)

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/v1/drawings/"+drawingID+"/price", map[string]any{"price": 103.0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update hline status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/series/"+seriesID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete series status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/drawings/"+drawingID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete drawing status = %d", resp.StatusCode)
	}
}

func TestSnapshotImageRoute(t *testing.T) {
	srv := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts", map[string]any{})
	chartID := body["id"].(string)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/charts/"+chartID+"/snapshot", map[string]any{"notes": "pre-open"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("take snapshot status = %d; body %v", resp.StatusCode, body)
	}
	snapID := body["id"].(string)

	imgResp, err := http.Get(srv.URL + "/api/v1/snapshots/" + snapID + "/image")
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	defer imgResp.Body.Close()
	if imgResp.StatusCode != http.StatusOK {
		t.Fatalf("image status = %d", imgResp.StatusCode)
	}
	if ct := imgResp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q; want image/png", ct)
	}

	imgResp2, err := http.Get(srv.URL + fmt.Sprintf("/api/v1/snapshots/%s/image", "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("get missing image: %v", err)
	}
	imgResp2.Body.Close()
	if imgResp2.StatusCode != http.StatusNotFound {
		t.Fatalf("missing image status = %d; want 404", imgResp2.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if ready, _ := body["page_ready"].(bool); !ready {
		t.Fatalf("page_ready = false; want true")
	}
}
