package webview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
)

// callbackBinding is the CDP binding exposed on the page. The bootstrap
// fragment aliases window.callbackFunction to it so chart-side scripts keep
// the name the embedded library expects.
const callbackBinding = "__hostCallback"

const bootstrapScript = `(function () {
	if (window.callbackFunction && window.callbackFunction.__hostBridge) { return; }
	var bridge = function (message) { window.` + callbackBinding + `(String(message)); };
	bridge.__hostBridge = true;
	window.callbackFunction = bridge;
})();`

// Host owns the CDP connection to the embedded web view. It attaches a flat
// session to the page target matching the tab filter and exposes script
// execution plus the page-to-host callback stream.
type Host struct {
	base       *transport
	tabFilter  string
	cmdTimeout time.Duration

	mu        sync.Mutex
	sessionID string

	readyMu sync.Mutex
	onReady func()
	loading bool

	callbackMu sync.Mutex
	onCallback func(payload string)

	unregister []func()
}

// NewHost prepares a host for the browser listening at httpBase (e.g.
// "http://127.0.0.1:9222"). tabFilter selects the page target by URL
// substring; empty matches the first page target. cmdTimeout bounds each
// CDP command round-trip.
func NewHost(httpBase, tabFilter string, cmdTimeout time.Duration) *Host {
	if cmdTimeout <= 0 {
		cmdTimeout = 10 * time.Second
	}
	return &Host{
		base:       newTransport(httpBase),
		tabFilter:  strings.ToLower(strings.TrimSpace(tabFilter)),
		cmdTimeout: cmdTimeout,
	}
}

// OnReady registers the callback invoked once per page load, after the
// load event fires. Must be set before Connect.
func (h *Host) OnReady(fn func()) {
	h.readyMu.Lock()
	h.onReady = fn
	h.readyMu.Unlock()
}

// OnCallback registers the receiver for window.callbackFunction payloads.
// Must be set before Connect.
func (h *Host) OnCallback(fn func(payload string)) {
	h.callbackMu.Lock()
	h.onCallback = fn
	h.callbackMu.Unlock()
}

// Connect dials the browser, attaches to the page target matching the tab
// filter, and installs the callback binding and bootstrap fragment.
func (h *Host) Connect(ctx context.Context) error {
	if err := h.base.connect(ctx); err != nil {
		return unavailable("connect to CDP failed", err)
	}

	targetID, err := h.findPageTarget(ctx)
	if err != nil {
		h.base.close()
		return err
	}

	sessionID, err := h.base.attachToTarget(ctx, targetID)
	if err != nil {
		h.base.close()
		return unavailable("attach to page target failed", err)
	}

	h.mu.Lock()
	h.sessionID = sessionID
	h.mu.Unlock()

	if err := h.initSession(ctx, sessionID); err != nil {
		h.Close()
		return err
	}

	slog.Info("webview attached", "target_id", targetID, "session_id", sessionID)
	return nil
}

func (h *Host) findPageTarget(ctx context.Context) (string, error) {
	targets, err := h.base.listTargets(ctx)
	if err != nil {
		return "", unavailable("list targets failed", err)
	}
	for _, info := range targets {
		if info.Type != "page" {
			continue
		}
		if h.tabFilter != "" && !strings.Contains(strings.ToLower(info.URL), h.tabFilter) {
			continue
		}
		return string(info.TargetID), nil
	}
	return "", unavailable(fmt.Sprintf("no page target matching %q", h.tabFilter), nil)
}

func (h *Host) initSession(ctx context.Context, sessionID string) error {
	steps := []struct {
		method string
		params any
	}{
		{"Page.enable", nil},
		{"Runtime.enable", nil},
		{"Runtime.addBinding", struct {
			Name string `json:"name"`
		}{Name: callbackBinding}},
		{"Page.addScriptToEvaluateOnNewDocument", struct {
			Source string `json:"source"`
		}{Source: bootstrapScript}},
	}
	for _, step := range steps {
		if _, err := h.base.sendFlat(ctx, sessionID, step.method, step.params); err != nil {
			return unavailable(step.method+" failed", err)
		}
	}

	// Cover a page that finished loading before we attached.
	if _, exc, err := h.base.evaluate(ctx, sessionID, bootstrapScript); err != nil {
		return unavailable("bootstrap injection failed", err)
	} else if exc != "" {
		return &chartctl.CodedError{Code: chartctl.CodeEvalFailure, Message: "bootstrap injection failed: " + exc}
	}

	h.unregister = append(h.unregister,
		h.base.registerEventHandler("Page.loadEventFired", h.handleLoadEvent),
		h.base.registerEventHandler("Runtime.bindingCalled", h.handleBindingCalled),
	)
	return nil
}

// handleLoadEvent fires the ready callback once per navigation. The callback
// runs on its own goroutine because readiness confirmation round-trips
// through this transport's read loop.
func (h *Host) handleLoadEvent(sessionID string, _ json.RawMessage) {
	if !h.isSession(sessionID) {
		return
	}
	h.readyMu.Lock()
	fn := h.onReady
	pending := h.loading
	h.loading = false
	h.readyMu.Unlock()
	if fn == nil || !pending {
		return
	}
	go fn()
}

func (h *Host) handleBindingCalled(sessionID string, params json.RawMessage) {
	if !h.isSession(sessionID) {
		return
	}
	var msg struct {
		Name    string `json:"name"`
		Payload string `json:"payload"`
	}
	if json.Unmarshal(params, &msg) != nil || msg.Name != callbackBinding {
		return
	}
	h.callbackMu.Lock()
	fn := h.onCallback
	h.callbackMu.Unlock()
	if fn == nil {
		slog.Debug("webview callback dropped, no receiver", "payload", msg.Payload)
		return
	}
	// Handlers may execute further scripts, which would deadlock the read
	// loop if run inline.
	go fn(msg.Payload)
}

func (h *Host) isSession(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return sessionID != "" && sessionID == h.sessionID
}

func (h *Host) session() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessionID == "" || !h.base.connected() {
		return "", unavailable("not attached", nil)
	}
	return h.sessionID, nil
}

// Navigate points the page at the given URL and arms the ready callback for
// the resulting load event.
func (h *Host) Navigate(ctx context.Context, url string) error {
	sessionID, err := h.session()
	if err != nil {
		return err
	}

	h.readyMu.Lock()
	h.loading = true
	h.readyMu.Unlock()

	params := struct {
		URL string `json:"url"`
	}{URL: url}
	if _, err := h.base.sendFlat(ctx, sessionID, "Page.navigate", params); err != nil {
		h.readyMu.Lock()
		h.loading = false
		h.readyMu.Unlock()
		return unavailable("navigate failed", err)
	}
	return nil
}

// Execute runs a script fragment on the page, fire-and-forget. The result
// value is discarded; remote exceptions are reported as errors. Fragments
// are not replayed after a transport failure.
func (h *Host) Execute(script string) error {
	sessionID, err := h.session()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cmdTimeout)
	defer cancel()

	_, exc, err := h.base.evaluate(ctx, sessionID, script)
	if err != nil {
		return unavailable("evaluate failed", err)
	}
	if exc != "" {
		return &chartctl.CodedError{Code: chartctl.CodeEvalFailure, Message: exc}
	}
	return nil
}

// Evaluate runs an expression on the page and returns its string value.
func (h *Host) Evaluate(ctx context.Context, expr string) (string, error) {
	sessionID, err := h.session()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, h.cmdTimeout)
	defer cancel()

	value, exc, err := h.base.evaluate(ctx, sessionID, expr)
	if err != nil {
		return "", unavailable("evaluate failed", err)
	}
	if exc != "" {
		return "", &chartctl.CodedError{Code: chartctl.CodeEvalFailure, Message: exc}
	}
	return value, nil
}

// Close detaches from the page session and tears down the connection.
func (h *Host) Close() error {
	for _, fn := range h.unregister {
		fn()
	}
	h.unregister = nil

	h.mu.Lock()
	sessionID := h.sessionID
	h.sessionID = ""
	h.mu.Unlock()

	if sessionID != "" && h.base.connected() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := h.base.detachFromTarget(ctx, sessionID); err != nil {
			slog.Debug("webview detach failed", "error", err)
		}
		cancel()
	}
	h.base.close()
	return nil
}

func unavailable(msg string, cause error) error {
	return &chartctl.CodedError{Code: chartctl.CodeWebviewUnavailable, Message: msg, Cause: cause}
}
