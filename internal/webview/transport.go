package webview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// transport is a minimal CDP client that talks to the browser-level
// WebSocket endpoint without chromedp's heavy session initialisation
// (SetAutoAttach, SetDiscoverTargets, DOM.Enable, etc.). Those commands
// destabilise some embedded browser builds.
type transport struct {
	httpBase string // e.g. "http://127.0.0.1:9222"

	mu   sync.Mutex
	conn net.Conn
	seq  atomic.Int64

	pending   map[int64]chan json.RawMessage
	pendingMu sync.Mutex

	eventMu       sync.RWMutex
	eventHandlers map[string][]eventHandler
}

type eventHandler struct {
	id int64
	fn func(sessionID string, params json.RawMessage)
}

func newTransport(httpBase string) *transport {
	return &transport{
		httpBase:      strings.TrimRight(httpBase, "/"),
		pending:       make(map[int64]chan json.RawMessage),
		eventHandlers: make(map[string][]eventHandler),
	}
}

// connect dials the browser-level WebSocket endpoint.
func (t *transport) connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	wsURL, err := t.browserWSURL(ctx)
	if err != nil {
		return fmt.Errorf("webview: browser ws url: %w", err)
	}

	slog.Debug("webview connecting", "ws_url", wsURL)
	conn, _, _, err := ws.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("webview: dial: %w", err)
	}

	t.conn = conn
	t.pending = make(map[int64]chan json.RawMessage)
	go t.readLoop()
	return nil
}

func (t *transport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func (t *transport) connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// readLoop processes incoming messages and dispatches responses to waiters.
// Events are handed to registered handlers on this goroutine; handlers that
// may block must hop to their own goroutine.
func (t *transport) readLoop() {
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn == nil {
			return
		}

		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			slog.Debug("webview read loop exit", "error", err)
			t.closeAllPending()
			return
		}

		var msg struct {
			ID        int64           `json:"id"`
			Method    string          `json:"method"`
			SessionID string          `json:"sessionId"`
			Params    json.RawMessage `json:"params"`
		}
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.ID > 0 {
			t.pendingMu.Lock()
			ch, ok := t.pending[msg.ID]
			if ok {
				delete(t.pending, msg.ID)
			}
			t.pendingMu.Unlock()
			if ok {
				ch <- json.RawMessage(data)
			}
		} else if msg.Method != "" {
			t.dispatchEvent(msg.Method, msg.SessionID, msg.Params)
		}
	}
}

func (t *transport) closeAllPending() {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

func (t *transport) deletePending(id int64) {
	t.pendingMu.Lock()
	delete(t.pending, id)
	t.pendingMu.Unlock()
}

// sendRaw marshals an envelope, sends it over the WebSocket, and waits for
// the response keyed by the given id.
func (t *transport) sendRaw(ctx context.Context, id int64, envelope any) (json.RawMessage, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("webview: not connected")
	}

	ch := make(chan json.RawMessage, 1)
	t.pendingMu.Lock()
	t.pending[id] = ch
	t.pendingMu.Unlock()

	data, err := json.Marshal(envelope)
	if err != nil {
		t.deletePending(id)
		return nil, fmt.Errorf("webview: marshal: %w", err)
	}

	t.mu.Lock()
	err = wsutil.WriteClientText(conn, data)
	t.mu.Unlock()
	if err != nil {
		t.deletePending(id)
		return nil, fmt.Errorf("webview: send: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("webview: connection closed")
		}
		return resp, nil
	case <-ctx.Done():
		t.deletePending(id)
		return nil, ctx.Err()
	}
}

// send sends a browser-level CDP command and waits for the matching response.
func (t *transport) send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := t.seq.Add(1)
	req := struct {
		ID     int64  `json:"id"`
		Method string `json:"method"`
		Params any    `json:"params,omitempty"`
	}{ID: id, Method: method, Params: params}
	return t.sendRaw(ctx, id, req)
}

// sendFlat sends a command on a flattened session (sessionId in the outer
// envelope) and unwraps the inner "result" field.
func (t *transport) sendFlat(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error) {
	id := t.seq.Add(1)
	req := struct {
		ID        int64  `json:"id"`
		Method    string `json:"method"`
		SessionID string `json:"sessionId,omitempty"`
		Params    any    `json:"params,omitempty"`
	}{ID: id, Method: method, SessionID: sessionID, Params: params}

	resp, err := t.sendRaw(ctx, id, req)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return resp, nil
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("webview: %s: %s", method, envelope.Error.Message)
	}
	return envelope.Result, nil
}

// attachToTarget attaches a flat session to the given target.
func (t *transport) attachToTarget(ctx context.Context, targetID string) (string, error) {
	params := struct {
		TargetID string `json:"targetId"`
		Flatten  bool   `json:"flatten"`
	}{TargetID: targetID, Flatten: true}

	raw, err := t.send(ctx, "Target.attachToTarget", params)
	if err != nil {
		return "", err
	}

	var resp struct {
		Result struct {
			SessionID string `json:"sessionId"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("webview: unmarshal attach: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("webview: attach: %s", resp.Error.Message)
	}
	return resp.Result.SessionID, nil
}

// detachFromTarget detaches from a session without closing the target.
func (t *transport) detachFromTarget(ctx context.Context, sessionID string) error {
	params := struct {
		SessionID string `json:"sessionId"`
	}{SessionID: sessionID}

	_, err := t.send(ctx, "Target.detachFromTarget", params)
	return err
}

// evaluate runs JS on the given session. It returns the JSON-decoded string
// form of the result value and the remote exception text, if any.
func (t *transport) evaluate(ctx context.Context, sessionID, js string) (string, string, error) {
	params := struct {
		Expression    string `json:"expression"`
		ReturnByValue bool   `json:"returnByValue"`
		AwaitPromise  bool   `json:"awaitPromise"`
	}{Expression: js, ReturnByValue: true, AwaitPromise: true}

	raw, err := t.sendFlat(ctx, sessionID, "Runtime.evaluate", params)
	if err != nil {
		return "", "", err
	}

	var resp struct {
		Result struct {
			Value json.RawMessage `json:"value"`
			Type  string          `json:"type"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text      string `json:"text"`
			Exception *struct {
				Description string `json:"description"`
			} `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", fmt.Errorf("webview: unmarshal eval: %w", err)
	}
	if resp.ExceptionDetails != nil {
		text := resp.ExceptionDetails.Text
		if resp.ExceptionDetails.Exception != nil && resp.ExceptionDetails.Exception.Description != "" {
			text = resp.ExceptionDetails.Exception.Description
		}
		return "", text, nil
	}

	// String results come back as JSON-encoded strings.
	var s string
	if err := json.Unmarshal(resp.Result.Value, &s); err != nil {
		return string(resp.Result.Value), "", nil
	}
	return s, "", nil
}

// registerEventHandler registers a handler for a CDP event method (e.g.
// "Page.loadEventFired"). Returns an unregister function.
func (t *transport) registerEventHandler(method string, fn func(sessionID string, params json.RawMessage)) func() {
	id := t.seq.Add(1)
	t.eventMu.Lock()
	t.eventHandlers[method] = append(t.eventHandlers[method], eventHandler{id: id, fn: fn})
	t.eventMu.Unlock()
	return func() {
		t.eventMu.Lock()
		defer t.eventMu.Unlock()
		handlers := t.eventHandlers[method]
		for i, h := range handlers {
			if h.id == id {
				t.eventHandlers[method] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}
}

func (t *transport) dispatchEvent(method, sessionID string, params json.RawMessage) {
	t.eventMu.RLock()
	handlers := make([]eventHandler, len(t.eventHandlers[method]))
	copy(handlers, t.eventHandlers[method])
	t.eventMu.RUnlock()
	for _, h := range handlers {
		h.fn(sessionID, params)
	}
}

// listTargets fetches open targets via the HTTP /json/list endpoint.
func (t *transport) listTargets(ctx context.Context) ([]*target.Info, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(listCtx, http.MethodGet, t.httpBase+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webview: /json/list: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	out := make([]*target.Info, 0, len(entries))
	for _, e := range entries {
		out = append(out, &target.Info{
			TargetID: target.ID(e.ID),
			Type:     e.Type,
			Title:    e.Title,
			URL:      e.URL,
		})
	}
	return out, nil
}

// browserWSURL fetches the WebSocket debugger URL from /json/version.
func (t *transport) browserWSURL(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.httpBase+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webview: /json/version: HTTP %d", resp.StatusCode)
	}

	var info struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("empty webSocketDebuggerUrl")
	}
	return info.WebSocketDebuggerURL, nil
}
