package webview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func withDefaultHTTPClient(t *testing.T, transport http.RoundTripper) {
	t.Helper()
	origClient := http.DefaultClient
	t.Cleanup(func() {
		http.DefaultClient = origClient
	})
	http.DefaultClient = &http.Client{
		Transport: transport,
	}
}

func targetListResponse(t *testing.T, entries []map[string]any) *http.Response {
	t.Helper()
	body, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal targets: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}
}

func TestFindPageTargetAppliesTabFilter(t *testing.T) {
	withDefaultHTTPClient(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/json/list" {
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(``))}, nil
		}
		return targetListResponse(t, []map[string]any{
			{"id": "sw-1", "type": "service_worker", "url": "http://127.0.0.1:8911/charts"},
			{"id": "page-other", "type": "page", "url": "http://127.0.0.1:8911/settings"},
			{"id": "page-charts", "type": "page", "url": "http://127.0.0.1:8911/charts"},
		}), nil
	}))

	h := NewHost("http://example.com", "/charts", time.Second)
	targetID, err := h.findPageTarget(context.Background())
	if err != nil {
		t.Fatalf("findPageTarget() error = %v", err)
	}
	if targetID != "page-charts" {
		t.Fatalf("targetID = %q; want %q", targetID, "page-charts")
	}
}

func TestFindPageTargetNoMatch(t *testing.T) {
	withDefaultHTTPClient(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/json/list" {
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(``))}, nil
		}
		return targetListResponse(t, []map[string]any{
			{"id": "page-other", "type": "page", "url": "http://127.0.0.1:8911/settings"},
		}), nil
	}))

	h := NewHost("http://example.com", "/charts", time.Second)
	_, err := h.findPageTarget(context.Background())
	if err == nil {
		t.Fatal("expected findPageTarget() to fail")
	}

	var coded *chartctl.CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected *CodedError, got %T", err)
	}
	if coded.Code != chartctl.CodeWebviewUnavailable {
		t.Fatalf("error code = %s; want %s", coded.Code, chartctl.CodeWebviewUnavailable)
	}
}

func TestExecuteWithoutAttachFails(t *testing.T) {
	h := NewHost("http://example.com", "", time.Second)
	err := h.Execute("document.title")
	if err == nil {
		t.Fatal("expected Execute() to fail before attach")
	}

	var coded *chartctl.CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected *CodedError, got %T", err)
	}
	if coded.Code != chartctl.CodeWebviewUnavailable {
		t.Fatalf("error code = %s; want %s", coded.Code, chartctl.CodeWebviewUnavailable)
	}
}

func TestBindingCalledRoutesPayload(t *testing.T) {
	h := NewHost("http://example.com", "", time.Second)
	h.sessionID = "session-1"

	got := make(chan string, 1)
	h.OnCallback(func(payload string) {
		got <- payload
	})

	params, _ := json.Marshal(map[string]string{
		"name":    callbackBinding,
		"payload": "hotkey:ctrl+1_~_1",
	})
	h.handleBindingCalled("session-1", params)

	select {
	case payload := <-got:
		if payload != "hotkey:ctrl+1_~_1" {
			t.Fatalf("payload = %q", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("callback not delivered")
	}
}

func TestBindingCalledIgnoresOtherSessionsAndBindings(t *testing.T) {
	h := NewHost("http://example.com", "", time.Second)
	h.sessionID = "session-1"

	got := make(chan string, 2)
	h.OnCallback(func(payload string) {
		got <- payload
	})

	params, _ := json.Marshal(map[string]string{"name": callbackBinding, "payload": "x"})
	h.handleBindingCalled("session-2", params)

	other, _ := json.Marshal(map[string]string{"name": "__other", "payload": "y"})
	h.handleBindingCalled("session-1", other)

	select {
	case payload := <-got:
		t.Fatalf("unexpected callback %q", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoadEventFiresReadyOncePerNavigation(t *testing.T) {
	h := NewHost("http://example.com", "", time.Second)
	h.sessionID = "session-1"

	fired := make(chan struct{}, 2)
	h.OnReady(func() {
		fired <- struct{}{}
	})

	// Not armed until a navigation is in flight.
	h.handleLoadEvent("session-1", nil)
	select {
	case <-fired:
		t.Fatal("ready fired without pending navigation")
	case <-time.After(50 * time.Millisecond):
	}

	h.readyMu.Lock()
	h.loading = true
	h.readyMu.Unlock()

	h.handleLoadEvent("session-1", nil)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("ready not fired")
	}

	// Duplicate load event for the same navigation is swallowed.
	h.handleLoadEvent("session-1", nil)
	select {
	case <-fired:
		t.Fatal("ready fired twice for one navigation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBootstrapAliasesCallbackFunction(t *testing.T) {
	if !strings.Contains(bootstrapScript, "window.callbackFunction") {
		t.Fatalf("bootstrap missing callbackFunction alias: %s", bootstrapScript)
	}
	if !strings.Contains(bootstrapScript, callbackBinding) {
		t.Fatalf("bootstrap missing binding %s: %s", callbackBinding, bootstrapScript)
	}
}
