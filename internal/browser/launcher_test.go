package browser

import (
	"strings"
	"testing"
)

func TestBuildArgsAppWindow(t *testing.T) {
	l := NewLauncher(Config{
		CDPAddress: "127.0.0.1",
		CDPPort:    9222,
		PageURL:    "http://127.0.0.1:8911/charts",
		ProfileDir: "/tmp/profile",
		AppWindow:  true,
	})
	args := strings.Join(l.buildArgs(), " ")
	if !strings.Contains(args, "--app=http://127.0.0.1:8911/charts") {
		t.Fatalf("missing --app flag: %s", args)
	}
	if !strings.Contains(args, "--remote-debugging-port=9222") {
		t.Fatalf("missing debugging port: %s", args)
	}
	if !strings.Contains(args, "--window-size=1280,720") {
		t.Fatalf("missing default window size: %s", args)
	}
}

func TestBuildArgsPlainTabAndHeadless(t *testing.T) {
	l := NewLauncher(Config{
		CDPAddress: "127.0.0.1",
		CDPPort:    9222,
		PageURL:    "http://127.0.0.1:8911/charts",
		Headless:   true,
	})
	args := l.buildArgs()
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "--app=") {
		t.Fatalf("unexpected --app flag: %s", joined)
	}
	if !strings.Contains(joined, "--headless=new") {
		t.Fatalf("missing headless flag: %s", joined)
	}
	if args[len(args)-1] != "http://127.0.0.1:8911/charts" {
		t.Fatalf("page url not last arg: %s", joined)
	}
}

func TestBuildArgsBlankPage(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9222})
	args := l.buildArgs()
	if args[len(args)-1] != "about:blank" {
		t.Fatalf("expected about:blank fallback, got %s", args[len(args)-1])
	}
}
