package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateIsUnique(t *testing.T) {
	a := New("pane")
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := a.Generate()
		if seen[id] {
			t.Fatalf("Generate() repeated id %q after %d calls", id, i)
		}
		seen[id] = true
	}
}

func TestGenerateUsesPrefix(t *testing.T) {
	a := New("marker")
	if got := a.Generate(); !strings.HasPrefix(got, "marker") {
		t.Fatalf("Generate() = %q, want prefix %q", got, "marker")
	}

	d := New("")
	if got := d.Generate(); !strings.HasPrefix(got, "pane") {
		t.Fatalf("Generate() with empty prefix = %q, want prefix %q", got, "pane")
	}
}

func TestGenerateConcurrent(t *testing.T) {
	a := New("cb")
	const workers = 8
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, a.Generate())
			}
			mu.Lock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate id %q across goroutines", id)
				}
				seen[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("got %d unique ids, want %d", len(seen), workers*perWorker)
	}
}
