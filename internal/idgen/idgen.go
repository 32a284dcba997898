package idgen

import (
	"strconv"
	"sync/atomic"
)

// Allocator hands out process-unique identifiers for remote objects.
// Identifiers double as global JS variable names on the page side, so they
// must stay valid JS identifiers: a short alpha prefix plus a counter.
type Allocator struct {
	prefix string
	next   atomic.Uint64
}

// New creates an Allocator. An empty prefix defaults to "pane".
func New(prefix string) *Allocator {
	if prefix == "" {
		prefix = "pane"
	}
	return &Allocator{prefix: prefix}
}

// Generate returns the next identifier. Safe for concurrent use, never fails,
// and never repeats a value for the lifetime of the process.
func (a *Allocator) Generate() string {
	n := a.next.Add(1)
	return a.prefix + strconv.FormatUint(n, 10)
}
