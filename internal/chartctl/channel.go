package chartctl

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ExecFunc evaluates a script in the embedded page context. Implementations
// must return an error when evaluation raises an exception or the page is
// unreachable.
type ExecFunc func(script string) error

// Recorder receives every script the channel actually executes, in execution
// order. Used for the script journal.
type Recorder interface {
	Record(script string)
}

const (
	callbackDelim = "_~_"
	returnToken   = "~RETURN~"
)

const defaultEvalTimeout = 10 * time.Second

// Channel serializes script delivery to the page. Scripts dispatched before
// the page signals ready are queued and flushed on OnReady; scripts marked
// final flush after all normal ones regardless of dispatch order. Bulk mode
// coalesces dispatches into a single evaluation.
type Channel struct {
	mu           sync.Mutex
	exec         ExecFunc
	loaded       bool
	flushing     bool
	readyCh      chan struct{}
	pending      []string
	finalPending []string
	bulkDepth    int
	bulkBuf      []string
	handlers     map[string]func(arg string)

	evalMu      sync.Mutex
	evalSeq     uint64
	evalTimeout time.Duration

	waiterMu sync.Mutex
	waiter   *evalWaiter

	recorder Recorder
}

// evalWaiter is the single in-flight EvaluateAndWait call. The generation
// number keeps a reply from an earlier timed-out call out of a later call's
// result.
type evalWaiter struct {
	gen uint64
	ch  chan string
}

// NewChannel wraps exec with queueing and callback routing. A non-positive
// timeout falls back to the default.
func NewChannel(exec ExecFunc, evalTimeout time.Duration) *Channel {
	if evalTimeout <= 0 {
		evalTimeout = defaultEvalTimeout
	}
	return &Channel{
		exec:        exec,
		readyCh:     make(chan struct{}),
		handlers:    make(map[string]func(arg string)),
		evalTimeout: evalTimeout,
	}
}

// SetRecorder attaches a script journal. Pass nil to detach.
func (c *Channel) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

func (c *Channel) run(script string) error {
	if c.exec == nil {
		return newError(CodeConfig, "no script executor configured", nil)
	}
	if c.recorder != nil {
		c.recorder.Record(script)
	}
	if err := c.exec(script); err != nil {
		var coded *CodedError
		if errors.As(err, &coded) {
			return err
		}
		return newError(CodeEvalFailure, "script evaluation failed", err)
	}
	return nil
}

// Dispatch sends a script, queueing it when the page is not ready yet or a
// bulk section is open. Queued dispatches report no error; failures surface
// when the queue flushes.
func (c *Channel) Dispatch(script string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bulkDepth > 0 {
		c.bulkBuf = append(c.bulkBuf, script)
		return nil
	}
	if !c.loaded {
		c.pending = append(c.pending, script)
		return nil
	}
	return c.run(script)
}

// DispatchFinal sends a script that must run after every normally queued
// script, regardless of how early it was dispatched. Once the page is ready
// it behaves like Dispatch.
func (c *Channel) DispatchFinal(script string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.finalPending = append(c.finalPending, script)
		return nil
	}
	if c.bulkDepth > 0 {
		c.bulkBuf = append(c.bulkBuf, script)
		return nil
	}
	return c.run(script)
}

// BeginBulk opens a bulk section. Sections nest; only the outermost EndBulk
// flushes.
func (c *Channel) BeginBulk() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bulkDepth++
}

// EndBulk closes a bulk section and, when it is the outermost one, sends the
// buffered scripts as a single evaluation preserving dispatch order.
func (c *Channel) EndBulk() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bulkDepth == 0 {
		return newError(CodePrecondition, "EndBulk without matching BeginBulk", nil)
	}
	c.bulkDepth--
	if c.bulkDepth > 0 || len(c.bulkBuf) == 0 {
		return nil
	}
	joined := strings.Join(c.bulkBuf, "\n")
	c.bulkBuf = c.bulkBuf[:0]
	if !c.loaded {
		c.pending = append(c.pending, joined)
		return nil
	}
	return c.run(joined)
}

// Bulk runs fn inside a bulk section.
func (c *Channel) Bulk(fn func() error) error {
	c.BeginBulk()
	if err := fn(); err != nil {
		c.EndBulk()
		return err
	}
	return c.EndBulk()
}

// OnReady flushes both queues as one evaluation, normal scripts first, final
// scripts after. Calling it again is a no-op. Readiness is confirmed through
// the sync path before flushing, bounded by the eval timeout; on expiry the
// flush proceeds anyway since the load event already fired. Dispatches issued
// while confirmation is in flight keep queueing and land inside the flush, so
// nothing overtakes scripts queued earlier.
func (c *Channel) OnReady() error {
	c.mu.Lock()
	if c.loaded || c.flushing {
		c.mu.Unlock()
		return nil
	}
	c.flushing = true
	close(c.readyCh)
	c.mu.Unlock()

	c.confirmDocumentReady()

	c.mu.Lock()
	defer c.mu.Unlock()
	scripts := make([]string, 0, len(c.pending)+len(c.finalPending))
	scripts = append(scripts, c.pending...)
	scripts = append(scripts, c.finalPending...)
	c.pending, c.finalPending = nil, nil
	c.loaded = true
	c.flushing = false
	if len(scripts) == 0 {
		return nil
	}
	return c.run(strings.Join(scripts, "\n"))
}

func (c *Channel) confirmDocumentReady() {
	deadline := time.Now().Add(c.evalTimeout)
	for time.Now().Before(deadline) {
		res, err := c.EvaluateAndWait(context.Background(), `document.readyState == "complete"`)
		if err != nil || res == "true" {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Loaded reports whether OnReady has fired.
func (c *Channel) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// EvaluateAndWait evaluates expr in the page and blocks until the page posts
// the result back, the timeout elapses, or ctx is canceled. The page must be
// ready; if it is not yet, the call waits for readiness within the same
// timeout instead of spinning.
func (c *Channel) EvaluateAndWait(ctx context.Context, expr string) (string, error) {
	c.evalMu.Lock()
	defer c.evalMu.Unlock()

	deadline := time.NewTimer(c.evalTimeout)
	defer deadline.Stop()

	select {
	case <-c.readyCh:
	case <-deadline.C:
		return "", newError(CodeEvalTimeout, "page not ready before timeout", nil)
	case <-ctx.Done():
		return "", newError(CodeEvalTimeout, "wait canceled", ctx.Err())
	}

	// Tag this call so a reply from an earlier timed-out call cannot
	// satisfy it.
	c.evalSeq++
	w := &evalWaiter{gen: c.evalSeq, ch: make(chan string, 1)}
	c.waiterMu.Lock()
	c.waiter = w
	c.waiterMu.Unlock()
	defer func() {
		c.waiterMu.Lock()
		if c.waiter == w {
			c.waiter = nil
		}
		c.waiterMu.Unlock()
	}()

	prefix := returnToken + callbackDelim + strconv.FormatUint(w.gen, 10) + callbackDelim
	script := `window.callbackFunction(` + jsString(prefix) + ` + String(` + expr + `))`
	c.mu.Lock()
	err := c.run(script)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	select {
	case res := <-w.ch:
		return res, nil
	case <-deadline.C:
		return "", newError(CodeEvalTimeout, "timed out waiting for page result", nil)
	case <-ctx.Done():
		return "", newError(CodeEvalTimeout, "wait canceled", ctx.Err())
	}
}

// RegisterHandler routes callback messages with the given token to fn.
// Registering the same token again replaces the handler.
func (c *Channel) RegisterHandler(token string, fn func(arg string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[token] = fn
}

// UnregisterHandler removes a callback route. Unknown tokens are ignored.
func (c *Channel) UnregisterHandler(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, token)
}

// HandleCallback routes one message posted by the page. Messages are
// "token_~_payload"; a bare token carries an empty payload. Return-value
// messages carry a generation tag and complete only the matching pending
// EvaluateAndWait; anything else goes to the registered handler for its
// token. Unroutable and stale messages are dropped.
func (c *Channel) HandleCallback(message string) {
	token := message
	arg := ""
	if i := strings.Index(message, callbackDelim); i >= 0 {
		token = message[:i]
		arg = message[i+len(callbackDelim):]
	}

	if token == returnToken {
		genStr, val := arg, ""
		if i := strings.Index(arg, callbackDelim); i >= 0 {
			genStr = arg[:i]
			val = arg[i+len(callbackDelim):]
		}
		gen, err := strconv.ParseUint(genStr, 10, 64)
		if err != nil {
			return
		}
		c.waiterMu.Lock()
		if w := c.waiter; w != nil && w.gen == gen {
			c.waiter = nil
			w.ch <- val
		}
		c.waiterMu.Unlock()
		return
	}

	c.mu.Lock()
	fn := c.handlers[token]
	c.mu.Unlock()
	if fn != nil {
		fn(arg)
	}
}
