package chartctl

import (
	"context"

	"github.com/dgnsrekt/lwc_agent/internal/idgen"
)

// Window is the root of the remote object graph: one embedded page, one
// channel to it, one identifier allocator shared by everything created in it.
type Window struct {
	channel *Channel
	ids     *idgen.Allocator
}

// NewWindow wraps a channel. A nil allocator gets a default one.
func NewWindow(channel *Channel, ids *idgen.Allocator) *Window {
	if ids == nil {
		ids = idgen.New("pane")
	}
	return &Window{channel: channel, ids: ids}
}

// Channel exposes the underlying script channel.
func (w *Window) Channel() *Channel { return w.channel }

// RunScript evaluates raw JavaScript in the page, honoring the channel's
// queueing rules.
func (w *Window) RunScript(script string) error {
	return w.channel.Dispatch(script)
}

// RunScriptLast evaluates raw JavaScript after all normally queued scripts.
func (w *Window) RunScriptLast(script string) error {
	return w.channel.DispatchFinal(script)
}

// EvaluateAndWait evaluates an expression and returns its stringified result.
func (w *Window) EvaluateAndWait(ctx context.Context, expr string) (string, error) {
	return w.channel.EvaluateAndWait(ctx, expr)
}

// OnReady signals that the page finished loading.
func (w *Window) OnReady() error { return w.channel.OnReady() }

// HandleCallback routes one message posted by the page.
func (w *Window) HandleCallback(message string) { w.channel.HandleCallback(message) }

// Style themes the window chrome around the charts.
func (w *Window) Style(opts RootStyleOptions) error {
	return w.channel.Dispatch(`Lib.Handler.setRootStyles(` + jsJSON(opts) + `);`)
}

// CreateChart instantiates a chart handler in the page and returns its
// host-side mirror.
func (w *Window) CreateChart(opts ChartOptions) (*Chart, error) {
	return newChart(w, opts)
}

// CreateTable instantiates a floating table widget.
func (w *Window) CreateTable(opts TableOptions) (*Table, error) {
	return newTable(w, opts)
}

func (w *Window) newPane() Pane {
	return Pane{id: w.ids.Generate(), win: w}
}

// Pane is the base of every remote object: the identifier doubling as the
// page-side global that holds the object, plus the window it lives in.
type Pane struct {
	id  string
	win *Window
}

// ID returns the page-side identifier of the object.
func (p Pane) ID() string { return p.id }

// Window returns the owning window.
func (p Pane) Window() *Window { return p.win }

// RunScript evaluates raw JavaScript through the owning window.
func (p Pane) RunScript(script string) error {
	return p.win.RunScript(script)
}
