package chartctl

import (
	"fmt"
	"strings"
)

// Table mirrors a floating table widget in the page. Rows are addressed by
// caller-chosen ids; cell clicks come back through the callback router.
type Table struct {
	Pane
	headings []string
	rowOrder []string
	rows     map[string][]string
	deleted  bool
}

func newTable(w *Window, opts TableOptions) (*Table, error) {
	if len(opts.Headings) == 0 {
		return nil, newError(CodeValidation, "table needs at least one heading", nil)
	}
	t := &Table{
		Pane:     w.newPane(),
		headings: append([]string(nil), opts.Headings...),
		rows:     make(map[string][]string),
	}
	payload := map[string]any{
		"width":           opts.Width,
		"height":          opts.Height,
		"headings":        opts.Headings,
		"position":        opts.Position,
		"draggable":       opts.Draggable,
		"backgroundColor": opts.BackgroundColor,
		"borderColor":     opts.BorderColor,
		"borderWidth":     opts.BorderWidth,
	}
	if len(opts.Widths) > 0 {
		payload["widths"] = opts.Widths
	}
	if len(opts.Alignments) > 0 {
		payload["alignments"] = opts.Alignments
	}
	if len(opts.HeadingTextColors) > 0 {
		payload["headingTextColors"] = opts.HeadingTextColors
	}
	if len(opts.HeadingBackgroundColors) > 0 {
		payload["headingBackgroundColors"] = opts.HeadingBackgroundColors
	}
	if opts.ReturnClickedCells {
		payload["callbackName"] = t.clickToken()
	}
	if err := t.RunScript(t.id + ` = new Lib.Table(` + jsJSON(payload) + `)`); err != nil {
		return nil, err
	}
	return t, nil
}

// Headings returns the column headings.
func (t *Table) Headings() []string {
	return append([]string(nil), t.headings...)
}

func (t *Table) clickToken() string { return "table:" + t.id }

// OnClick routes cell clicks to fn. The page posts "rowID;;;column".
func (t *Table) OnClick(fn func(rowID, column string)) {
	t.win.channel.RegisterHandler(t.clickToken(), func(arg string) {
		parts := strings.SplitN(arg, ";;;", 2)
		if len(parts) != 2 {
			return
		}
		fn(parts[0], parts[1])
	})
}

// NewRow appends a row. The value count must match the headings.
func (t *Table) NewRow(rowID string, values []string) error {
	if len(values) != len(t.headings) {
		return newError(CodeValidation,
			fmt.Sprintf("row has %d values for %d headings", len(values), len(t.headings)), nil)
	}
	if _, exists := t.rows[rowID]; !exists {
		t.rowOrder = append(t.rowOrder, rowID)
	}
	t.rows[rowID] = append([]string(nil), values...)
	return t.RunScript(t.id + `.newRow(` + jsJSON(values) + `, ` + jsString(rowID) + `)`)
}

// UpdateCell rewrites one cell of an existing row.
func (t *Table) UpdateCell(rowID, column, value string) error {
	row, ok := t.rows[rowID]
	if !ok {
		return newError(CodeValidation, fmt.Sprintf("no row with id %q", rowID), nil)
	}
	idx := -1
	for i, h := range t.headings {
		if h == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return newError(CodeNoSuchColumn, fmt.Sprintf("no column named %q", column), nil)
	}
	row[idx] = value
	return t.RunScript(t.id + `.updateCell(` + jsString(rowID) + `, ` + jsString(column) + `, ` + jsString(value) + `)`)
}

// DeleteRow removes a row. Unknown ids are a no-op.
func (t *Table) DeleteRow(rowID string) error {
	if _, ok := t.rows[rowID]; !ok {
		return nil
	}
	delete(t.rows, rowID)
	for i, id := range t.rowOrder {
		if id == rowID {
			t.rowOrder = append(t.rowOrder[:i], t.rowOrder[i+1:]...)
			break
		}
	}
	return t.RunScript(t.id + `.deleteRow(` + jsString(rowID) + `)`)
}

// Clear removes every row.
func (t *Table) Clear() error {
	t.rows = make(map[string][]string)
	t.rowOrder = nil
	return t.RunScript(t.id + `.clearRows()`)
}

// Rows returns the row ids in insertion order.
func (t *Table) Rows() []string {
	return append([]string(nil), t.rowOrder...)
}

// Footer writes the footer cells under the table.
func (t *Table) Footer(values []string) error {
	return t.RunScript(t.id + `.makeFooter(` + jsJSON(values) + `)`)
}

// Delete removes the table from the page. Safe to call more than once.
func (t *Table) Delete() error {
	if t.deleted {
		return nil
	}
	t.deleted = true
	t.win.channel.UnregisterHandler(t.clickToken())
	return t.RunScript(t.id + `.delete()
delete ` + t.id)
}
