package views

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// TABLE — one row per record, selected rows flagged
// ============================================================================
// The table never publishes; it mirrors whatever selection the charts
// broadcast. Columns are the frame's bound columns, or every column when
// nothing is bound.
// ============================================================================

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cellStyle.Foreground(lipgloss.Color("#f28e2c")).Bold(true)
	dimStyle      = cellStyle.Foreground(lipgloss.Color("#888888"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

// TableColumn defines a table column.
type TableColumn struct {
	Key   string `json:"key" msgpack:"key"`
	Label string `json:"label" msgpack:"label"`
}

// TableData is a render-ready snapshot of the table.
type TableData struct {
	Columns  []TableColumn `json:"columns" msgpack:"columns"`
	Rows     [][]string    `json:"rows" msgpack:"rows"`
	IDs      []int         `json:"ids" msgpack:"ids"`
	Selected []bool        `json:"selected" msgpack:"selected"`
	Summary  string        `json:"summary" msgpack:"summary"`
}

// Table lists records and flags the selected ones.
type Table struct {
	id      string
	bus     *brush.Broadcaster
	data    engine.RecordView
	columns []string
	maxRows int
	only    bool
	sel     brush.SelectionSet
}

// NewTable creates a table over data and subscribes it. maxRows caps the
// rendered rows (0 = all).
func NewTable(id string, bus *brush.Broadcaster, data engine.RecordView, maxRows int) *Table {
	t := &Table{
		id:      id,
		bus:     bus,
		data:    data,
		columns: data.Keys(),
		maxRows: maxRows,
		sel:     brush.Clear(""),
	}
	bus.Subscribe(id, t.ApplyHighlight)
	return t
}

func (t *Table) ID() string { return t.id }

// Render picks the columns to show from frame's bindings.
func (t *Table) Render(frame *engine.Frame) {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range engine.Roles {
		if c := frame.Bindings.Column(r); c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		cols = t.data.Keys()
	}
	t.columns = cols
}

// ApplyHighlight replaces the selection.
func (t *Table) ApplyHighlight(sel brush.SelectionSet) { t.sel = sel }

// Selected reports whether row id is in the active selection.
func (t *Table) Selected(id int) bool { return t.sel.Contains(id) }

// Mark returns the highlight state of row id.
func (t *Table) Mark(id int) Mark { return markFor(t.sel, id) }

// SelectedRows returns the selected records as a view, in id order.
func (t *Table) SelectedRows() *engine.SubView {
	return engine.NewSubView(t.data, t.sel.IDs)
}

// SelectedOnly limits Data and String to the selected rows while a
// selection is active.
func (t *Table) SelectedOnly(only bool) { t.only = only }

// Data snapshots the table.
func (t *Table) Data() *TableData {
	td := &TableData{
		Rows:     [][]string{},
		IDs:      []int{},
		Selected: []bool{},
	}
	for _, c := range t.columns {
		td.Columns = append(td.Columns, TableColumn{Key: c, Label: c})
	}

	ids := make([]int, 0, t.data.Len())
	if t.only && !t.sel.Empty() {
		sub := t.SelectedRows()
		for i := 0; i < sub.Len(); i++ {
			ids = append(ids, sub.ID(i))
		}
	} else {
		for i := 0; i < t.data.Len(); i++ {
			ids = append(ids, i)
		}
	}

	shown := ids
	if t.maxRows > 0 && len(shown) > t.maxRows {
		shown = shown[:t.maxRows]
	}
	for _, id := range shown {
		row := make([]string, len(t.columns))
		for j, c := range t.columns {
			row[j] = schema.Key(t.data.Value(id, c))
		}
		td.Rows = append(td.Rows, row)
		td.IDs = append(td.IDs, id)
		td.Selected = append(td.Selected, t.sel.Contains(id))
	}

	if t.sel.Empty() {
		td.Summary = fmt.Sprintf("%s rows", engine.FormatInt(t.data.Len()))
	} else {
		td.Summary = fmt.Sprintf("%s of %s rows selected",
			engine.FormatInt(t.sel.Len()), engine.FormatInt(t.data.Len()))
	}
	if len(shown) < len(ids) {
		td.Summary += fmt.Sprintf(" (showing %d)", len(shown))
	}
	return td
}

// String renders the table for a terminal.
func (t *Table) String() string {
	td := t.Data()

	headers := make([]string, 0, len(td.Columns)+2)
	headers = append(headers, "", "#")
	for _, c := range td.Columns {
		headers = append(headers, c.Label)
	}
	rows := make([][]string, len(td.Rows))
	for i, r := range td.Rows {
		marker := " "
		if td.Selected[i] {
			marker = "*"
		}
		rows[i] = append([]string{marker, fmt.Sprint(td.IDs[i])}, r...)
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(td.Selected) && td.Selected[row]:
				return selectedStyle
			case !t.sel.Empty():
				return dimStyle
			}
			return cellStyle
		})

	return lipgloss.JoinVertical(lipgloss.Left, tbl.String(), dimStyle.Render(td.Summary))
}

// Close unsubscribes the view.
func (t *Table) Close() { t.bus.Unsubscribe(t.id) }
