package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

const markColumnWidth = 1

// TableView displays one page of documents. The first column is the
// document key; marked rows are part of the selection.
type TableView struct {
	Columns []string
	Rows    []models.Row
	Width   int
	Height  int
	Theme   theme.Theme

	// MaxCellWidth caps a column's width
	MaxCellWidth int

	TopRow      int
	VisibleRows int
	SelectedRow int

	marked       map[string]bool
	status       string
	columnWidths []int
}

// NewTableView creates an empty table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{Theme: th, MaxCellWidth: 50, marked: map[string]bool{}}
}

// SetPage replaces the rows. The cursor is kept when possible.
func (tv *TableView) SetPage(page *models.Page, selected []string) {
	if page == nil {
		tv.Columns, tv.Rows = nil, nil
	} else {
		tv.Columns = append([]string{models.KeyField}, page.Columns...)
		tv.Rows = page.Rows
	}
	tv.SetMarked(selected)
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	if tv.TopRow > tv.SelectedRow {
		tv.TopRow = tv.SelectedRow
	}
	tv.calculateColumnWidths()
}

// SetMarked sets the ids shown as selected
func (tv *TableView) SetMarked(ids []string) {
	tv.marked = make(map[string]bool, len(ids))
	for _, id := range ids {
		tv.marked[id] = true
	}
}

// SetStatus sets the text of the status line
func (tv *TableView) SetStatus(s string) {
	tv.status = s
}

// Current returns the row under the cursor
func (tv *TableView) Current() (models.Row, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Rows) {
		return models.Row{}, false
	}
	return tv.Rows[tv.SelectedRow], true
}

// Cells renders the values of a row for display
func (tv *TableView) Cells(row models.Row) []string {
	cells := make([]string, len(tv.Columns))
	for i, col := range tv.Columns {
		cells[i] = dsl.Truncate(strings.ReplaceAll(dsl.CellText(row.Document[col]), "\n", " "), tv.MaxCellWidth)
	}
	return cells
}

func (tv *TableView) calculateColumnWidths() {
	tv.columnWidths = make([]int, len(tv.Columns))
	for i, col := range tv.Columns {
		tv.columnWidths[i] = lipgloss.Width(col)
	}
	for _, row := range tv.Rows {
		for i, cell := range tv.Cells(row) {
			if w := lipgloss.Width(cell); w > tv.columnWidths[i] {
				tv.columnWidths[i] = w
			}
		}
	}
	for i := range tv.columnWidths {
		if tv.MaxCellWidth > 0 && tv.columnWidths[i] > tv.MaxCellWidth {
			tv.columnWidths[i] = tv.MaxCellWidth
		}
		if tv.columnWidths[i] < 4 {
			tv.columnWidths[i] = 4
		}
	}
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No data") + "\n" + tv.status
	}

	var b strings.Builder
	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	// header, separator and status line
	tv.VisibleRows = tv.Height - 3
	if tv.VisibleRows < 1 {
		tv.VisibleRows = 1
	}

	endRow := tv.TopRow + tv.VisibleRows
	if endRow > len(tv.Rows) {
		endRow = len(tv.Rows)
	}
	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(tv.Rows[i], i == tv.SelectedRow))
		b.WriteString("\n")
	}
	if len(tv.Rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render(" no documents"))
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render(tv.status))
	return b.String()
}

func (tv *TableView) renderHeader() string {
	parts := make([]string, len(tv.Columns))
	for i, col := range tv.Columns {
		parts[i] = pad(col, tv.columnWidths[i])
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Render(strings.Repeat(" ", markColumnWidth) + " " + strings.Join(parts, " │ "))
}

func (tv *TableView) renderSeparator() string {
	parts := make([]string, len(tv.columnWidths))
	for i, width := range tv.columnWidths {
		parts[i] = strings.Repeat("─", width)
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render(strings.Repeat("─", markColumnWidth+1) + strings.Join(parts, "─┼─"))
}

func (tv *TableView) renderRow(row models.Row, cursor bool) string {
	cells := tv.Cells(row)
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, tv.columnWidths[i])
	}

	mark := " "
	if tv.marked[row.ID] {
		mark = lipgloss.NewStyle().Foreground(tv.Theme.Marked).Render("●")
	}
	line := mark + " " + strings.Join(parts, " │ ")

	if cursor {
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Bold(true).
			Render(line)
	}
	return line
}

func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		return dsl.Truncate(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

// MoveSelection moves the cursor up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// PageStatus formats the pagination line shown under the table
func PageStatus(p models.PaginationState, rows, selected int) string {
	total := fmt.Sprintf("%d", p.Total)
	if p.Stale {
		total += "*"
	}
	status := fmt.Sprintf(" page %d/%d · %d rows · %s total · size %d", p.Current, p.PageCount(), rows, total, p.PageSize)
	if selected > 0 {
		status += fmt.Sprintf(" · %d selected", selected)
	}
	return status
}
