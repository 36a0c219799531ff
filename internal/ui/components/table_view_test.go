package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

func testPage() *models.Page {
	return &models.Page{
		Columns: []string{"title", "meta"},
		Rows: []models.Row{
			{ID: "1", Document: models.Document{"key": "1", "title": "first", "meta": map[string]any{"a": 1}}},
			{ID: "2", Document: models.Document{"key": "2", "title": strings.Repeat("x", 80)}},
			{ID: "3", Document: models.Document{"key": "3", "title": "third\nline"}},
		},
		Total:    3,
		Current:  1,
		PageSize: 100,
	}
}

func TestTableViewSetPage(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.MaxCellWidth = 20
	tv.Height = 10
	tv.SetPage(testPage(), []string{"2"})

	assert.Equal(t, []string{"key", "title", "meta"}, tv.Columns)
	assert.Equal(t, []string{"1", "first", `{"a":1}`}, tv.Cells(tv.Rows[0]))
	assert.Equal(t, strings.Repeat("x", 17)+"...", tv.Cells(tv.Rows[1])[1])
	assert.Equal(t, "third line", tv.Cells(tv.Rows[2])[1])

	view := tv.View()
	assert.Contains(t, view, "●")
	assert.Contains(t, view, "first")
}

func TestTableViewCursor(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.Height = 10
	tv.SetPage(testPage(), nil)
	tv.View()

	tv.MoveSelection(5)
	row, ok := tv.Current()
	require.True(t, ok)
	assert.Equal(t, "3", row.ID)

	// a shorter page pulls the cursor back in range
	page := testPage()
	page.Rows = page.Rows[:1]
	tv.SetPage(page, nil)
	row, _ = tv.Current()
	assert.Equal(t, "1", row.ID)

	tv.SetPage(nil, nil)
	_, ok = tv.Current()
	assert.False(t, ok)
	assert.Contains(t, tv.View(), "No data")
}

func TestPageStatus(t *testing.T) {
	p := models.PaginationState{Current: 2, PageSize: 100, Total: 250}
	assert.Equal(t, " page 2/3 · 100 rows · 250 total · size 100", PageStatus(p, 100, 0))

	p.Stale = true
	assert.Equal(t, " page 2/3 · 50 rows · 250* total · size 100 · 4 selected", PageStatus(p, 50, 4))
}
