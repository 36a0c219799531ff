package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// OverviewView renders the cluster summary of an overview tab
type OverviewView struct {
	Width  int
	Height int
	Theme  theme.Theme
	offset int
}

// NewOverviewView creates an overview view
func NewOverviewView(th theme.Theme) *OverviewView {
	return &OverviewView{Theme: th}
}

// Scroll moves the index list by delta lines
func (v *OverviewView) Scroll(delta int) {
	v.offset += delta
	if v.offset < 0 {
		v.offset = 0
	}
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// View renders ov; nil renders a placeholder
func (v *OverviewView) View(ov *models.Overview) string {
	muted := lipgloss.NewStyle().Foreground(v.Theme.Muted)
	if ov == nil {
		return muted.Render("Loading cluster overview…")
	}
	label := lipgloss.NewStyle().Foreground(v.Theme.Info).Width(14)

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", label.Render("cluster"), ov.Info.ClusterName)
	fmt.Fprintf(&b, "%s%s\n", label.Render("node"), ov.Info.Name)
	fmt.Fprintf(&b, "%s%s %s\n", label.Render("version"), ov.Info.Version, muted.Render("lucene "+ov.Info.LuceneVersion))
	fmt.Fprintf(&b, "%s%d %s\n", label.Render("documents"), ov.Stats.TotalDocs, muted.Render(fmt.Sprintf("(%d deleted)", ov.Stats.DeletedDocs)))
	fmt.Fprintf(&b, "%s%s\n", label.Render("store"), FormatBytes(ov.Stats.TotalSizeBytes))
	fmt.Fprintf(&b, "%s%d\n\n", label.Render("segments"), ov.Stats.SegmentCount)

	header := fmt.Sprintf("  %-30s %-7s %10s %10s %4s %4s  %s", "index", "status", "docs", "size", "pri", "rep", "aliases")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(v.Theme.TableHeader).Render(header))
	b.WriteString("\n")

	rows := ov.Indices
	if v.offset > len(rows) {
		v.offset = len(rows)
	}
	rows = rows[v.offset:]
	if limit := v.Height - 9; limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, idx := range rows {
		dot := lipgloss.NewStyle().Foreground(v.Theme.HealthColor(string(idx.Health))).Render("●")
		fmt.Fprintf(&b, "%s %-30s %-7s %10d %10s %4d %4d  %s\n",
			dot, idx.Index, idx.Status, idx.DocsCount, idx.StoreSize, idx.Pri, idx.Rep,
			muted.Render(strings.Join(idx.Aliases, ", ")))
	}
	return b.String()
}
