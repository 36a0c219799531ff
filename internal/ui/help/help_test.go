package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

func TestSectionsHaveUniqueKeys(t *testing.T) {
	for _, s := range Sections() {
		seen := map[string]bool{}
		for _, kb := range s.Keys {
			assert.False(t, seen[kb.Key], "duplicate key %q in %s", kb.Key, s.Title)
			seen[kb.Key] = true
		}
	}
}

func TestRender(t *testing.T) {
	out := Render(100, 40, theme.DefaultTheme())
	assert.Contains(t, out, "lazyes - Keyboard Shortcuts")
	assert.Contains(t, out, "Query tab")
	assert.Contains(t, out, "Delete selection or filter matches")
}
