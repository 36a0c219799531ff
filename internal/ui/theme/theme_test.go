package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTheme(t *testing.T) {
	assert.Equal(t, "default", GetTheme("").Name)
	assert.Equal(t, "default", GetTheme("unknown").Name)
	assert.Equal(t, "catppuccin-mocha", GetTheme("catppuccin").Name)
}

func TestHealthColor(t *testing.T) {
	th := DefaultTheme()
	assert.Equal(t, th.HealthGreen, th.HealthColor("green"))
	assert.Equal(t, th.HealthRed, th.HealthColor("red"))
	assert.Equal(t, th.Muted, th.HealthColor(""))
}
