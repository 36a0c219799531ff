package models

// AppState holds the layout state of the terminal UI
type AppState struct {
	Width          int
	Height         int
	LeftPanelWidth int
	FocusedPanel   PanelType
	ViewMode       ViewMode
}

// PanelType identifies which panel is focused
type PanelType int

const (
	LeftPanel PanelType = iota
	RightPanel
)

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	PromptMode
	DetailMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:          80,
		Height:         24,
		LeftPanelWidth: 28,
		FocusedPanel:   LeftPanel,
		ViewMode:       NormalMode,
	}
}

// Operation is the kind of view a tab shows
type Operation string

const (
	OperationQuery    Operation = "query"
	OperationOverview Operation = "overview"
)

// TabKey derives the deterministic key of a tab
func TabKey(index string, op Operation) string {
	return "Tab:" + index + ":" + string(op)
}
