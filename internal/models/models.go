package models

// AppState holds the application state
type AppState struct {
	Width        int
	Height       int
	QueryWidth   int
	FocusedPanel PanelType
	ViewMode     ViewMode

	Connection *Connection
	Library    string

	// Query tree editing
	Filter   Filter
	MarkedID string // node picked up for a move, "" when none

	// Results of the last search
	Results     *SearchResult
	ResultIndex int
}

// PanelType identifies which panel is focused
type PanelType int

const (
	QueryPanel PanelType = iota
	ResultsPanel
)

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	BuilderMode
	ExpressionMode
	ListsMode
	PreviewMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:        80,
		Height:       24,
		QueryWidth:   45,
		FocusedPanel: QueryPanel,
		ViewMode:     NormalMode,
	}
}
