package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/config"
	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/lists"
	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/search"
	"github.com/rebeliceyang/lazycirc/internal/search/index"
	"github.com/rebeliceyang/lazycirc/internal/ui/components"
	"github.com/rebeliceyang/lazycirc/internal/ui/help"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// Deps are the services the TUI drives. Search and Lists may be nil, in
// which case the matching features report an error.
type Deps struct {
	Config *config.Config
	Search *search.Service
	Lists  *lists.Manager
	Logger *zap.Logger
}

// App is the main application model
type App struct {
	state   models.AppState
	config  *config.Config
	theme   theme.Theme
	session *filter.Session
	search  *search.Service
	lists   *lists.Manager
	logger  *zap.Logger

	queryPanel   components.Panel
	resultsPanel components.Panel

	treeView    *components.QueryTreeView
	builder     *components.QueryBuilder
	expression  *components.ExpressionInput
	listsDialog *components.ListsDialog
	results     *components.ResultsView
	preview     *components.PreviewPane

	showError    bool
	errorOverlay *components.ErrorOverlay

	// serverEntries is every entry fetched for the current search, before
	// any local refinement
	serverEntries []models.Entry
	searching     bool
	status        string
}

// SearchResultMsg is sent when a search page arrives
type SearchResultMsg struct {
	Result *models.SearchResult
	Append bool
	Err    error
}

// RefineResultMsg is sent when the local index has filtered the results
type RefineResultMsg struct {
	Entries    []models.Entry
	Expression string
	Err        error
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// New creates a new App instance
func New(deps Deps) *App {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	state := models.NewAppState()
	state.Library = cfg.Server.Library
	state.Filter.Library = cfg.Server.Library
	state.Connection = &models.Connection{
		ID:      cfg.Server.BaseURL,
		Backend: cfg.Search.Backend,
		Config:  models.ServerConfig{BaseURL: cfg.Server.BaseURL, Library: cfg.Server.Library, Username: cfg.Server.Username},
		State:   models.Disconnected,
	}

	th := theme.GetTheme(cfg.UI.Theme)
	session := filter.NewSession()

	a := &App{
		state:        state,
		config:       cfg,
		theme:        th,
		session:      session,
		search:       deps.Search,
		lists:        deps.Lists,
		logger:       logger,
		treeView:     components.NewQueryTreeView(session, th),
		builder:      components.NewQueryBuilder(th),
		expression:   components.NewExpressionInput(th),
		listsDialog:  components.NewListsDialog(th),
		results:      components.NewResultsView(th),
		preview:      components.NewPreviewPane(th),
		errorOverlay: components.NewErrorOverlay(th),
		queryPanel:   components.Panel{Title: "Query", Theme: th},
		resultsPanel: components.Panel{Title: "Results", Theme: th},
	}

	a.builder.Open(models.Combinator(cfg.Search.DefaultCombinator), "")
	a.updatePanelDimensions()
	a.refreshPreview()
	return a
}

// Session returns the query editing session
func (a *App) Session() *filter.Session {
	return a.session
}

// State returns a copy of the application state
func (a *App) State() models.AppState {
	s := a.state
	s.Filter.Root = a.session.Tree()
	s.MarkedID = a.treeView.MarkedID
	s.ResultIndex = a.results.SelectedRow
	return s
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case components.AddFilterMsg:
		id := a.session.Add(msg.Key, msg.Op, msg.Value, msg.Combinator, msg.Clear)
		a.logger.Debug("filter added", zap.String("id", id), zap.String("tree", filter.Format(a.session.Tree())))
		a.state.ViewMode = models.NormalMode
		a.treeChanged()
		return a, nil

	case components.UpdateFilterMsg:
		a.session.Update(msg.ID, msg.Key, msg.Op, msg.Value)
		a.state.ViewMode = models.NormalMode
		a.treeChanged()
		return a, nil

	case components.EditFilterMsg:
		a.builder.Edit(msg.Filter)
		a.state.ViewMode = models.BuilderMode
		return a, nil

	case components.CloseQueryBuilderMsg, components.CloseExpressionMsg, components.CloseListsDialogMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.TreeChangedMsg:
		a.treeChanged()
		return a, nil

	case components.ExpressionSubmitMsg:
		return a.handleExpression(msg)

	case components.LoadListMsg:
		return a.loadList(msg.List)

	case components.SaveListMsg:
		return a.saveList(msg)

	case components.DeleteListMsg:
		if err := a.lists.Delete(msg.ID); err != nil {
			a.ShowError("List Error", err.Error())
			return a, nil
		}
		a.listsDialog.SetLists(a.lists.GetAll())
		return a, nil

	case SearchResultMsg:
		return a.handleSearchResult(msg)

	case RefineResultMsg:
		if msg.Err != nil {
			a.expression.SetError(msg.Err)
			return a, nil
		}
		a.state.ViewMode = models.NormalMode
		a.results.SetEntries(msg.Entries, false)
		if msg.Expression == "" {
			a.results.HasMore = a.state.Results != nil && a.state.Results.HasMore
			a.results.Note = ""
		} else {
			a.results.Note = fmt.Sprintf("refined by %s (%d of %d)", msg.Expression, len(msg.Entries), len(a.serverEntries))
		}
		a.refreshPreview()
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showError {
		switch msg.String() {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		switch msg.String() {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	case models.BuilderMode:
		var cmd tea.Cmd
		a.builder, cmd = a.builder.Update(msg)
		return a, cmd
	case models.ExpressionMode:
		var cmd tea.Cmd
		a.expression, cmd = a.expression.Update(msg)
		return a, cmd
	case models.ListsMode:
		var cmd tea.Cmd
		a.listsDialog, cmd = a.listsDialog.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "tab":
		if a.state.FocusedPanel == models.QueryPanel {
			a.state.FocusedPanel = models.ResultsPanel
		} else {
			a.state.FocusedPanel = models.QueryPanel
		}
		a.refreshPreview()
		return a, nil
	case "s", "f5":
		return a, a.runSearch(0)
	case "/":
		a.expression.Mode = components.ModeReplace
		a.expression.Open(filter.Format(a.session.Tree()))
		a.state.ViewMode = models.ExpressionMode
		return a, nil
	case "L":
		if a.lists == nil {
			a.ShowError("Lists Unavailable", "Saved lists could not be loaded.")
			return a, nil
		}
		a.listsDialog.SetLists(a.lists.GetAll())
		a.state.ViewMode = models.ListsMode
		return a, nil
	case "p":
		a.preview.Toggle()
		a.updatePanelDimensions()
		return a, nil
	case "y":
		if err := a.preview.CopyContent(); err != nil {
			a.ShowError("Copy Failed", err.Error())
		} else {
			a.status = "Copied to clipboard"
		}
		return a, nil
	case "ctrl+up", "K":
		a.preview.ScrollUp()
		return a, nil
	case "ctrl+down", "J":
		a.preview.ScrollDown()
		return a, nil
	}

	if a.state.FocusedPanel == models.ResultsPanel {
		return a.handleResultsKey(msg)
	}
	return a.handleQueryKey(msg)
}

func (a *App) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		a.builder.Open(a.builder.Combinator(), a.targetDescription())
		a.state.ViewMode = models.BuilderMode
		return a, nil
	case "C":
		a.session.Reset()
		a.treeChanged()
		return a, nil
	case "S":
		if a.lists == nil || a.session.Tree() == nil {
			return a, nil
		}
		a.listsDialog.SetLists(a.lists.GetAll())
		a.listsDialog.StartSave(filter.Format(a.session.Tree()))
		a.state.ViewMode = models.ListsMode
		return a, nil
	}

	var cmd tea.Cmd
	a.treeView, cmd = a.treeView.Update(msg)
	a.state.MarkedID = a.treeView.MarkedID
	return a, cmd
}

func (a *App) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		a.results.MoveSelection(-1)
	case "down", "j":
		a.results.MoveSelection(1)
	case "ctrl+u", "pgup":
		a.results.PageUp()
	case "ctrl+d", "pgdown":
		a.results.PageDown()
	case "n":
		if r := a.state.Results; r != nil && r.HasMore && a.results.Note == "" {
			return a, a.runSearch(r.Next)
		}
	case "r":
		a.expression.Mode = components.ModeRefine
		a.expression.Open("")
		a.state.ViewMode = models.ExpressionMode
	}
	a.state.ResultIndex = a.results.SelectedRow
	a.refreshPreview()
	return a, nil
}

// targetDescription tells the builder where a new filter will go
func (a *App) targetDescription() string {
	if id := a.session.SelectedID(); id != "" {
		if node := filter.FindNode(a.session.Tree(), id); node != nil {
			return "next to " + runewidth.Truncate(filter.Format(node), 30, "…")
		}
	}
	return ""
}

func (a *App) treeChanged() {
	a.treeView.Sync()
	a.state.Filter.Root = a.session.Tree()
	a.state.MarkedID = a.treeView.MarkedID
	a.refreshPreview()
}

// refreshPreview shows the q parameter for the query panel and the selected
// entry for the results panel
func (a *App) refreshPreview() {
	if a.state.FocusedPanel == models.ResultsPanel {
		if e := a.results.Selected(); e != nil {
			data, err := json.Marshal(e)
			if err == nil {
				a.preview.SetContent(string(data), e.Title)
				return
			}
		}
	}

	param, err := a.session.QueryParam()
	if err != nil {
		a.preview.SetContent(err.Error(), "q")
		return
	}
	a.preview.SetContent(param, "q")
}

func (a *App) requestTimeout() time.Duration {
	if t := a.config.Server.Timeout(); t > 0 {
		return t
	}
	return 30 * time.Second
}

// runSearch submits the current tree and returns the page starting at after
func (a *App) runSearch(after int) tea.Cmd {
	if a.search == nil {
		a.ShowError("Search Unavailable", "No search backend is configured.")
		return nil
	}
	if a.searching {
		return nil
	}
	a.searching = true
	a.state.Connection.State = models.Connecting

	svc := a.search
	tree := a.session.Tree()
	timeout := a.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := svc.Run(ctx, tree, after)
		return SearchResultMsg{Result: res, Append: after > 0, Err: err}
	}
}

func (a *App) handleSearchResult(msg SearchResultMsg) (tea.Model, tea.Cmd) {
	a.searching = false
	conn := a.state.Connection

	if msg.Err != nil {
		conn.State = models.Failed
		conn.Error = msg.Err
		title := "Search Failed"
		if errors.Is(msg.Err, search.ErrUnauthorized) {
			title = "Unauthorized"
		}
		a.ShowError(title, msg.Err.Error())
		return a, nil
	}

	conn.State = models.Connected
	conn.Error = nil
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = time.Now()
	}

	res := msg.Result
	if msg.Append {
		a.serverEntries = append(a.serverEntries, res.Entries...)
		a.results.AppendEntries(res.Entries, res.HasMore)
	} else {
		a.serverEntries = append([]models.Entry(nil), res.Entries...)
		a.results.SetEntries(res.Entries, res.HasMore)
		a.results.Note = ""
	}
	a.state.Results = res
	a.status = fmt.Sprintf("%d results in %s", len(a.serverEntries), res.Duration.Round(time.Millisecond))
	a.refreshPreview()
	return a, nil
}

func (a *App) handleExpression(msg components.ExpressionSubmitMsg) (tea.Model, tea.Cmd) {
	if msg.Mode == components.ModeRefine {
		// Refinement trees are throwaway; they never enter the session
		tree, err := filter.ParseExpression(msg.Text, filter.NewIDGenerator())
		if err != nil {
			a.expression.SetError(err)
			return a, nil
		}
		return a, refine(append([]models.Entry(nil), a.serverEntries...), tree, msg.Text)
	}

	tree, err := filter.ParseExpression(msg.Text, a.session.IDs())
	if err != nil {
		a.expression.SetError(err)
		return a, nil
	}
	a.session.Load(tree)
	a.treeChanged()
	a.state.ViewMode = models.NormalMode
	if tree == nil {
		return a, nil
	}
	return a, a.runSearch(0)
}

// refine filters entries through a throwaway in-memory index
func refine(entries []models.Entry, tree models.QueryNode, expression string) tea.Cmd {
	return func() tea.Msg {
		idx, err := index.New()
		if err != nil {
			return RefineResultMsg{Err: err}
		}
		defer func() { _ = idx.Close() }()

		if err := idx.Add(entries); err != nil {
			return RefineResultMsg{Err: err}
		}
		refined, err := idx.Refine(context.Background(), tree)
		return RefineResultMsg{Entries: refined, Expression: expression, Err: err}
	}
}

func (a *App) loadList(l models.CustomList) (tea.Model, tea.Cmd) {
	tree, err := a.lists.Tree(l.ID, a.session.IDs())
	if err != nil {
		a.ShowError("List Error", err.Error())
		return a, nil
	}
	if err := a.lists.RecordUsage(l.ID); err != nil {
		a.logger.Warn("failed to record list usage", zap.String("id", l.ID), zap.Error(err))
	}

	a.session.Load(tree)
	a.treeChanged()
	a.state.ViewMode = models.NormalMode
	a.status = "Loaded " + l.Name
	return a, a.runSearch(0)
}

func (a *App) saveList(msg components.SaveListMsg) (tea.Model, tea.Cmd) {
	l, err := a.lists.Add(msg.Name, msg.Description, a.state.Library, a.session.Tree(), msg.Tags)
	if err != nil {
		a.ShowError("Save Failed", err.Error())
		return a, nil
	}
	a.listsDialog.SetLists(a.lists.GetAll())
	a.state.ViewMode = models.NormalMode
	a.status = "Saved " + l.Name
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	if a.showError {
		return a.place(a.errorOverlay.View())
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme)
	case models.BuilderMode:
		return a.place(a.builder.View())
	case models.ListsMode:
		a.listsDialog.Width = min(a.state.Width-4, 80)
		a.listsDialog.Height = min(a.state.Height-4, 24)
		return a.place(a.listsDialog.View())
	}

	return a.renderNormalView()
}

func (a *App) place(content string) string {
	return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) renderNormalView() string {
	conn := a.state.Connection
	topLeft := fmt.Sprintf("lazycirc · %s · %s", a.state.Library, conn.Backend)
	topRight := conn.State.String()
	if a.searching {
		topRight = "searching…"
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(topLeft, topRight))

	bottomLeft := "[a] Add  [/] Expression  [s] Search  [L] Lists  [?] Help"
	if a.treeView.MarkedID != "" {
		bottomLeft = "Move the cursor to a target and press Enter to drop, Esc to cancel"
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomLeft, a.status))

	a.queryPanel.Focused = a.state.FocusedPanel == models.QueryPanel
	a.resultsPanel.Focused = a.state.FocusedPanel == models.ResultsPanel

	a.treeView.Width = a.queryPanel.Width
	a.treeView.Height = a.queryPanel.Height
	a.queryPanel.Content = a.treeView.View()

	a.results.Width = a.resultsPanel.Width
	a.results.Height = a.resultsPanel.Height - 1
	a.resultsPanel.Content = a.results.View()

	rows := []string{topBar}
	if a.state.ViewMode == models.ExpressionMode {
		a.expression.Width = a.state.Width - 2
		rows = append(rows, a.expression.View())
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, a.queryPanel.View(), a.resultsPanel.View()))
	if a.preview.Visible {
		a.preview.Width = a.state.Width
		rows = append(rows, a.preview.View())
	}
	rows = append(rows, bottomBar)

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Top and bottom bars, panel borders, optional preview
	contentHeight := max(a.state.Height-4-a.preview.Height(), 5)

	queryWidth := max(a.state.Width*a.state.QueryWidth/100, 24)
	resultsWidth := a.state.Width - queryWidth - 4
	if resultsWidth < 20 {
		resultsWidth = 20
		queryWidth = max(a.state.Width-resultsWidth-4, 10)
	}

	a.queryPanel.Width = queryWidth
	a.queryPanel.Height = contentHeight
	a.resultsPanel.Width = resultsWidth
	a.resultsPanel.Height = contentHeight
}

// formatStatusBar lays out left and right aligned text in one line
func (a *App) formatStatusBar(left, right string) string {
	available := max(a.state.Width-4, 0)
	lw, rw := runewidth.StringWidth(left), runewidth.StringWidth(right)

	if lw+rw+1 > available {
		return runewidth.Truncate(left, max(available-rw-1, 0), "…") + " " + right
	}
	return runewidth.FillRight(left, available-rw) + right
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.logger.Warn(title, zap.String("message", message))
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}
