package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// AddFilterMsg is sent when the builder form is submitted for a new filter
type AddFilterMsg struct {
	Key        models.FieldKey
	Op         models.FilterOperator
	Value      string
	Combinator models.Combinator
	Clear      bool
}

// UpdateFilterMsg is sent when an existing filter was edited
type UpdateFilterMsg struct {
	ID    string
	Key   models.FieldKey
	Op    models.FilterOperator
	Value string
}

// CloseQueryBuilderMsg is sent when the builder should close
type CloseQueryBuilderMsg struct{}

type builderStep int

const (
	stepField builderStep = iota
	stepOperator
	stepValue
)

// QueryBuilder is the field / operator / value form used to add filters
// to the query tree
type QueryBuilder struct {
	Width  int
	Height int
	Theme  theme.Theme

	fields        []filter.FieldSpec
	step          builderStep
	fieldIndex    int
	operatorIndex int
	operators     []models.FilterOperator
	value         textinput.Model

	combinator models.Combinator
	clear      bool
	// editingID is set when the form edits an existing filter
	editingID string
	// target describes where a new filter will be placed
	target          string
	validationError string
}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder(th theme.Theme) *QueryBuilder {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	qb := &QueryBuilder{
		Width:      70,
		Height:     22,
		Theme:      th,
		fields:     filter.Fields(),
		value:      ti,
		combinator: models.CombinatorAnd,
	}
	qb.selectField(0)
	return qb
}

// Open resets the form for a new filter. target is shown to the user,
// e.g. "next to genre = Horror".
func (qb *QueryBuilder) Open(comb models.Combinator, target string) {
	if comb.Valid() {
		qb.combinator = comb
	}
	qb.clear = false
	qb.editingID = ""
	qb.target = target
	qb.validationError = ""
	qb.step = stepField
	qb.value.SetValue("")
	qb.value.Blur()
}

// Edit opens the form prefilled with an existing filter
func (qb *QueryBuilder) Edit(f *models.ValueFilter) {
	qb.Open(qb.combinator, "")
	qb.editingID = f.ID
	for i, spec := range qb.fields {
		if spec.Key == f.Key {
			qb.selectField(i)
		}
	}
	for i, op := range qb.operators {
		if op == f.Op {
			qb.operatorIndex = i
		}
	}
	qb.value.SetValue(f.Value)
	qb.value.CursorEnd()
	qb.step = stepValue
	qb.value.Focus()
}

// Editing reports whether the form edits an existing filter
func (qb *QueryBuilder) Editing() bool {
	return qb.editingID != ""
}

// Combinator returns the combinator new filters are joined with
func (qb *QueryBuilder) Combinator() models.Combinator {
	return qb.combinator
}

// Clear reports whether submitting replaces the whole tree
func (qb *QueryBuilder) Clear() bool {
	return qb.clear
}

func (qb *QueryBuilder) selectField(i int) {
	qb.fieldIndex = i
	qb.operators = filter.GetOperatorsForField(qb.fields[i].Key)
	qb.operatorIndex = 0
	qb.value.Placeholder = filter.ValueHint(qb.fields[i].Key)
}

func (qb *QueryBuilder) field() filter.FieldSpec {
	return qb.fields[qb.fieldIndex]
}

func (qb *QueryBuilder) operator() models.FilterOperator {
	return qb.operators[qb.operatorIndex]
}

// Update handles keyboard input
func (qb *QueryBuilder) Update(msg tea.KeyMsg) (*QueryBuilder, tea.Cmd) {
	// Toggles work in every step; tab never types into the value
	switch msg.String() {
	case "tab":
		if !qb.Editing() {
			qb.combinator = qb.combinator.Toggle()
		}
		return qb, nil
	case "ctrl+x":
		if !qb.Editing() {
			qb.clear = !qb.clear
		}
		return qb, nil
	}

	switch qb.step {
	case stepField:
		return qb.handleFieldStep(msg)
	case stepOperator:
		return qb.handleOperatorStep(msg)
	case stepValue:
		return qb.handleValueStep(msg)
	}
	return qb, nil
}

func (qb *QueryBuilder) handleFieldStep(msg tea.KeyMsg) (*QueryBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return qb, func() tea.Msg { return CloseQueryBuilderMsg{} }
	case "up", "k":
		if qb.fieldIndex > 0 {
			qb.selectField(qb.fieldIndex - 1)
		}
	case "down", "j":
		if qb.fieldIndex < len(qb.fields)-1 {
			qb.selectField(qb.fieldIndex + 1)
		}
	case "enter", "right", "l":
		qb.step = stepOperator
		qb.validationError = ""
	}
	return qb, nil
}

func (qb *QueryBuilder) handleOperatorStep(msg tea.KeyMsg) (*QueryBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc", "left", "h":
		qb.step = stepField
	case "up", "k":
		if qb.operatorIndex > 0 {
			qb.operatorIndex--
		}
	case "down", "j":
		if qb.operatorIndex < len(qb.operators)-1 {
			qb.operatorIndex++
		}
	case "enter", "right", "l":
		qb.step = stepValue
		qb.value.Focus()
	}
	return qb, nil
}

func (qb *QueryBuilder) handleValueStep(msg tea.KeyMsg) (*QueryBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if qb.Editing() {
			return qb, func() tea.Msg { return CloseQueryBuilderMsg{} }
		}
		qb.step = stepOperator
		qb.value.Blur()
		qb.validationError = ""
		return qb, nil
	case "enter":
		return qb.submit()
	}

	var cmd tea.Cmd
	qb.value, cmd = qb.value.Update(msg)
	return qb, cmd
}

func (qb *QueryBuilder) submit() (*QueryBuilder, tea.Cmd) {
	key, op := qb.field().Key, qb.operator()
	value := strings.TrimSpace(qb.value.Value())
	if err := filter.ValidateValue(key, op, value); err != nil {
		qb.validationError = err.Error()
		return qb, nil
	}
	qb.validationError = ""

	if qb.Editing() {
		msg := UpdateFilterMsg{ID: qb.editingID, Key: key, Op: op, Value: value}
		return qb, func() tea.Msg { return msg }
	}
	msg := AddFilterMsg{Key: key, Op: op, Value: value, Combinator: qb.combinator, Clear: qb.clear}
	return qb, func() tea.Msg { return msg }
}

// Preview returns the filter being built in expression syntax
func (qb *QueryBuilder) Preview() string {
	value := qb.value.Value()
	if value == "" {
		value = "…"
	}
	f := &models.ValueFilter{Key: qb.field().Key, Op: qb.operator(), Value: value}
	return filter.Format(f)
}

// View renders the query builder
func (qb *QueryBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(qb.Theme.Foreground).
		Background(qb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	title := "Add Filter"
	if qb.Editing() {
		title = "Edit Filter"
	}
	sections = append(sections, titleStyle.Render(title))

	instructionStyle := lipgloss.NewStyle().
		Foreground(qb.Theme.Metadata).
		Padding(0, 1)
	var instructions string
	switch qb.step {
	case stepField:
		instructions = "↑↓ Select field, Enter to confirm, Esc to cancel"
	case stepOperator:
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case stepValue:
		instructions = "Type value, Enter to add, Esc to go back"
	}
	if !qb.Editing() {
		instructions += "  Tab: and/or  Ctrl+X: clear"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if qb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(qb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+qb.validationError))
	}

	sections = append(sections, "")
	switch qb.step {
	case stepField:
		sections = append(sections, "Field:")
		for i, spec := range qb.fields {
			sections = append(sections, qb.renderOption(spec.Label, i == qb.fieldIndex))
		}
	case stepOperator:
		sections = append(sections, fmt.Sprintf("Field: %s", qb.field().Label))
		sections = append(sections, "Operator:")
		for i, op := range qb.operators {
			label := string(op)
			if spec, ok := filter.LookupOperator(op); ok {
				label = fmt.Sprintf("%-2s %s", spec.Symbol, spec.Label)
			}
			sections = append(sections, qb.renderOption(label, i == qb.operatorIndex))
		}
	case stepValue:
		sections = append(sections, fmt.Sprintf("Field: %s %s", qb.field().Label, filter.Symbol(qb.operator())))
		sections = append(sections, "Value: "+qb.value.View())
	}

	if !qb.Editing() {
		sections = append(sections, "")
		comb := lipgloss.NewStyle().Foreground(qb.Theme.CombinatorColor(string(qb.combinator))).Bold(true)
		line := "Join with: " + comb.Render(strings.ToUpper(string(qb.combinator)))
		if qb.clear {
			line += lipgloss.NewStyle().Foreground(qb.Theme.Warning).Render("  (replaces all filters)")
		} else if qb.target != "" {
			line += "  " + qb.target
		}
		sections = append(sections, line)
	}

	previewStyle := lipgloss.NewStyle().
		Foreground(qb.Theme.Metadata).
		Padding(0, 1).
		Italic(true)
	sections = append(sections, "", previewStyle.Render(qb.Preview()))

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(qb.Theme.BorderFocused).
		Foreground(qb.Theme.Foreground).
		Width(qb.Width).
		Height(qb.Height).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}

func (qb *QueryBuilder) renderOption(label string, selected bool) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if selected {
		style = style.Background(qb.Theme.Selection).Foreground(qb.Theme.Foreground).Bold(true)
	}
	return style.Render("  " + label)
}
