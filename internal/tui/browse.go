// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/alexandria/internal/book"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the result browser.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected a book.
	ActionSelected
	// ActionStopped indicates the user quit the browser.
	ActionStopped
)

// SelectionResult holds the outcome of a browsing session.
type SelectionResult struct {
	Action    SelectionAction
	Selection *book.Record
}

type resultItem struct {
	book.RankedResult
}

func (i resultItem) Title() string {
	if i.Record.Year > 0 {
		return fmt.Sprintf("%s (%d)", i.Record.Title, i.Record.Year)
	}
	return i.Record.Title
}

func (i resultItem) FilterValue() string {
	return i.Record.Title
}

func (i resultItem) Description() string {
	return i.Record.Description
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	titleStyle    lipgloss.Style
	ratingStyle   lipgloss.Style
	metadataStyle lipgloss.Style
	overviewStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		ratingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		overviewStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
	}
}

type resultDelegate struct {
	styles itemStyles
}

func newDelegate() resultDelegate {
	return resultDelegate{styles: newItemStyles()}
}

func (d resultDelegate) Height() int                         { return 4 }
func (d resultDelegate) Spacing() int                        { return 1 }
func (d resultDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d resultDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	result, ok := item.(resultItem)
	if !ok {
		return
	}

	rec := result.Record
	description := rec.Description
	if len(description) > 0 {
		description = truncate(description, m.Width()-4)
	}

	titleLine := d.styles.titleStyle.Render(result.Title())
	metadataLine := d.styles.metadataStyle.Render(formatMetadata(rec, m.Width()-4))
	ratingLine := d.styles.ratingStyle.Render(formatRating(rec))
	overviewLine := d.styles.overviewStyle.Render(description)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, metadataLine, ratingLine, overviewLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	query  string
	result SelectionResult
}

func newModel(query string, items []resultItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	delegate := newDelegate()
	l := list.New(listItems, delegate, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:  l,
		query: query,
		result: SelectionResult{
			Action: ActionNone,
		},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(resultItem); ok {
				rec := selected.Record
				m.result = SelectionResult{
					Action:    ActionSelected,
					Selection: &rec,
				}
				return m, tea.Quit
			}
		case "ctrl+c", "q", "esc":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Results for: %s", m.query))
	listView := m.list.View()
	help := helpStyle.Render("Up/Down navigate | Enter view details | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Browse presents an interactive browser over ranked search results. The
// returned selection is the record the user wants detail for, if any.
func Browse(query string, results []book.RankedResult) (SelectionResult, error) {
	if len(results) == 0 {
		return SelectionResult{Action: ActionStopped}, nil
	}

	items := make([]resultItem, len(results))
	for i, result := range results {
		items[i] = resultItem{RankedResult: result}
	}
	m := newModel(query, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

// formatMetadata creates the metadata line with author, language, page count
// and genres.
func formatMetadata(rec book.Record, availableWidth int) string {
	var parts []string

	if author := rec.Author(); author != "" {
		parts = append(parts, author)
	}
	if rec.Language != "" {
		parts = append(parts, strings.ToUpper(rec.Language))
	}
	if rec.Pages > 0 {
		parts = append(parts, fmt.Sprintf("%dp", rec.Pages))
	}
	if len(rec.Genres) > 0 {
		parts = append(parts, strings.Join(rec.Genres, ", "))
	}

	if len(parts) == 0 {
		return "No metadata available"
	}

	metadata := strings.Join(parts, " | ")
	if availableWidth > 0 && len(metadata) > availableWidth {
		metadata = truncate(metadata, availableWidth)
	}

	return metadata
}

func formatRating(rec book.Record) string {
	if !rec.HasRating() {
		return "unrated"
	}
	if rec.RatingsCount > 0 {
		return fmt.Sprintf("%.2f/5 (%s)", rec.Rating, formatRatingsCount(rec.RatingsCount))
	}
	return fmt.Sprintf("%.2f/5", rec.Rating)
}

// formatRatingsCount formats a ratings count in a compact way
func formatRatingsCount(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%.1fK ratings", float64(count)/1000)
	}
	return fmt.Sprintf("%d ratings", count)
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
