package prompt

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smartcontractkit/forge-flow/selection"
)

// ErrCancelled is returned when the operator leaves the list without choosing.
var ErrCancelled = errors.New("selection cancelled")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			PaddingLeft(2)
)

const noneOption = "(none)"

type optionItem struct {
	index   int
	label   string
	checked bool
	multi   bool
}

func (i optionItem) Title() string {
	if !i.multi {
		return i.label
	}
	if i.checked {
		return "[x] " + i.label
	}
	return "[ ] " + i.label
}

func (i optionItem) Description() string { return "" }
func (i optionItem) FilterValue() string { return i.label }

type chooserModel struct {
	list      list.Model
	multi     bool
	picked    []int
	chosen    int
	done      bool
	cancelled bool
}

func newChooserModel(title string, options []string, allowNone, multi bool) chooserModel {
	items := make([]list.Item, 0, len(options)+1)
	if allowNone {
		items = append(items, optionItem{index: -1, label: noneOption})
	}
	for i, option := range options {
		items = append(items, optionItem{index: i, label: option, multi: multi})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	l := list.New(items, delegate, 60, 20)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	return chooserModel{list: l, multi: multi, chosen: -1}
}

func (m chooserModel) Init() tea.Cmd {
	return nil
}

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		case " ":
			if m.multi {
				m.toggle()
				return m, nil
			}
		case "enter":
			item, ok := m.list.SelectedItem().(optionItem)
			if !m.multi && ok {
				m.chosen = item.index
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// toggle flips the highlighted option and records pick order.
func (m *chooserModel) toggle() {
	i := m.list.Index()
	item, ok := m.list.SelectedItem().(optionItem)
	if !ok {
		return
	}
	item.checked = !item.checked
	if item.checked {
		m.picked = append(m.picked, item.index)
	} else {
		m.picked = slices.DeleteFunc(m.picked, func(p int) bool { return p == item.index })
	}
	m.list.SetItem(i, item)
}

func (m chooserModel) View() string {
	help := "enter: choose, /: filter, esc: cancel"
	if m.multi {
		help = "space: toggle, enter: confirm, /: filter, esc: cancel"
	}
	return m.list.View() + "\n" + helpStyle.Render(help)
}

// ListChooser runs a full screen list for manual selection.
type ListChooser struct {
	in  io.Reader
	out io.Writer
}

var _ selection.Chooser = (*ListChooser)(nil)

// NewListChooser reads keys from in and draws on out.
func NewListChooser(in io.Reader, out io.Writer) *ListChooser {
	return &ListChooser{in: in, out: out}
}

func (c *ListChooser) run(model chooserModel) (chooserModel, error) {
	final, err := tea.NewProgram(model, tea.WithInput(c.in), tea.WithOutput(c.out), tea.WithAltScreen()).Run()
	if err != nil {
		return chooserModel{}, fmt.Errorf("failed to run chooser: %w", err)
	}
	result, ok := final.(chooserModel)
	if !ok || result.cancelled || !result.done {
		return chooserModel{}, ErrCancelled
	}
	return result, nil
}

// ChooseOne returns -1 when "(none)" is chosen.
func (c *ListChooser) ChooseOne(title string, options []string, allowNone bool) (int, error) {
	result, err := c.run(newChooserModel(title, options, allowNone, false))
	if err != nil {
		return 0, err
	}
	return result.chosen, nil
}

func (c *ListChooser) ChooseMany(title string, options []string) ([]int, error) {
	result, err := c.run(newChooserModel(title, options, false, true))
	if err != nil {
		return nil, err
	}
	return result.picked, nil
}
