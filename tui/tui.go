// Package tui is a terminal client for the taskwell API: it loads the
// caller's items on start and supports add, edit, toggle-done, delete and
// completion filtering. The list it renders is a transient copy, mutated only
// after the API call behind an action completes - a failed action surfaces a
// status message but doesn't re-fetch.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/taskwell/taskwell/client"
	"github.com/taskwell/taskwell/models"
)

// listItem adapts a TodoItem to bubbles/list.Item
type listItem struct {
	item *models.TodoItem
}

func (i listItem) Title() string {
	box := boxUnchecked
	if i.item.Done {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.item.Name)
}

func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Name }

// messages produced by API commands
type (
	itemsLoadedMsg struct{ items []*models.TodoItem }
	itemCreatedMsg struct{ item *models.TodoItem }
	itemUpdatedMsg struct{ index int }
	itemDeletedMsg struct{ index int }
	apiErrMsg      struct{ err error }
)

// Model is the Bubble Tea model for the client view
type Model struct {
	api    *client.Client
	filter models.Filter

	list   list.Model
	ti     textinput.Model
	status string

	adding    bool
	editing   bool
	editIndex int
}

// New creates a new client view backed by the given API client
func New(api *client.Client) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = titleStyle.Render("Todos")
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetStatusBarItemName("item", "items")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle done"))
	filterBind := key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle filter"))
	deleteBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	reloadBind := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
	binds := func() []key.Binding {
		return []key.Binding{addBind, editBind, toggleBind, deleteBind, filterBind, reloadBind}
	}
	l.AdditionalShortHelpKeys = binds
	l.AdditionalFullHelpKeys = binds

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item name..."
	ti.CharLimit = 200

	return Model{api: api, filter: models.FilterAll, list: l, ti: ti}
}

// itemDelegate renders items as single lines
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := mutedStyle.Render(boxUnchecked)
	text := it.item.Name
	if it.item.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	due := mutedStyle.Render(" due " + it.item.DueDate)

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text+due)
}

func (m Model) Init() tea.Cmd { return m.loadItems() }

func (m Model) loadItems() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		items, err := m.api.ListTodos(filter)
		if err != nil {
			return apiErrMsg{err}
		}
		return itemsLoadedMsg{items}
	}
}

func (m Model) createItem(name string) tea.Cmd {
	return func() tea.Msg {
		item, err := m.api.CreateTodo(name, time.Now().AddDate(0, 0, 7).Format(time.DateOnly))
		if err != nil {
			return apiErrMsg{err}
		}
		return itemCreatedMsg{item}
	}
}

func (m Model) updateItem(index int, item *models.TodoItem) tea.Cmd {
	update := &models.TodoUpdate{Name: item.Name, DueDate: item.DueDate, Done: item.Done}
	itemID := item.ItemID
	return func() tea.Msg {
		if err := m.api.UpdateTodo(itemID, update); err != nil {
			return apiErrMsg{err}
		}
		return itemUpdatedMsg{index}
	}
}

func (m Model) deleteItem(index int, itemID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.api.DeleteTodo(itemID); err != nil {
			return apiErrMsg{err}
		}
		return itemDeletedMsg{index}
	}
}

func (m Model) selected() (int, *models.TodoItem) {
	i := m.list.Index()
	if i < 0 || i >= len(m.list.Items()) {
		return -1, nil
	}
	li, ok := m.list.Items()[i].(listItem)
	if !ok {
		return -1, nil
	}
	return i, li.item
}

func nextFilter(f models.Filter) models.Filter {
	switch f {
	case models.FilterAll:
		return models.FilterTodo
	case models.FilterTodo:
		return models.FilterDone
	default:
		return models.FilterAll
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		li := make([]list.Item, len(msg.items))
		for i, item := range msg.items {
			li[i] = listItem{item}
		}
		m.list.SetItems(li)
		m.list.Title = fmt.Sprintf("%s  %s", titleStyle.Render("Todos"), accentStyle.Render(string(m.filter)))
		m.status = ""
		return m, nil

	case itemCreatedMsg:
		m.list.InsertItem(len(m.list.Items()), listItem{msg.item})
		m.status = "created"
		return m, nil

	case itemUpdatedMsg:
		m.status = "saved"
		return m, nil

	case itemDeletedMsg:
		m.list.RemoveItem(msg.index)
		m.status = "deleted"
		return m, nil

	case apiErrMsg:
		m.status = errorStyle.Render(msg.err.Error())
		return m, nil

	case tea.WindowSizeMsg:
		height := msg.Height - 3
		if m.adding || m.editing {
			height -= 3
		}
		m.list.SetSize(msg.Width, height)
		return m, nil
	}

	// inline add/edit mode swallows keys until enter or esc
	if m.adding || m.editing {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "enter":
				name := strings.TrimSpace(m.ti.Value())
				if name == "" {
					m.status = errorStyle.Render("name cannot be empty")
					return m, nil
				}
				var cmd tea.Cmd
				if m.adding {
					cmd = m.createItem(name)
				} else if index, item := m.editIndex, m.editItem(); item != nil {
					item.Name = name
					cmd = m.updateItem(index, item)
				}
				m.ti.SetValue("")
				m.ti.Blur()
				m.adding, m.editing = false, false
				return m, cmd
			case "esc":
				m.ti.SetValue("")
				m.ti.Blur()
				m.adding, m.editing = false, false
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			if index, item := m.selected(); item != nil {
				item.Done = !item.Done
				m.list.SetItem(index, listItem{item})
				return m, m.updateItem(index, item)
			}
			return m, nil
		case "d":
			if index, item := m.selected(); item != nil {
				return m, m.deleteItem(index, item.ItemID)
			}
			return m, nil
		case "a":
			m.adding = true
			m.ti.SetValue("")
			m.ti.Placeholder = "New item name..."
			m.ti.Focus()
			return m, nil
		case "e":
			if index, item := m.selected(); item != nil {
				m.editing = true
				m.editIndex = index
				m.ti.SetValue(item.Name)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item name..."
				m.ti.Focus()
			}
			return m, nil
		case "f":
			m.filter = nextFilter(m.filter)
			return m, m.loadItems()
		case "r":
			return m, m.loadItems()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) editItem() *models.TodoItem {
	if m.editIndex < 0 || m.editIndex >= len(m.list.Items()) {
		return nil
	}
	li, ok := m.list.Items()[m.editIndex].(listItem)
	if !ok {
		return nil
	}
	return li.item
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding || m.editing {
		title := "Add new item"
		if m.editing {
			title = "Edit item"
		}
		content += "\n" + inputBarStyle.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		content += "\n" + pendingStyle.Render(m.status)
	}
	return content
}
