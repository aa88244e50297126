package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the board.
type KeyMap struct {
	// Cursor
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Reorder: carry the selected card with the cursor
	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding

	Open key.Binding
	Back key.Binding
	Quit key.Binding

	// Tasks
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Done   key.Binding

	// Containers
	Inbox       key.Binding
	NextProject key.Binding
	PrevProject key.Binding
	Projects    key.Binding
	Sidebar     key.Binding

	Search  key.Binding
	Command key.Binding
	Help    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move card up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move card down"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move card left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move card right"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open note"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit task"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete task"),
		),
		Done: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "mark done"),
		),
		Inbox: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "inbox"),
		),
		NextProject: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next project"),
		),
		PrevProject: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous project"),
		),
		Projects: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "manage projects"),
		),
		Sidebar: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "toggle sidebar"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter cards"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Left, k.Right, k.Open, k.New,
		k.MoveLeft, k.MoveRight, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Open, k.Back},
		{k.MoveUp, k.MoveDown, k.MoveLeft, k.MoveRight, k.Done},
		{k.New, k.Edit, k.Delete, k.Search},
		{k.Inbox, k.PrevProject, k.NextProject, k.Projects, k.Sidebar},
		{k.Command, k.Help, k.Quit},
	}
}
