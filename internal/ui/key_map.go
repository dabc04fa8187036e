package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	nextTab  key.Binding
	prevTab  key.Binding
	refresh  key.Binding
	search   key.Binding
	provider key.Binding
	channel  key.Binding
	prevDay  key.Binding
	nextDay  key.Binding
	prevPage key.Binding
	nextPage key.Binding
	sync     key.Binding
	syncAll  key.Binding
	remove   key.Binding
	yes      key.Binding
	no       key.Binding
	back     key.Binding
	submit   key.Binding
	logout   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		nextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		prevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		provider: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "provider")),
		channel:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "channel")),
		prevDay:  key.NewBinding(key.WithKeys("<", ","), key.WithHelp("<", "prev day")),
		nextDay:  key.NewBinding(key.WithKeys(">", "."), key.WithHelp(">", "next day")),
		prevPage: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev page")),
		nextPage: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
		sync:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync channel")),
		syncAll:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync all")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in")),
		logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextTab, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextTab, k.prevTab, k.refresh},
		{k.search, k.provider, k.channel},
		{k.prevDay, k.nextDay, k.prevPage, k.nextPage},
		{k.sync, k.syncAll, k.remove},
		{k.logout, k.quit},
	}
}

// tabHelp returns the bindings shown under tab t.
func (k keyMap) tabHelp(t Tab) []key.Binding {
	switch t {
	case ChannelsTab:
		return []key.Binding{k.sync, k.syncAll, k.remove, k.refresh, k.nextTab, k.logout, k.quit}
	case MappingsTab:
		return []key.Binding{k.search, k.provider, k.refresh, k.nextTab, k.quit}
	case ProgramsTab:
		return []key.Binding{k.channel, k.prevDay, k.nextDay, k.prevPage, k.nextPage, k.nextTab, k.quit}
	default:
		return []key.Binding{k.syncAll, k.nextTab, k.quit}
	}
}
