package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	newItem    key.Binding
	itemInfo   key.Binding
	editItem   key.Binding
	deleteItem key.Binding
	grab       key.Binding
	cancel     key.Binding
	copyLink   key.Binding
	lists      key.Binding
	newList    key.Binding
	deleteList key.Binding
	rebalance  key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "job up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "job down")),
		newItem:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new job")),
		itemInfo:   key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "job details")),
		editItem:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit job")),
		deleteItem: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete job")),
		grab:       key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "pick up / drop")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		copyLink:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		lists:      key.NewBinding(key.WithKeys("p", "P"), key.WithHelp("p", "job lists")),
		newList:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new list")),
		deleteList: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete list")),
		rebalance:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "respace column")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newItem, k.itemInfo, k.grab, k.lists, k.newList, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.newItem, k.itemInfo, k.editItem, k.deleteItem, k.copyLink, k.rebalance},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.grab, k.cancel},
		{k.lists, k.newList, k.deleteList, k.reload, k.toggleHelp, k.quit},
	}
}
