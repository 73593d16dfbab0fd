package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds user key overrides. Blank fields keep the defaults.
type KeyConfig struct {
	PickUp    string
	Drop      string
	NewTask   string
	Duplicate string
	Delete    string
	Edit      string
	Filter    string
	Copy      string
}

// keyMap holds the board bindings shown in the help bar.
type keyMap struct {
	quit         key.Binding
	toggleHelp   key.Binding
	moveLeft     key.Binding
	moveRight    key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	pickUp       key.Binding
	drop         key.Binding
	addTask      key.Binding
	editTask     key.Binding
	duplicate    key.Binding
	deleteTask   key.Binding
	taskInfo     key.Binding
	copyTask     key.Binding
	filter       key.Binding
	clearFilter  key.Binding
	renameColumn key.Binding
	columnLimit  key.Binding
	activityLog  key.Binding
	reload       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		pickUp:       key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pick up")),
		drop:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		addTask:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		duplicate:    key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "duplicate")),
		deleteTask:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		taskInfo:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		copyTask:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		clearFilter:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		renameColumn: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename column")),
		columnLimit:  key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "wip limit")),
		activityLog:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "activity log")),
		reload:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	}
}

// applyConfig overrides configurable bindings while keeping help labels.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.pickUp, cfg.PickUp, "space", "pick up")
	configureBinding(&k.drop, cfg.Drop, "enter", "drop")
	configureBinding(&k.addTask, cfg.NewTask, "n", "new task")
	configureBinding(&k.duplicate, cfg.Duplicate, "D", "duplicate")
	configureBinding(&k.deleteTask, cfg.Delete, "x", "delete")
	configureBinding(&k.editTask, cfg.Edit, "e", "edit task")
	configureBinding(&k.filter, cfg.Filter, "/", "filter")
	configureBinding(&k.copyTask, cfg.Copy, "y", "copy title")
}

// ShortHelp returns the bindings shown in the collapsed help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.pickUp, k.drop, k.addTask, k.editTask, k.filter, k.taskInfo, k.toggleHelp, k.quit,
	}
}

// FullHelp returns grouped bindings for the expanded help bar.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.pickUp, k.drop},
		{k.addTask, k.editTask, k.duplicate, k.deleteTask, k.taskInfo, k.copyTask},
		{k.filter, k.clearFilter, k.renameColumn, k.columnLimit, k.activityLog, k.reload, k.toggleHelp, k.quit},
	}
}

// configureBinding replaces the keys of b from a configured value.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, helpKey := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(helpKey, desc)
}

// parseBindingKeys expands one configured key into the matcher strings
// bubbletea reports for it. Single uppercase runes also match their
// shift form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	value := strings.TrimSpace(raw)
	if value == "" && raw != "" {
		value = " "
	}
	if value == "" {
		value = fallback
	}
	if value == " " || strings.EqualFold(value, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}
