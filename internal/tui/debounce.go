package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type debounceKind int

const (
	debounceKeyboard debounceKind = iota
	debouncePull
)

type debounceMsg struct {
	kind debounceKind
	tag  int
}

// debouncer 每次触发都会让之前尚未到期的同类消息失效
type debouncer struct {
	delay time.Duration
	tags  map[debounceKind]int
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, tags: make(map[debounceKind]int)}
}

func (d *debouncer) trigger(kind debounceKind) tea.Cmd {
	d.tags[kind]++
	tag := d.tags[kind]
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return debounceMsg{kind: kind, tag: tag}
	})
}

// fire 是否是该类最近一次触发
func (d *debouncer) fire(msg debounceMsg) bool {
	return d.tags[msg.kind] == msg.tag
}
