package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Bottom    key.Binding
	Select    key.Binding
	LongPress key.Binding
	TimeLabel key.Binding
	Cancel    key.Binding
	Copy      key.Binding
	Delete    key.Binding
	Refresh   key.Binding
	Focus     key.Binding
	Send      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "上一条"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "下一条"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "到底部"),
		),
		Select: key.NewBinding(
			key.WithKeys(" ", "space", "enter"),
			key.WithHelp("space", "选择"),
		),
		LongPress: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "多选"),
		),
		TimeLabel: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "时间"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "取消"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "复制"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "删除"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "刷新"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "切换输入"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "发送"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "退出"),
		),
	}
}

// ShortHelp 浏览模式下的帮助
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.LongPress, k.TimeLabel, k.Refresh, k.Focus, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Bottom},
		{k.Select, k.LongPress, k.TimeLabel},
		{k.Copy, k.Delete, k.Cancel},
		{k.Refresh, k.Focus, k.Send, k.Quit},
	}
}

// composerKeys 输入模式下的帮助
type composerKeys struct{ k keyMap }

func (c composerKeys) ShortHelp() []key.Binding {
	return []key.Binding{c.k.Send, c.k.Focus, c.k.Cancel, c.k.Quit}
}

func (c composerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{c.ShortHelp()}
}

// selectionKeys 选择模式下的帮助
type selectionKeys struct{ k keyMap }

func (s selectionKeys) ShortHelp() []key.Binding {
	return []key.Binding{s.k.Select, s.k.Copy, s.k.Delete, s.k.Cancel}
}

func (s selectionKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{s.ShortHelp()}
}
