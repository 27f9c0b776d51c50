package tui

import "github.com/Zacy-Sokach/PolyChat/internal/chat"

// StoreChangedMsg 存储内容在外部发生变化，触发一次刷新
type StoreChangedMsg struct{}

// ProcessingMsg 外部处理中标志发生变化
type ProcessingMsg struct {
	Processing bool
}

type refreshDoneMsg struct {
	fetched []chat.Message
	err     error
}

type persistDoneMsg struct {
	action string
	err    error
}

type clipboardDoneMsg struct {
	count int
	err   error
}
