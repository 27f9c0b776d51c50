package chat

// Session 各视图组件共享的对话状态，以指针传递。
// 读写只能经由 Selection 和 ListViewModel 进行。
type Session struct {
	messages      []Message
	selection     *Selection
	processing    bool
	messagesShown bool
}

// NewSession 创建空会话
func NewSession() *Session {
	return &Session{
		selection: NewSelection(),
	}
}

// Selection 返回会话的选择集合
func (s *Session) Selection() *Selection {
	return s.selection
}
