package chat

// Selection 已选消息的集合，按加入顺序保存消息ID。
// 选择模式是否激活完全由集合大小决定。
type Selection struct {
	ids []string
}

// NewSelection 创建空的选择集合
func NewSelection() *Selection {
	return &Selection{}
}

// Toggle 已存在则移除，否则追加；返回选择模式是否仍然激活
func (s *Selection) Toggle(id string) bool {
	if i := s.indexOf(id); i >= 0 {
		next := make([]string, 0, len(s.ids)-1)
		next = append(next, s.ids[:i]...)
		s.ids = append(next, s.ids[i+1:]...)
	} else {
		s.ids = append(s.ids, id)
	}
	return s.Active()
}

// StartWith 用单个消息替换整个集合（长按进入选择模式）
func (s *Selection) StartWith(id string) {
	s.ids = []string{id}
}

// Clear 清空集合并退出选择模式
func (s *Selection) Clear() {
	s.ids = nil
}

// Contains 判断消息是否已选
func (s *Selection) Contains(id string) bool {
	return s.indexOf(id) >= 0
}

// Len 已选数量
func (s *Selection) Len() int {
	return len(s.ids)
}

// Active 选择模式是否激活
func (s *Selection) Active() bool {
	return len(s.ids) > 0
}

// IDs 返回已选ID的副本
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Selection) indexOf(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}
