package chat

// DefaultWindowSize 默认只渲染最近的15条消息
const DefaultWindowSize = 15

// VisibleWindow 返回 full 的末尾至多 max 个元素，保持原有顺序。
// max <= 0 表示不截断。返回值与 full 共享底层数组。
func VisibleWindow[T any](full []T, max int) []T {
	if max <= 0 || len(full) <= max {
		return full
	}
	return full[len(full)-max:]
}
