package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Store 消息列表的持久化来源
type Store interface {
	Load(ctx context.Context) ([]Message, error)
	Save(ctx context.Context, messages []Message) error
}

// RefreshResult 一次刷新的结果
type RefreshResult int

const (
	// RefreshUpdated 取到更长的列表并已替换
	RefreshUpdated RefreshResult = iota
	// RefreshEmpty 存储中没有数据
	RefreshEmpty
	// RefreshNotNewer 取到的列表不比当前长，忽略
	RefreshNotNewer
	// RefreshBusy 已有刷新在进行
	RefreshBusy
	// RefreshFailed 读取存储失败，状态不变
	RefreshFailed
	// RefreshStale 读取期间本地序列被修改，结果作废
	RefreshStale
)

func (r RefreshResult) String() string {
	switch r {
	case RefreshUpdated:
		return "updated"
	case RefreshEmpty:
		return "empty"
	case RefreshNotNewer:
		return "not-newer"
	case RefreshBusy:
		return "busy"
	case RefreshFailed:
		return "failed"
	case RefreshStale:
		return "stale"
	default:
		return fmt.Sprintf("RefreshResult(%d)", int(r))
	}
}

// ListViewModel 消息列表视图模型：
// 维护消息序列、可见窗口、刷新状态和滚动到底部的意图。
type ListViewModel struct {
	session     *Session
	store       Store
	logger      *zap.Logger
	windowSize  int
	refreshing  bool
	scrollToEnd bool
	timeIndex   int
	// version 本地修改计数，fetchVersion 为刷新开始时的值
	version      uint64
	fetchVersion uint64
}

// NewListViewModel 创建视图模型；windowSize <= 0 表示显示全部消息
func NewListViewModel(session *Session, store Store, windowSize int, logger *zap.Logger) *ListViewModel {
	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListViewModel{
		session:    session,
		store:      store,
		logger:     logger,
		windowSize: windowSize,
		timeIndex:  -1,
	}
}

// Session 返回共享会话
func (vm *ListViewModel) Session() *Session {
	return vm.session
}

// Selection 返回共享的选择集合
func (vm *ListViewModel) Selection() *Selection {
	return vm.session.selection
}

// Messages 当前完整消息序列，调用方不得修改
func (vm *ListViewModel) Messages() []Message {
	return vm.session.messages
}

// Len 当前消息数量
func (vm *ListViewModel) Len() int {
	return len(vm.session.messages)
}

// WindowSize 可见窗口上限
func (vm *ListViewModel) WindowSize() int {
	return vm.windowSize
}

// SetWindowSize 修改可见窗口上限
func (vm *ListViewModel) SetWindowSize(n int) {
	vm.windowSize = n
	vm.timeIndex = -1
}

// Visible 当前可见窗口
func (vm *ListViewModel) Visible() []Message {
	return VisibleWindow(vm.session.messages, vm.windowSize)
}

// Snapshot 返回消息序列的副本，用于在事件循环之外持久化
func (vm *ListViewModel) Snapshot() []Message {
	out := make([]Message, len(vm.session.messages))
	copy(out, vm.session.messages)
	return out
}

// MessagesShown 消息是否已经从存储加载并展示过
func (vm *ListViewModel) MessagesShown() bool {
	return vm.session.messagesShown
}

// Refreshing 是否有刷新在进行
func (vm *ListViewModel) Refreshing() bool {
	return vm.refreshing
}

// BeginRefresh 标记刷新开始；已有刷新在进行时返回 false
func (vm *ListViewModel) BeginRefresh() bool {
	if vm.refreshing {
		return false
	}
	vm.refreshing = true
	vm.fetchVersion = vm.version
	return true
}

// Fetch 从存储读取消息，不修改任何状态，可在事件循环之外调用
func (vm *ListViewModel) Fetch(ctx context.Context) ([]Message, error) {
	if vm.store == nil {
		return nil, nil
	}
	return vm.store.Load(ctx)
}

// ApplyFetched 在事件循环中应用读取结果并结束刷新。
// 只有严格更长的序列才会替换当前序列。
func (vm *ListViewModel) ApplyFetched(fetched []Message, err error) RefreshResult {
	vm.refreshing = false
	if err != nil {
		vm.logger.Warn("刷新消息失败", zap.Error(err))
		return RefreshFailed
	}
	if vm.fetchVersion != vm.version {
		vm.logger.Debug("刷新期间消息已被修改，丢弃结果",
			zap.Uint64("fetch_version", vm.fetchVersion),
			zap.Uint64("version", vm.version))
		return RefreshStale
	}
	if len(fetched) == 0 {
		vm.logger.Debug("存储中没有消息")
		return RefreshEmpty
	}
	if len(fetched) <= len(vm.session.messages) {
		vm.logger.Debug("没有新消息",
			zap.Int("current", len(vm.session.messages)),
			zap.Int("fetched", len(fetched)))
		return RefreshNotNewer
	}
	vm.logger.Info("消息已刷新",
		zap.Int("previous", len(vm.session.messages)),
		zap.Int("current", len(fetched)))
	vm.replace(fetched)
	vm.session.messagesShown = true
	return RefreshUpdated
}

// Refresh 同步完成一次刷新
func (vm *ListViewModel) Refresh(ctx context.Context) RefreshResult {
	if !vm.BeginRefresh() {
		return RefreshBusy
	}
	fetched, err := vm.Fetch(ctx)
	return vm.ApplyFetched(fetched, err)
}

// Append 追加一条消息
func (vm *ListViewModel) Append(msg Message) {
	next := make([]Message, 0, len(vm.session.messages)+1)
	next = append(next, vm.session.messages...)
	vm.replace(append(next, msg))
	vm.version++
}

// Persist 保存快照到存储
func (vm *ListViewModel) Persist(ctx context.Context, snapshot []Message) error {
	if vm.store == nil {
		return nil
	}
	if err := vm.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("保存消息失败: %w", err)
	}
	return nil
}

// Select 单击消息：在选择模式中切换该消息
func (vm *ListViewModel) Select(id string) bool {
	return vm.session.selection.Toggle(id)
}

// LongPress 长按消息：以该消息开始选择模式
func (vm *ListViewModel) LongPress(id string) {
	vm.session.selection.StartWith(id)
}

// SelectionActive 选择模式是否激活
func (vm *ListViewModel) SelectionActive() bool {
	return vm.session.selection.Active()
}

// SelectedMessages 按消息顺序返回已选消息
func (vm *ListViewModel) SelectedMessages() []Message {
	sel := vm.session.selection
	if !sel.Active() {
		return nil
	}
	var out []Message
	for _, m := range vm.session.messages {
		if sel.Contains(m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// DeleteSelected 删除已选消息并退出选择模式，返回删除数量
func (vm *ListViewModel) DeleteSelected() int {
	sel := vm.session.selection
	if !sel.Active() {
		return 0
	}
	kept := make([]Message, 0, len(vm.session.messages))
	for _, m := range vm.session.messages {
		if !sel.Contains(m.ID) {
			kept = append(kept, m)
		}
	}
	removed := len(vm.session.messages) - len(kept)
	sel.Clear()
	vm.replace(kept)
	vm.version++
	return removed
}

// OnFocusLost 离开视图时退出选择模式；返回是否清空了选择
func (vm *ListViewModel) OnFocusLost() bool {
	if !vm.session.selection.Active() {
		return false
	}
	vm.session.selection.Clear()
	return true
}

// OnKeyboardShown 输入框弹出时滚动到底部
func (vm *ListViewModel) OnKeyboardShown() {
	vm.scrollToEnd = true
}

// RequestScrollToEnd 显式请求滚动到底部
func (vm *ListViewModel) RequestScrollToEnd() {
	vm.scrollToEnd = true
}

// ConsumeScrollToEnd 读取并复位滚动意图
func (vm *ListViewModel) ConsumeScrollToEnd() bool {
	v := vm.scrollToEnd
	vm.scrollToEnd = false
	return v
}

// ToggleTimeLabel 切换可见窗口中第 index 条消息的时间标签，同一时刻最多显示一个
func (vm *ListViewModel) ToggleTimeLabel(index int) {
	if index == vm.timeIndex {
		vm.timeIndex = -1
		return
	}
	vm.timeIndex = index
}

// TimeLabelIndex 当前显示时间标签的可见索引，没有时 ok 为 false
func (vm *ListViewModel) TimeLabelIndex() (int, bool) {
	return vm.timeIndex, vm.timeIndex >= 0
}

// Version 本地修改次数，Append 和 DeleteSelected 会增加它
func (vm *ListViewModel) Version() uint64 {
	return vm.version
}

// SetProcessing 设置外部处理中标志
func (vm *ListViewModel) SetProcessing(processing bool) {
	if processing && !vm.session.processing {
		vm.scrollToEnd = true
	}
	vm.session.processing = processing
}

// Processing 是否有外部处理在进行
func (vm *ListViewModel) Processing() bool {
	return vm.session.processing
}

// replace 替换消息序列；序列变化总是触发滚动到底部
func (vm *ListViewModel) replace(messages []Message) {
	vm.session.messages = messages
	vm.timeIndex = -1
	vm.scrollToEnd = true
}
