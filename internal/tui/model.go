package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/Zacy-Sokach/PolyChat/internal/events"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const (
	composerHeight = 3
	storeTimeout   = 10 * time.Second
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// Options 创建 Model 所需的依赖
type Options struct {
	ViewModel *chat.ListViewModel
	Bus       *events.Bus
	User      config.UserConfig
	Renderer  ContentRenderer
	Debounce  time.Duration
	Logger    *zap.Logger
	// Clipboard 为空时使用系统剪贴板
	Clipboard func(string) error
}

// viewScope 视图激活期间持有的订阅
type viewScope struct {
	keyboard  *events.Subscription
	focusLost *events.Subscription
}

func (s *viewScope) active() bool {
	return s.keyboard != nil
}

// saveState 同一时刻只有一个保存在进行，期间的修改合并为下一次保存
type saveState struct {
	inFlight bool
	dirty    bool
	action   string
	// refreshPending 保存期间请求的刷新，保存结束后再执行
	refreshPending bool
}

// Model 消息面板的 Bubble Tea 模型
type Model struct {
	vm        *chat.ListViewModel
	bus       *events.Bus
	user      config.UserConfig
	logger    *zap.Logger
	clipboard func(string) error

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	list     *bubbleList
	layout   listLayout
	debounce *debouncer
	scope    *viewScope
	save     *saveState

	cursor    int
	composing bool
	ready     bool
	width     int
	height    int
	status    string
	statusErr bool
}

// New 创建聊天视图
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	vm := opts.ViewModel
	if vm == nil {
		vm = chat.NewListViewModel(nil, nil, chat.DefaultWindowSize, logger)
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}

	ta := textarea.New()
	ta.Placeholder = "输入消息..."
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(composerHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		vm:        vm,
		bus:       bus,
		user:      opts.User,
		logger:    logger,
		clipboard: copyFn,
		keys:      defaultKeyMap(),
		help:      help.New(),
		viewport:  viewport.New(80, 20),
		textarea:  ta,
		spinner:   sp,
		list:      newBubbleList(opts.Renderer, logger),
		debounce:  newDebouncer(delay),
		scope:     &viewScope{},
		save:      &saveState{},
		cursor:    -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.activate())
}

// activate 视图出现：获取订阅，首次出现时滚动到底部并刷新
func (m Model) activate() tea.Cmd {
	if !m.scope.active() {
		m.scope.keyboard = m.bus.Subscribe(events.TopicKeyboardShown, func(events.Event) {
			m.vm.OnKeyboardShown()
		})
		m.scope.focusLost = m.bus.Subscribe(events.TopicFocusLost, func(events.Event) {
			if m.vm.OnFocusLost() {
				m.logger.Debug("失去焦点，退出选择模式")
			}
		})
	}
	if !m.vm.MessagesShown() {
		m.vm.RequestScrollToEnd()
	}
	return m.refreshCmd()
}

// deactivate 视图离开：先通知失焦，再释放订阅
func (m Model) deactivate() {
	if !m.scope.active() {
		return
	}
	m.bus.Publish(events.TopicFocusLost, nil)
	m.scope.keyboard.Release()
	m.scope.focusLost.Release()
	m.scope.keyboard = nil
	m.scope.focusLost = nil
}

// Close 释放视图持有的订阅
func (m Model) Close() {
	m.deactivate()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.FocusMsg:
		cmds = append(cmds, m.activate())

	case tea.BlurMsg:
		m.deactivate()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.deactivate()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		if m.composing {
			m, cmd = m.updateComposer(msg)
		} else {
			m, cmd = m.updateList(msg)
		}
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		cmds = append(cmds, m.updateMouse(msg))

	case debounceMsg:
		if !m.debounce.fire(msg) {
			break
		}
		switch msg.kind {
		case debounceKeyboard:
			m.bus.Publish(events.TopicKeyboardShown, nil)
		case debouncePull:
			cmds = append(cmds, m.refreshCmd())
		}

	case StoreChangedMsg:
		cmds = append(cmds, m.refreshCmd())

	case ProcessingMsg:
		m.vm.SetProcessing(msg.Processing)

	case refreshDoneMsg:
		m.applyRefresh(msg)

	case persistDoneMsg:
		if msg.err != nil {
			m.logger.Error("持久化失败", zap.String("action", msg.action), zap.Error(msg.err))
			m.setStatus(msg.action+"失败", true)
		}
		cmds = append(cmds, m.afterPersist())

	case clipboardDoneMsg:
		if msg.err != nil {
			m.logger.Warn("写入剪贴板失败", zap.Error(msg.err))
			m.setStatus("复制失败", true)
		} else {
			m.setStatus(fmt.Sprintf("已复制 %d 条", msg.count), false)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if !m.vm.Processing() {
			return m, tea.Batch(cmds...)
		}
	}

	m.syncViewport()
	return m, tea.Batch(cmds...)
}

func (m Model) updateComposer(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Focus):
		m.leaveComposer()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		cmd := m.send()
		return m, cmd
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd) {
	visible := len(m.vm.Visible())

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			return m, nil
		}
		return m, m.debounce.trigger(debouncePull)

	case key.Matches(msg, m.keys.Down):
		if m.cursor < visible-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Bottom):
		m.vm.RequestScrollToEnd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.debounce.trigger(debouncePull)

	case key.Matches(msg, m.keys.Focus):
		cmd := m.enterComposer()
		return m, cmd

	case key.Matches(msg, m.keys.Cancel):
		m.vm.Selection().Clear()

	case key.Matches(msg, m.keys.LongPress):
		if id, ok := m.cursorID(); ok {
			m.vm.LongPress(id)
		}

	case key.Matches(msg, m.keys.Select):
		m.tap()

	case key.Matches(msg, m.keys.TimeLabel):
		if m.cursor >= 0 && m.cursor < visible {
			m.vm.ToggleTimeLabel(m.cursor)
		}

	case key.Matches(msg, m.keys.Copy):
		cmd := m.copySelected()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if n := m.vm.DeleteSelected(); n > 0 {
			m.setStatus(fmt.Sprintf("已删除 %d 条", n), false)
			return m, m.persistCmd("删除")
		}
	}
	return m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.viewport.AtTop() {
			return m.debounce.trigger(debouncePull)
		}
		m.viewport.ScrollUp(3)
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
	case tea.MouseButtonLeft:
		if idx, ok := m.messageAt(msg.Y); ok {
			m.cursor = idx
			m.tap()
		}
	}
	return nil
}

// tap 单击：选择模式下切换选中，否则切换时间标签
func (m *Model) tap() {
	id, ok := m.cursorID()
	if !ok {
		return
	}
	if m.vm.SelectionActive() {
		m.vm.Select(id)
		return
	}
	m.vm.ToggleTimeLabel(m.cursor)
}

func (m *Model) enterComposer() tea.Cmd {
	m.composing = true
	m.textarea.Focus()
	return m.debounce.trigger(debounceKeyboard)
}

func (m *Model) leaveComposer() {
	m.composing = false
	m.textarea.Blur()
}

func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return nil
	}
	m.textarea.Reset()
	m.vm.Append(chat.NewMessage(chat.RoleUser, text))
	return m.persistCmd("发送")
}

func (m *Model) copySelected() tea.Cmd {
	selected := m.vm.SelectedMessages()
	if len(selected) == 0 {
		return nil
	}
	parts := make([]string, 0, len(selected))
	for _, msg := range selected {
		parts = append(parts, msg.Content)
	}
	text := strings.Join(parts, "\n\n")
	m.vm.Selection().Clear()

	write := m.clipboard
	count := len(selected)
	return func() tea.Msg {
		return clipboardDoneMsg{count: count, err: write(text)}
	}
}

// refreshCmd 在事件循环外读取存储，结果回到 refreshDoneMsg
func (m *Model) refreshCmd() tea.Cmd {
	if m.save.inFlight {
		// 存储尚未包含本地修改，读取结果不可信
		m.save.refreshPending = true
		return nil
	}
	if !m.vm.BeginRefresh() {
		return nil
	}
	vm := m.vm
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		fetched, err := vm.Fetch(ctx)
		return refreshDoneMsg{fetched: fetched, err: err}
	}
}

func (m *Model) applyRefresh(msg refreshDoneMsg) {
	switch res := m.vm.ApplyFetched(msg.fetched, msg.err); res {
	case chat.RefreshUpdated:
		m.setStatus(fmt.Sprintf("共 %d 条消息", m.vm.Len()), false)
	case chat.RefreshFailed:
		// 刷新失败只记日志
	default:
		m.logger.Debug("刷新完成", zap.Stringer("result", res))
	}
}

// persistCmd 保存当前快照；已有保存在进行时只记下待保存
func (m *Model) persistCmd(action string) tea.Cmd {
	if m.save.inFlight {
		m.save.dirty = true
		m.save.action = action
		return nil
	}
	m.save.inFlight = true

	vm := m.vm
	snapshot := vm.Snapshot()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return persistDoneMsg{action: action, err: vm.Persist(ctx, snapshot)}
	}
}

// afterPersist 保存结束：有新修改就再保存最新快照，否则执行积压的刷新
func (m *Model) afterPersist() tea.Cmd {
	m.save.inFlight = false
	if m.save.dirty {
		m.save.dirty = false
		return m.persistCmd(m.save.action)
	}
	if m.save.refreshPending {
		m.save.refreshPending = false
		return m.refreshCmd()
	}
	return nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) cursorID() (string, bool) {
	visible := m.vm.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return "", false
	}
	return visible[m.cursor].ID, true
}

// messageAt 把屏幕行映射到可见消息索引
func (m *Model) messageAt(y int) (int, bool) {
	line := y - m.headerHeight() + m.viewport.YOffset
	if line < 0 {
		return 0, false
	}
	for i, start := range m.layout.lines {
		if line >= start && line < start+m.layout.heights[i] {
			return i, true
		}
	}
	return 0, false
}

func (m *Model) headerHeight() int {
	return lipgloss.Height(renderHeader(m.user, m.width))
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.textarea.SetWidth(width)

	vpHeight := height - m.headerHeight() - composerHeight - 2
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.vm.RequestScrollToEnd()
}

// syncViewport 重新渲染列表，处理滚动到底部意图并保持光标可见
func (m *Model) syncViewport() {
	visible := len(m.vm.Visible())
	toEnd := m.vm.ConsumeScrollToEnd()
	if toEnd || m.cursor >= visible {
		m.cursor = visible - 1
	}

	cursor := m.cursor
	if m.composing {
		cursor = -1
	}
	m.layout = m.list.render(m.vm, cursor, m.viewport.Width, m.spinner.View())
	m.viewport.SetContent(m.layout.content)

	if toEnd {
		m.viewport.GotoBottom()
		return
	}
	if m.cursor < 0 || m.cursor >= len(m.layout.lines) {
		return
	}
	top := m.layout.lines[m.cursor]
	bottom := top + m.layout.heights[m.cursor]
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
	} else if bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "初始化中..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m.user, m.width),
		m.viewport.View(),
		m.textarea.View(),
		m.helpView(),
	)
}

func (m Model) helpView() string {
	var keys help.KeyMap = m.keys
	switch {
	case m.composing:
		keys = composerKeys{m.keys}
	case m.vm.SelectionActive():
		keys = selectionKeys{m.keys}
	}

	parts := []string{m.help.View(keys)}
	if m.vm.SelectionActive() {
		parts = append(parts, statusStyle.Render(fmt.Sprintf("已选择 %d 条", m.vm.Selection().Len())))
	}
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	return strings.Join(parts, "  ")
}
