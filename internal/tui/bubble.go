package tui

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	userBubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#34AB7C")).
			Padding(0, 1)
	assistantBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#64748B")).
				Padding(0, 1)
	systemBubbleStyle = lipgloss.NewStyle().
				Faint(true).
				Italic(true)
	selectedBorderColor = lipgloss.Color("#F59E0B")
	hiddenHintStyle     = lipgloss.NewStyle().Faint(true)
	timeLabelStyle      = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#94A3B8"))
	cursorStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34AB7C"))
	checkStyle          = lipgloss.NewStyle().Bold(true).Foreground(selectedBorderColor)
)

const (
	gutterWidth   = 4
	timeLabelTmpl = "15:04"
	cacheMaxSize  = 500
)

// listLayout 一次列表渲染的结果，lines 为每条可见消息起始行
type listLayout struct {
	content string
	lines   []int
	heights []int
}

// bubbleList 渲染可见消息，按 id+宽度+内容缓存每条消息的正文
type bubbleList struct {
	renderer ContentRenderer
	logger   *zap.Logger
	cache    map[string]string
}

func newBubbleList(renderer ContentRenderer, logger *zap.Logger) *bubbleList {
	if renderer == nil {
		renderer = NewPlainRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bubbleList{
		renderer: renderer,
		logger:   logger,
		cache:    make(map[string]string),
	}
}

// render 渲染整个列表；cursor 为可见窗口中的光标位置，-1 表示无光标
func (b *bubbleList) render(vm *chat.ListViewModel, cursor, width int, spinner string) listLayout {
	var (
		sb     strings.Builder
		layout listLayout
		line   int
	)
	writeBlock := func(block string) {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block)
		line += lipgloss.Height(block)
	}

	visible := vm.Visible()
	if hidden := vm.Len() - len(visible); hidden > 0 {
		writeBlock(hiddenHintStyle.Render(fmt.Sprintf("... 还有 %d 条更早的消息 ...", hidden)))
	}

	sel := vm.Selection()
	timeIndex, showTime := vm.TimeLabelIndex()
	for i, msg := range visible {
		block := b.renderMessage(msg, width, i == cursor, sel.Contains(msg.ID))
		if showTime && i == timeIndex {
			block += "\n" + alignFor(msg, width, timeLabelStyle.Render(msg.CreatedAt.Local().Format(timeLabelTmpl)))
		}
		layout.lines = append(layout.lines, line)
		writeBlock(block)
		layout.heights = append(layout.heights, lipgloss.Height(block))
	}

	if vm.Processing() {
		writeBlock(spinner + " 正在处理...")
	}

	layout.content = sb.String()
	return layout
}

func (b *bubbleList) renderMessage(msg chat.Message, width int, cursor, selected bool) string {
	bubbleWidth := width * 3 / 4
	if bubbleWidth < 20 {
		bubbleWidth = max(width-gutterWidth, 10)
	}
	body := b.body(msg, bubbleWidth-4)

	var bubble string
	switch msg.Role {
	case chat.RoleUser:
		style := userBubbleStyle
		if selected {
			style = style.BorderForeground(selectedBorderColor)
		}
		bubble = style.MaxWidth(bubbleWidth).Render(body)
	case chat.RoleSystem:
		bubble = systemBubbleStyle.Width(bubbleWidth).Render(body)
	default:
		style := assistantBubbleStyle
		if selected {
			style = style.BorderForeground(selectedBorderColor)
		}
		bubble = style.MaxWidth(bubbleWidth).Render(body)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, gutter(cursor, selected), alignFor(msg, width-gutterWidth, bubble))
}

// body 渲染消息正文，失败时退回原文
func (b *bubbleList) body(msg chat.Message, width int) string {
	key := cacheKey(msg, width)
	if cached, ok := b.cache[key]; ok {
		return cached
	}

	out, err := b.renderer.Render(msg.Content, width)
	if err != nil {
		b.logger.Warn("渲染消息失败", zap.String("id", msg.ID), zap.Error(err))
		out = msg.Content
	}
	out = lipgloss.NewStyle().Width(width).Render(out)

	if len(b.cache) >= cacheMaxSize {
		b.cache = make(map[string]string)
	}
	b.cache[key] = out
	return out
}

func cacheKey(msg chat.Message, width int) string {
	h := fnv.New64a()
	h.Write([]byte(msg.Content))
	return fmt.Sprintf("%s|%d|%x", msg.ID, width, h.Sum64())
}

// gutter 光标与选中标记
func gutter(cursor, selected bool) string {
	mark := "  "
	if cursor {
		mark = cursorStyle.Render("›") + " "
	}
	check := "  "
	if selected {
		check = checkStyle.Render("✓") + " "
	}
	return mark + check
}

// alignFor 用户消息靠右，其他靠左
func alignFor(msg chat.Message, width int, block string) string {
	if !msg.IsUser() {
		return block
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
}
