package tui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/russross/blackfriday/v2"
)

// ContentRenderer 把消息的 Markdown 内容渲染成终端文本
type ContentRenderer interface {
	Render(content string, width int) (string, error)
}

// NewRenderer 按名称创建渲染器
func NewRenderer(kind string) (ContentRenderer, error) {
	switch kind {
	case config.RendererPlain, "":
		return NewPlainRenderer(), nil
	case config.RendererGlamour:
		return NewGlamourRenderer("dark"), nil
	default:
		return nil, fmt.Errorf("未知的渲染器: %q", kind)
	}
}

var (
	mdHeadingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mdCodeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	mdBlockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	mdLinkStyle    = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#61AFEF"))
	mdQuoteStyle   = lipgloss.NewStyle().Faint(true).Italic(true)
)

// PlainRenderer 遍历 blackfriday 语法树，用 lipgloss 样式输出行内格式
type PlainRenderer struct{}

func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// Render 宽度由外层气泡负责换行，这里忽略 width
func (r *PlainRenderer) Render(content string, width int) (string, error) {
	md := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	doc := md.Parse([]byte(content))

	w := &mdWriter{}
	doc.Walk(w.visit)
	return strings.TrimRight(w.sb.String(), "\n "), nil
}

type mdWriter struct {
	sb    strings.Builder
	stack []lipgloss.Style
}

func (w *mdWriter) style() lipgloss.Style {
	if len(w.stack) == 0 {
		return lipgloss.NewStyle()
	}
	return w.stack[len(w.stack)-1]
}

func (w *mdWriter) push(apply func(lipgloss.Style) lipgloss.Style) {
	w.stack = append(w.stack, apply(w.style()))
}

func (w *mdWriter) pop() {
	if len(w.stack) > 0 {
		w.stack = w.stack[:len(w.stack)-1]
	}
}

// write 逐行渲染，避免 lipgloss 把多行文本补齐到同一宽度
func (w *mdWriter) write(style lipgloss.Style, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			w.sb.WriteString("\n")
		}
		if line != "" {
			w.sb.WriteString(style.Render(line))
		}
	}
}

func (w *mdWriter) inline(entering bool, apply func(lipgloss.Style) lipgloss.Style) {
	if entering {
		w.push(apply)
	} else {
		w.pop()
	}
}

func (w *mdWriter) visit(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
	switch node.Type {
	case blackfriday.Text:
		w.write(w.style(), string(node.Literal))
	case blackfriday.Code:
		w.write(mdCodeStyle, string(node.Literal))
	case blackfriday.HTMLSpan:
		w.sb.Write(node.Literal)
	case blackfriday.Softbreak, blackfriday.Hardbreak:
		w.sb.WriteString("\n")
	case blackfriday.Strong:
		w.inline(entering, func(s lipgloss.Style) lipgloss.Style { return s.Bold(true) })
	case blackfriday.Emph:
		w.inline(entering, func(s lipgloss.Style) lipgloss.Style { return s.Italic(true) })
	case blackfriday.Del:
		w.inline(entering, func(s lipgloss.Style) lipgloss.Style { return s.Strikethrough(true) })
	case blackfriday.Link:
		w.inline(entering, func(lipgloss.Style) lipgloss.Style { return mdLinkStyle })
	case blackfriday.Image:
		if entering {
			w.sb.WriteString("[图片]")
		}
		return blackfriday.SkipChildren
	case blackfriday.Heading:
		w.inline(entering, func(lipgloss.Style) lipgloss.Style { return mdHeadingStyle })
		if !entering {
			w.sb.WriteString("\n\n")
		}
	case blackfriday.BlockQuote:
		if entering {
			w.sb.WriteString("│ ")
		}
		w.inline(entering, func(lipgloss.Style) lipgloss.Style { return mdQuoteStyle })
	case blackfriday.Paragraph:
		if !entering {
			if node.Parent != nil && node.Parent.Type == blackfriday.Item {
				w.sb.WriteString("\n")
			} else {
				w.sb.WriteString("\n\n")
			}
		}
	case blackfriday.Item:
		if entering {
			w.sb.WriteString(itemMarker(node))
		}
	case blackfriday.List:
		if !entering && (node.Parent == nil || node.Parent.Type != blackfriday.Item) {
			w.sb.WriteString("\n")
		}
	case blackfriday.CodeBlock:
		w.write(mdBlockStyle, strings.TrimRight(string(node.Literal), "\n"))
		w.sb.WriteString("\n\n")
	case blackfriday.HTMLBlock:
		w.sb.Write(node.Literal)
		w.sb.WriteString("\n\n")
	case blackfriday.HorizontalRule:
		w.sb.WriteString("────────\n\n")
	case blackfriday.TableCell:
		if !entering && node.Next != nil {
			w.sb.WriteString(" │ ")
		}
	case blackfriday.TableRow:
		if !entering {
			w.sb.WriteString("\n")
		}
	}
	return blackfriday.GoToNext
}

// itemMarker 列表项前缀，有序列表按位置编号
func itemMarker(item *blackfriday.Node) string {
	depth := 0
	for p := item.Parent; p != nil; p = p.Parent {
		if p.Type == blackfriday.List {
			depth++
		}
	}
	indent := strings.Repeat("  ", max(depth-1, 0))

	if item.ListFlags&blackfriday.ListTypeOrdered == 0 {
		return indent + "• "
	}
	n := 1
	for p := item.Prev; p != nil; p = p.Prev {
		n++
	}
	return indent + strconv.Itoa(n) + ". "
}

// GlamourRenderer 使用 glamour 渲染完整 Markdown，按宽度缓存渲染器
type GlamourRenderer struct {
	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func NewGlamourRenderer(style string) *GlamourRenderer {
	return &GlamourRenderer{style: style}
}

func (g *GlamourRenderer) Render(content string, width int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if width < 10 {
		width = 10
	}
	if g.renderer == nil || g.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(g.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", fmt.Errorf("创建 glamour 渲染器失败: %w", err)
		}
		g.renderer = r
		g.width = width
	}

	out, err := g.renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}
