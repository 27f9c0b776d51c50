package tui

import (
	"strings"
	"testing"

	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPlain(t *testing.T, md string) string {
	t.Helper()
	out, err := NewPlainRenderer().Render(md, 60)
	require.NoError(t, err)
	return ansi.Strip(out)
}

func TestPlainRendererInline(t *testing.T) {
	out := renderPlain(t, "这是 **粗体**、*斜体* 和 `code`")
	assert.Equal(t, "这是 粗体、斜体 和 code", out)
}

func TestPlainRendererLists(t *testing.T) {
	out := renderPlain(t, "- 苹果\n- 香蕉\n\n中间\n\n1. 一\n2. 二\n")
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines, "• 苹果")
	assert.Contains(t, lines, "• 香蕉")
	assert.Contains(t, lines, "1. 一")
	assert.Contains(t, lines, "2. 二")
}

func TestPlainRendererCodeBlock(t *testing.T) {
	out := renderPlain(t, "看这里:\n\n```go\nfmt.Println(1)\n```\n")
	assert.Contains(t, out, "看这里:")
	assert.Contains(t, out, "fmt.Println(1)")
	assert.NotContains(t, out, "```")
}

func TestPlainRendererHeadingAndImage(t *testing.T) {
	out := renderPlain(t, "# 标题\n\n![logo](a.png)")
	assert.True(t, strings.HasPrefix(out, "标题"))
	assert.Contains(t, out, "[图片]")
	assert.NotContains(t, out, "a.png")
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(config.RendererPlain)
	require.NoError(t, err)
	assert.IsType(t, &PlainRenderer{}, r)

	r, err = NewRenderer(config.RendererGlamour)
	require.NoError(t, err)
	assert.IsType(t, &GlamourRenderer{}, r)

	_, err = NewRenderer("html")
	assert.Error(t, err)
}

func TestGlamourRendererReusesPerWidth(t *testing.T) {
	g := NewGlamourRenderer("dark")

	out, err := g.Render("**hi** there", 40)
	require.NoError(t, err)
	assert.Contains(t, ansi.Strip(out), "hi there")
	first := g.renderer

	_, err = g.Render("again", 40)
	require.NoError(t, err)
	assert.Same(t, first, g.renderer)

	_, err = g.Render("again", 50)
	require.NoError(t, err)
	assert.NotSame(t, first, g.renderer)
}
