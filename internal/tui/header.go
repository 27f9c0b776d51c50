package tui

import (
	"strings"
	"unicode"

	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E293B"))
	headerTaglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
	avatarStyle        = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#34AB7C")).
				Foreground(lipgloss.Color("#005E38")).
				Bold(true).
				Padding(0, 1)
)

// renderHeader 问候语和标语在左，头像在右
func renderHeader(user config.UserConfig, width int) string {
	left := lipgloss.JoinVertical(lipgloss.Left,
		headerTitleStyle.Render("Hey "+user.Name),
		headerTaglineStyle.Render(user.Tagline),
	)
	avatar := avatarStyle.Render(initials(user.Name))

	gap := width - lipgloss.Width(left) - lipgloss.Width(avatar)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", gap), avatar)
}

// initials 取前两个单词的首字母
func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
