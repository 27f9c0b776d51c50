package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
)

const exportTimeLayout = "2006-01-02 15:04"

// roleLabel 导出时使用的角色名
func roleLabel(role chat.Role) string {
	switch role {
	case chat.RoleUser:
		return "你"
	case chat.RoleSystem:
		return "系统"
	default:
		return "AI"
	}
}

// ExportMarkdown 把会话写成 Markdown 文档
func ExportMarkdown(w io.Writer, title string, messages []chat.Message) error {
	bw := bufio.NewWriter(w)

	if title != "" {
		fmt.Fprintf(bw, "# %s\n\n", title)
	}
	for i, msg := range messages {
		if i > 0 {
			bw.WriteString("\n---\n\n")
		}
		fmt.Fprintf(bw, "### %s · %s\n\n", roleLabel(msg.Role), msg.CreatedAt.Local().Format(exportTimeLayout))
		bw.WriteString(strings.TrimRight(msg.Content, "\n"))
		bw.WriteString("\n")
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("导出 Markdown 失败: %w", err)
	}
	return nil
}
