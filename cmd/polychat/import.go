package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "从 JSON 文件追加消息",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("读取导入文件失败: %w", err)
			}

			var incoming []chat.Message
			if err := json.Unmarshal(data, &incoming); err != nil {
				return fmt.Errorf("解析导入文件失败: %w", err)
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			existing, err := st.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("读取消息失败: %w", err)
			}

			merged, added := mergeMessages(existing, incoming, time.Now())
			if added == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "没有新消息")
				return nil
			}
			if err := st.Save(cmd.Context(), merged); err != nil {
				return fmt.Errorf("保存消息失败: %w", err)
			}

			a.logger.Info("导入完成", zap.Int("added", added), zap.Int("total", len(merged)))
			fmt.Fprintf(cmd.OutOrStdout(), "已导入 %d 条消息\n", added)
			return nil
		},
	}
}

// mergeMessages 追加 existing 中没有的消息，补齐缺失的 id、角色和时间
func mergeMessages(existing, incoming []chat.Message, now time.Time) ([]chat.Message, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
	}

	merged := append([]chat.Message(nil), existing...)
	added := 0
	for _, m := range incoming {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		if m.Role == "" {
			m.Role = chat.RoleAssistant
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
		added++
	}
	return merged, added
}
