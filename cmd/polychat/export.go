package main

import (
	"fmt"
	"os"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/tui"
	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	var out, title string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "把会话导出为 Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			messages, err := st.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("读取消息失败: %w", err)
			}

			if out == "" {
				if err := tui.ExportMarkdown(cmd.OutOrStdout(), title, messages); err != nil {
					return err
				}
			} else if err := exportToFile(out, title, messages); err != nil {
				return err
			}
			a.logger.Info("导出完成", zap.Int("messages", len(messages)), zap.String("out", out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件，默认写到标准输出")
	cmd.Flags().StringVar(&title, "title", "PolyChat 会话", "文档标题")
	return cmd
}

// exportToFile 写入文件，关闭失败同样视为导出失败
func exportToFile(path, title string, messages []chat.Message) error {
	if err := utils.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建导出文件失败: %w", err)
	}
	if err := tui.ExportMarkdown(f, title, messages); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("关闭导出文件失败: %w", err)
	}
	return nil
}
