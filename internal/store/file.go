package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"go.uber.org/zap"
)

// FileStore 以JSON数组保存消息的文件存储
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore 创建文件存储，文件在第一次保存时创建
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path 文件路径
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Kind() string {
	return "file"
}

// Load 读取全部消息；文件不存在或为空时返回 nil
func (s *FileStore) Load(ctx context.Context) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取消息文件失败: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var messages []chat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("解析消息文件失败: %w", err)
	}

	s.logger.Debug("读取消息文件", zap.String("path", s.path), zap.Int("count", len(messages)))
	return messages, nil
}

// Save 原子地覆盖写入全部消息
func (s *FileStore) Save(ctx context.Context, messages []chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if messages == nil {
		messages = []chat.Message{}
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	if err := utils.EnsureParentDir(s.path); err != nil {
		return fmt.Errorf("创建消息目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".messages-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入消息文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入消息文件失败: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("替换消息文件失败: %w", err)
	}

	s.logger.Debug("保存消息文件", zap.String("path", s.path), zap.Int("count", len(messages)))
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
