package store

import (
	"fmt"
	"io"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"go.uber.org/zap"
)

// Store 带生命周期的消息存储
type Store interface {
	chat.Store
	io.Closer
	// Kind 存储类型名，用于日志
	Kind() string
}

// Open 按配置打开存储
func Open(cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("store", cfg.Kind))

	switch cfg.Kind {
	case config.StoreFile, "":
		return NewFileStore(cfg.Path, logger), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.Path, logger)
	case config.StoreHTTP:
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		return NewHTTPStore(cfg.URL, cfg.Token, timeout, logger), nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("未知的存储类型: %q", cfg.Kind)
	}
}

// Watchable 返回存储对应的本地文件路径，不是本地文件时 ok 为 false
func Watchable(s Store) (path string, ok bool) {
	switch v := s.(type) {
	case *FileStore:
		return v.path, true
	case *SQLiteStore:
		return v.path, true
	default:
		return "", false
	}
}
