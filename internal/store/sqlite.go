package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLiteStore 基于SQLite的消息存储，seq 保存到达顺序
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenSQLite 打开数据库并在需要时建表
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := utils.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("设置 busy_timeout 失败", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("设置 journal_mode=WAL 失败", zap.Error(err))
	}

	if _, err := db.Exec(createMessagesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建消息表失败: %w", err)
	}

	logger.Info("数据库已打开", zap.String("path", path))
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteStore) Kind() string {
	return "sqlite"
}

// Load 按到达顺序读取全部消息
func (s *SQLiteStore) Load(ctx context.Context) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, role, content, created_at FROM messages ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("查询消息失败: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var (
			m       chat.Message
			role    string
			created string
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("读取消息行失败: %w", err)
		}
		m.Role = chat.Role(role)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			m.CreatedAt = t
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历消息失败: %w", err)
	}
	return messages, nil
}

// Save 在一个事务中用 messages 替换整张表；数据库被其他进程锁住时退避重试
func (s *SQLiteStore) Save(ctx context.Context, messages []chat.Message) error {
	cfg := utils.DefaultRetryConfig()
	cfg.RetryableErrors = isBusy
	return utils.WithRetry(ctx, func() error {
		return s.save(ctx, messages)
	}, cfg)
}

// isBusy 是否是 SQLITE_BUSY / SQLITE_LOCKED
func isBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

func (s *SQLiteStore) save(ctx context.Context, messages []chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("清空消息失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (id, role, content, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("准备插入语句失败: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		created := m.CreatedAt.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, m.ID, string(m.Role), m.Content, created); err != nil {
			return fmt.Errorf("插入消息 %s 失败: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	s.logger.Debug("保存消息", zap.Int("count", len(messages)))
	return nil
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
