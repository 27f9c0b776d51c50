package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeKind 存储文件的变化类型
type ChangeKind int

const (
	// ChangeMessages 消息文件被写入
	ChangeMessages ChangeKind = iota
	// ChangeProcessing 处理中标记文件被创建或删除
	ChangeProcessing
)

// Change 去抖之后发出的变化通知
type Change struct {
	Kind       ChangeKind
	Processing bool
}

// ProcessingPath 处理中标记文件的路径：存在即表示外部正在生成回复
func ProcessingPath(path string) string {
	return path + ".processing"
}

// Watcher 监视存储文件及其处理中标记，合并短时间内的多次写入后回调 notify。
// notify 在监视协程中调用，不得直接修改视图状态。
type Watcher struct {
	mu             sync.Mutex
	watcher        *fsnotify.Watcher
	path           string
	processingPath string
	notify         func(Change)
	debounce       time.Duration
	pending        map[ChangeKind]time.Time
	logger         *zap.Logger
	stopCh         chan struct{}
	doneCh         chan struct{}
	running        bool
	closed         bool
}

// NewWatcher 为 path 创建监视器
func NewWatcher(path string, debounce time.Duration, notify func(Change), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Watcher{
		watcher:        fw,
		path:           abs,
		processingPath: ProcessingPath(abs),
		notify:         notify,
		debounce:       debounce,
		pending:        make(map[ChangeKind]time.Time),
		logger:         logger,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}, nil
}

// Start 开始监视存储所在目录，非阻塞
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.logger.Warn("创建存储目录失败", zap.String("dir", dir), zap.Error(err))
	}
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.logger.Debug("开始监视存储", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop 停止监视并等待协程退出，可重复调用
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	running := w.running
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("关闭监视器失败", zap.Error(err))
	}
}

// Processing 处理中标记文件当前是否存在
func (w *Watcher) Processing() bool {
	_, err := os.Stat(w.processingPath)
	return err == nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("监视存储出错", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	var kind ChangeKind
	switch event.Name {
	case w.processingPath:
		kind = ChangeProcessing
	case w.path, w.path + "-wal", w.path + "-journal":
		kind = ChangeMessages
	default:
		return
	}

	w.mu.Lock()
	w.pending[kind] = time.Now()
	w.mu.Unlock()
}

// flush 发出已经稳定超过去抖时间的变化
func (w *Watcher) flush() {
	now := time.Now()
	var ready []ChangeKind

	w.mu.Lock()
	for kind, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, kind)
			delete(w.pending, kind)
		}
	}
	w.mu.Unlock()

	for _, kind := range ready {
		change := Change{Kind: kind}
		if kind == ChangeProcessing {
			change.Processing = w.Processing()
		}
		w.logger.Debug("存储发生变化", zap.Int("kind", int(kind)), zap.Bool("processing", change.Processing))
		if w.notify != nil {
			w.notify(change)
		}
	}
}
