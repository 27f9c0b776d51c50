package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryConfig 重试参数
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// RetryableStatusCodes 需要重试的HTTP状态码
	RetryableStatusCodes []int
	// RetryableErrors 判断网络错误是否值得重试，为 nil 时不重试
	RetryableErrors func(error) bool
}

// DefaultRetryConfig 消息存储请求的默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        2,
		InitialDelay:      200 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatusCodes: []int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		RetryableErrors: func(err error) bool {
			return err != context.Canceled && err != context.DeadlineExceeded
		},
	}
}

// delay 第 attempt 次重试前的等待时间（指数退避，attempt 从1开始）
func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	return time.Duration(d)
}

func (c *RetryConfig) retryStatus(code int) bool {
	for _, v := range c.RetryableStatusCodes {
		if v == code {
			return true
		}
	}
	return false
}

func (c *RetryConfig) retryError(err error) bool {
	return c.RetryableErrors != nil && c.RetryableErrors(err)
}

// RetryableHTTPClient 带重试机制的HTTP客户端
type RetryableHTTPClient struct {
	client Doer
	config *RetryConfig
	logger *zap.Logger
}

// NewRetryableHTTPClient 包装 client；config 为 nil 时使用默认配置
func NewRetryableHTTPClient(client Doer, config *RetryConfig, logger *zap.Logger) *RetryableHTTPClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryableHTTPClient{
		client: client,
		config: config,
		logger: logger,
	}
}

// Do 执行请求，遇到可重试的状态码或错误时退避重试
func (r *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("读取请求体失败: %w", err)
		}
		body = b
	}

	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			d := r.config.delay(attempt)
			r.logger.Debug("重试请求",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt),
				zap.Duration("delay", d),
				zap.Error(lastErr))
			if err := sleepContext(ctx, d); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clone := req.Clone(ctx)
		if body != nil {
			clone.Body = io.NopCloser(bytes.NewReader(body))
			clone.ContentLength = int64(len(body))
		}

		resp, err := r.client.Do(clone)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if !r.config.retryError(err) {
				break
			}
			continue
		}

		if !r.config.retryStatus(resp.StatusCode) {
			return resp, nil
		}
		resp.Body.Close()
		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("after %d retries: %w", r.config.MaxRetries, lastErr)
}

// WithRetry 按配置重试 fn，ctx 取消时立即返回
func WithRetry(ctx context.Context, fn func() error, config *RetryConfig) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, config.delay(attempt)); err != nil {
				return fmt.Errorf("after %d retries: %w", attempt-1, err)
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if config.RetryableErrors != nil && !config.RetryableErrors(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("after %d retries: %w", config.MaxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
