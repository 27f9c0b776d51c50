package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"go.uber.org/zap"
)

// HTTPError 远端返回非2xx状态码
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("消息服务请求失败 (状态码: %d): %s", e.StatusCode, e.Body)
}

// 共享的HTTP客户端，复用连接
var (
	sharedHTTPClient *http.Client
	httpClientOnce   sync.Once
)

func getSharedHTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		sharedHTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   5,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		}
	})
	return sharedHTTPClient
}

// HTTPStore 远端消息服务：GET 读取JSON数组，PUT 覆盖写入
type HTTPStore struct {
	url     string
	token   string
	timeout time.Duration
	client  utils.Doer
	logger  *zap.Logger
}

// NewHTTPStore 创建远端存储，请求经过重试客户端
func NewHTTPStore(url, token string, timeout time.Duration, logger *zap.Logger) *HTTPStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPStore{
		url:     url,
		token:   token,
		timeout: timeout,
		client:  utils.NewRetryableHTTPClient(getSharedHTTPClient(), nil, logger),
		logger:  logger,
	}
}

// WithClient 替换底层请求客户端
func (s *HTTPStore) WithClient(client utils.Doer) *HTTPStore {
	s.client = client
	return s
}

func (s *HTTPStore) Kind() string {
	return "http"
}

// Load 读取远端消息；404 和空响应都视为没有数据
func (s *HTTPStore) Load(ctx context.Context) ([]chat.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := s.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求消息服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var messages []chat.Message
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("解析消息响应失败: %w", err)
	}
	s.logger.Debug("读取远端消息", zap.Int("count", len(messages)))
	return messages, nil
}

// Save 覆盖写入远端消息
func (s *HTTPStore) Save(ctx context.Context, messages []chat.Message) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if messages == nil {
		messages = []chat.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPut, data)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求消息服务失败: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (s *HTTPStore) Close() error {
	return nil
}

func (s *HTTPStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *HTTPStore) newRequest(ctx context.Context, method string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url, reader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &HTTPError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
