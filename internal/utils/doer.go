package utils

import "net/http"

// Doer 发送HTTP请求的最小接口，http.Client 和 RetryableHTTPClient 都满足
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}
