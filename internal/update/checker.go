package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"go.uber.org/zap"
)

const (
	RepoOwner = "Zacy-Sokach"
	RepoName  = "PolyChat"
	Repo      = RepoOwner + "/" + RepoName

	defaultAPI = "https://api.github.com"
)

type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker 查询 GitHub 上的最新发布
type Checker struct {
	client  utils.Doer
	baseURL string
}

func NewChecker(logger *zap.Logger) *Checker {
	client := utils.NewRetryableHTTPClient(&http.Client{Timeout: 10 * time.Second}, utils.DefaultRetryConfig(), logger)
	return &Checker{client: client, baseURL: defaultAPI}
}

// WithBaseURL 替换 API 地址
func (c *Checker) WithBaseURL(url string) *Checker {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

func (c *Checker) Latest(ctx context.Context) (*ReleaseInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取最新版本失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API 返回状态码 %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("解析发布信息失败: %w", err)
	}
	return &release, nil
}

// CheckForUpdate 当前版本落后时返回 true 和最新发布
func (c *Checker) CheckForUpdate(ctx context.Context, current string) (bool, *ReleaseInfo, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return false, nil, err
	}
	return CompareVersions(current, release.TagName) < 0, release, nil
}

// CompareVersions 按点分数字比较，忽略前缀 v 和预发布后缀
func CompareVersions(v1, v2 string) int {
	p1 := versionParts(v1)
	p2 := versionParts(v2)

	for i := 0; i < len(p1) || i < len(p2); i++ {
		var a, b int
		if i < len(p1) {
			a = p1[i]
		}
		if i < len(p2) {
			b = p2[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var parts []int
	for _, s := range strings.Split(v, ".") {
		n, _ := strconv.Atoi(s)
		parts = append(parts, n)
	}
	return parts
}
