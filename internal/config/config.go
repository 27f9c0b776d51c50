package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zacy-Sokach/PolyChat/internal/chat"
	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"gopkg.in/yaml.v3"
)

// 存储类型
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreHTTP   = "http"
	StoreMemory = "memory"
)

// 内容渲染器
const (
	RendererPlain   = "plain"
	RendererGlamour = "glamour"
)

type Config struct {
	User  UserConfig  `yaml:"user"`
	Store StoreConfig `yaml:"store"`
	UI    UIConfig    `yaml:"ui"`
	Log   LogConfig   `yaml:"log"`
}

// UserConfig 头部横幅显示的用户信息
type UserConfig struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
}

type StoreConfig struct {
	Kind           string `yaml:"kind"`
	Path           string `yaml:"path"`
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// NoWatch 为 true 时不监视本地存储文件
	NoWatch bool `yaml:"no_watch"`
}

type UIConfig struct {
	// WindowSize 最多渲染的消息数，0 取默认值
	WindowSize int `yaml:"window_size"`
	// ShowAll 为 true 时不截断，渲染全部消息
	ShowAll    bool   `yaml:"show_all"`
	DebounceMS int    `yaml:"debounce_ms"`
	Renderer   string `yaml:"renderer"`
	Mouse      bool   `yaml:"mouse"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// EffectiveWindow 视图模型使用的窗口大小，0 表示不截断
func (u UIConfig) EffectiveWindow() int {
	if u.ShowAll {
		return 0
	}
	return u.WindowSize
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig 从默认路径加载配置，文件不存在时返回默认值
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom 从指定路径加载配置，并应用环境变量覆盖
func LoadFrom(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig 保存到默认路径
func SaveConfig(config *Config) error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(configPath, config)
}

// SaveTo 保存到指定路径
func SaveTo(path string, config *Config) error {
	if err := utils.EnsureParentDir(path); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreFile, StoreSQLite, StoreMemory:
	case StoreHTTP:
		if c.Store.URL == "" {
			return fmt.Errorf("store.kind 为 http 时必须设置 store.url")
		}
	default:
		return fmt.Errorf("未知的存储类型: %q", c.Store.Kind)
	}

	switch c.UI.Renderer {
	case RendererPlain, RendererGlamour:
	default:
		return fmt.Errorf("未知的渲染器: %q", c.UI.Renderer)
	}

	if c.UI.WindowSize < 0 {
		return fmt.Errorf("ui.window_size 不能为负数: %d", c.UI.WindowSize)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.User.Name == "" {
		c.User.Name = defaultUserName()
	}
	if c.User.Tagline == "" {
		c.User.Tagline = "Let's see what can i do for you ?"
	}

	if c.Store.Kind == "" {
		c.Store.Kind = StoreFile
	}
	if c.Store.Path == "" {
		switch c.Store.Kind {
		case StoreSQLite:
			c.Store.Path = defaultDataPath("messages.db")
		default:
			c.Store.Path = defaultDataPath("messages.json")
		}
	}
	if c.Store.TimeoutSeconds == 0 {
		c.Store.TimeoutSeconds = 10
	}

	if c.UI.WindowSize == 0 {
		c.UI.WindowSize = chat.DefaultWindowSize
	}
	if c.UI.DebounceMS == 0 {
		c.UI.DebounceMS = 150
	}
	if c.UI.Renderer == "" {
		c.UI.Renderer = RendererPlain
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = defaultDataPath("polychat.log")
	}
}

// applyEnv 用 POLYCHAT_* 环境变量覆盖文件中的值
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("POLYCHAT_USER_NAME", &c.User.Name)
	setString("POLYCHAT_USER_TAGLINE", &c.User.Tagline)
	setString("POLYCHAT_STORE_KIND", &c.Store.Kind)
	setString("POLYCHAT_STORE_PATH", &c.Store.Path)
	setString("POLYCHAT_STORE_URL", &c.Store.URL)
	setString("POLYCHAT_STORE_TOKEN", &c.Store.Token)
	setString("POLYCHAT_RENDERER", &c.UI.Renderer)
	setString("POLYCHAT_LOG_LEVEL", &c.Log.Level)
	setString("POLYCHAT_LOG_FILE", &c.Log.File)

	if v := os.Getenv("POLYCHAT_WINDOW_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLYCHAT_WINDOW_SIZE 不是整数: %w", err)
		}
		if n == 0 {
			c.UI.ShowAll = true
		} else {
			c.UI.WindowSize = n
		}
	}
	if v := os.Getenv("POLYCHAT_SHOW_ALL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("POLYCHAT_SHOW_ALL 不是布尔值: %w", err)
		}
		c.UI.ShowAll = b
	}
	return nil
}

func defaultUserName() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return "there"
}

func defaultDataPath(name string) string {
	dir, err := utils.GetConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// Path 默认配置文件路径
func Path() (string, error) {
	return getConfigPath()
}

func getConfigPath() (string, error) {
	configPath, err := utils.ConfigFile("config.yaml")
	if err != nil {
		return "", fmt.Errorf("获取配置目录失败: %w", err)
	}
	return configPath, nil
}
