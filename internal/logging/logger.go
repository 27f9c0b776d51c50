package logging

import (
	"fmt"

	"github.com/Zacy-Sokach/PolyChat/internal/config"
	"github.com/Zacy-Sokach/PolyChat/internal/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据配置创建日志器。TUI 占用标准输出，日志只写入文件；
// File 为 "off" 时返回空日志器。
func New(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	if cfg.File == "off" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	out := cfg.File
	if out == "" {
		out = "stderr"
	}
	if out != "stderr" && out != "stdout" {
		if err := utils.EnsureParentDir(out); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{out}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Sampling = nil

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return logger.Named("polychat"), nil
}
