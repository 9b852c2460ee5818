// Package logger 基于 zap 的日志构建，支持 lumberjack 文件切割
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format 日志输出格式
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config 日志配置
type Config struct {
	// Level 最低日志级别：debug、info、warn、error
	Level string `mapstructure:"level"`
	// Format 输出格式：console 或 json
	Format Format `mapstructure:"format"`
	// Development 开发模式（输出调用位置，DPanic 会 panic）
	Development bool `mapstructure:"development"`
	// File 日志文件路径，为空时只输出到标准错误
	File string `mapstructure:"file"`
	// MaxSizeMB 单个日志文件的最大大小
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups 保留的旧文件数量
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays 旧文件保留天数
	MaxAgeDays int `mapstructure:"max_age_days"`
	// Compress 是否压缩旧文件
	Compress bool `mapstructure:"compress"`

	// output 测试时替换标准错误
	output io.Writer
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatJSON,
		MaxSizeMB:  100,
		MaxBackups: 7,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// New 按配置创建日志器
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoder := newEncoder(cfg)

	out := cfg.output
	if out == nil {
		out = os.Stderr
	}
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level),
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		// 文件始终使用 JSON 格式
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), level))
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// Must 创建日志器，配置错误时 panic
func Must(cfg Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

// Nop 返回丢弃所有输出的日志器
func Nop() *zap.Logger {
	return zap.NewNop()
}

// ParseLevel 解析日志级别，空字符串视为 info
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// newEncoder 按格式和模式选择编码器
func newEncoder(cfg Config) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Format == FormatConsole {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
