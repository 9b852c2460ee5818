// Package config 基于 viper 的配置加载
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"katydid-model-validation/pkg/logger"
)

// EnvPrefix 环境变量前缀，如 KATYDID_SERVER_ADDR
const EnvPrefix = "KATYDID"

// envPattern 匹配 ${VAR} 和 ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	GinMode string `mapstructure:"gin_mode"`
}

// ValidationConfig 校验引擎配置
type ValidationConfig struct {
	MaxDepth      int  `mapstructure:"max_depth"`
	RecoverPanics bool `mapstructure:"recover_panics"`
	NestedStructs bool `mapstructure:"nested_structs"`
}

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        logger.Config    `mapstructure:"log"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// Defaults 默认配置
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Addr:    ":8080",
			GinMode: "release",
		},
		Log: logger.DefaultConfig(),
		Validation: ValidationConfig{
			MaxDepth:      100,
			NestedStructs: true,
		},
	}
}

// Load 读取配置文件到 C
// 文件中的字符串值支持 ${VAR:-default} 形式的环境变量展开
func Load[C any](file string) (*C, error) {
	v := viper.New()
	if err := readFile(v, file); err != nil {
		return nil, err
	}

	cfg := new(C)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}
	return cfg, nil
}

// LoadApp 加载应用配置
// 优先级：KATYDID_* 环境变量 > 配置文件 > 默认值；file 为空时只使用默认值和环境变量
func LoadApp(file string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		if err := readFile(v, file); err != nil {
			return nil, err
		}
	}

	cfg := new(AppConfig)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}
	if cfg.Validation.MaxDepth <= 0 {
		return nil, fmt.Errorf("validation.max_depth must be positive, got %d", cfg.Validation.MaxDepth)
	}
	return cfg, nil
}

// readFile 读取配置文件并展开环境变量
func readFile(v *viper.Viper, file string) error {
	v.SetConfigFile(file)
	v.SetConfigType(strings.TrimLeft(filepath.Ext(file), "."))
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("v.ReadInConfig: %w", err)
	}

	for _, k := range v.AllKeys() {
		raw, ok := v.Get(k).(string)
		if !ok || !strings.Contains(raw, "${") {
			continue
		}
		v.Set(k, coerce(expandEnvWithDefaults(raw)))
	}
	return nil
}

// setDefaults 把默认配置注册到 viper，环境变量覆盖依赖这些键
func setDefaults(v *viper.Viper, d AppConfig) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.gin_mode", d.Server.GinMode)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", string(d.Log.Format))
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("validation.max_depth", d.Validation.MaxDepth)
	v.SetDefault("validation.recover_panics", d.Validation.RecoverPanics)
	v.SetDefault("validation.nested_structs", d.Validation.NestedStructs)
}

// expandEnvWithDefaults 展开 ${VAR:-default}，变量为空时使用默认值
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		matches := envPattern.FindStringSubmatch(match)
		if len(matches) < 2 {
			return match
		}
		if value := os.Getenv(matches[1]); value != "" {
			return value
		}
		if len(matches) > 2 {
			return matches[2]
		}
		return ""
	})
}

// coerce 展开后的值按布尔、整数、字符串的顺序还原类型
func coerce(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
