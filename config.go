package projectwatcher

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDebounce     = 100 * time.Millisecond
	defaultBackend      = BackendFsnotify
	defaultOutputBuffer = 1
)

// ConfigWatcher 用于配置 ProjectWatcher
//
// WatchPaths：需要递归监控的根路径（按顺序注册）
// Debounce：静默期长度，最后一次原始事件之后经过该时长才发出合并信号, 默认 100ms
// Backend：底层通知实现，"fsnotify"（默认）或 "notify"
// OutputBuffer：合并信号通道的缓冲大小, 默认 1
// Logger：结构化日志，默认 slog.Default()
// NewProvider：自定义 Provider 构造函数，设置后忽略 Backend（主要用于测试）
type ConfigWatcher struct {
	WatchPaths   []string      `yaml:"watch_paths"`
	Debounce     time.Duration `yaml:"debounce"`
	Backend      string        `yaml:"backend"`
	OutputBuffer int           `yaml:"output_buffer"`

	Logger      *slog.Logger    `yaml:"-"`
	NewProvider ProviderFactory `yaml:"-"`
}

// withDefaults 返回填充了默认值的副本，不修改调用方的 WatchPaths
func (cfg ConfigWatcher) withDefaults() ConfigWatcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.Backend == "" {
		cfg.Backend = defaultBackend
	}
	if cfg.OutputBuffer <= 0 {
		cfg.OutputBuffer = defaultOutputBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.WatchPaths = append([]string(nil), cfg.WatchPaths...)
	return cfg
}

// LoadConfigFile 从YAML文件读取配置
//
// debounce 字段使用 Go 的时长格式，如 "250ms"、"1s"
func LoadConfigFile(path string) (ConfigWatcher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ConfigWatcher{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg ConfigWatcher
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ConfigWatcher{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
