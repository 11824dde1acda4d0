package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/shuakami/projectwatcher"
)

var errNoPaths = errors.New("no paths to watch: use --path or watch_paths in --config")

type options struct {
	paths      []string
	debounce   time.Duration
	backend    string
	configPath string
	initial    bool
	verbose    bool
	command    []string
}

// resolveConfig 先读取配置文件，命令行参数覆盖文件中的值
func (o *options) resolveConfig() (projectwatcher.ConfigWatcher, error) {
	var cfg projectwatcher.ConfigWatcher
	if o.configPath != "" {
		loaded, err := projectwatcher.LoadConfigFile(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if len(o.paths) > 0 {
		cfg.WatchPaths = o.paths
	}
	if o.debounce > 0 {
		cfg.Debounce = o.debounce
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if len(cfg.WatchPaths) == 0 {
		return cfg, errNoPaths
	}
	return cfg, nil
}

// builder 返回每次变更后执行的动作；未指定命令时只打印一行
func (o *options) builder(stdout, stderr io.Writer) func(context.Context) error {
	if len(o.command) == 0 {
		return func(context.Context) error {
			_, err := fmt.Fprintf(stdout, "change detected at %s\n", time.Now().Format("15:04:05"))
			return err
		}
	}
	name, args := o.command[0], o.command[1:]
	return func(ctx context.Context) error {
		c := exec.CommandContext(ctx, name, args...)
		c.Stdout = stdout
		c.Stderr = stderr
		return c.Run()
	}
}

// rebuildLoop 每收到一个合并信号执行一次 build，直到 changes 关闭或 ctx 结束
//
// build 失败只记录日志，下一次变更还会再执行
func rebuildLoop(ctx context.Context, changes <-chan struct{}, build func(context.Context) error, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			start := time.Now()
			if err := build(ctx); err != nil {
				logger.Error("rebuild failed", "error", err)
				continue
			}
			logger.Debug("rebuild finished", "took", time.Since(start).String())
		}
	}
}
