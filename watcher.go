package projectwatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProjectWatcher 持有底层 Provider 和防抖协程，由 Start 创建，必须调用 Stop 释放
//
// provider：底层文件系统通知实现
// raw：原始信号通道，Provider 回调与防抖协程之间唯一的交接点
// ctx/cancel：cancel 即关闭原始信号流，防抖协程随之退出
// group：用于在 Stop 中等待防抖协程并取回其错误
type ProjectWatcher struct {
	cfg      ConfigWatcher
	provider Provider
	logger   *slog.Logger

	raw    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	stats stats

	stopOnce sync.Once
	stopErr  error
}

// Watch 是 Start 的简写，只指定根路径和静默期
func Watch(ctx context.Context, roots []string, debounce time.Duration) (*ProjectWatcher, <-chan struct{}, error) {
	return Start(ctx, ConfigWatcher{WatchPaths: roots, Debounce: debounce})
}

// Start 创建 Provider，配置为原始立即投递，按顺序递归注册 cfg.WatchPaths，
// 然后启动防抖协程
//
// 返回的通道在每个至少发生过一次变更的静默期结束时收到一个值，
// Stop 完成（或 ctx 结束）后通道被关闭
//
// 任何一步失败都会释放 Provider 并返回包装了 ErrCreate、ErrConfigure 或 ErrWatch 的错误，
// 不会留下运行中的 goroutine
func Start(ctx context.Context, cfg ConfigWatcher) (*ProjectWatcher, <-chan struct{}, error) {
	cfg = cfg.withDefaults()

	w := &ProjectWatcher{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "projectwatcher", "backend", cfg.Backend),
		raw:    make(chan struct{}, 1),
	}
	w.ctx, w.cancel = context.WithCancel(ctx)

	factory := cfg.NewProvider
	if factory == nil {
		factory = func(handler Handler) (Provider, error) {
			return NewProvider(cfg.Backend, handler)
		}
	}

	provider, err := factory(w.handle)
	if err != nil {
		w.cancel()
		return nil, nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	if provider == nil {
		w.cancel()
		return nil, nil, fmt.Errorf("%w: factory returned no provider", ErrCreate)
	}
	if err := provider.Configure(ProviderConfig{}); err != nil {
		w.abort(provider)
		return nil, nil, fmt.Errorf("%w: %w", ErrConfigure, err)
	}
	for _, path := range cfg.WatchPaths {
		if err := provider.WatchRecursive(path); err != nil {
			w.abort(provider)
			return nil, nil, fmt.Errorf("%w %s: %w", ErrWatch, path, err)
		}
	}
	w.provider = provider

	d := newDebouncer(cfg.Debounce, w.raw, cfg.OutputBuffer, w.logger, &w.stats)
	w.group.Go(func() error {
		return d.run(w.ctx)
	})

	w.logger.Debug("watching", "paths", cfg.WatchPaths, "debounce", cfg.Debounce)
	return w, d.out, nil
}

// abort 用于 Start 失败时的清理
func (w *ProjectWatcher) abort(provider Provider) {
	w.cancel()
	if err := provider.Close(); err != nil {
		w.logger.Warn("failed to release the watcher", "error", err)
	}
}

// handle 是交给 Provider 的回调，只做转换和非阻塞转发
func (w *ProjectWatcher) handle(err error) {
	if err != nil {
		w.stats.providerErrors.Add(1)
		w.logger.Warn("watcher failed", "error", err)
		return
	}
	if err := w.send(); err != nil {
		w.stats.sendFailures.Add(1)
		w.logger.Debug("failed to send with the sender", "error", err)
		return
	}
	w.stats.rawSignals.Add(1)
}

// send 向原始信号通道投递一个值；通道中已有未处理的信号时两者合并
func (w *ProjectWatcher) send() error {
	select {
	case <-w.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case w.raw <- struct{}{}:
	default:
	}
	return nil
}

// Stop 释放 Provider（之后不再有原始通知），关闭原始信号流，等待防抖协程退出
//
// 返回释放 Provider 的错误和防抖协程的错误（ErrJoin）；重复调用返回第一次的结果
func (w *ProjectWatcher) Stop() error {
	w.stopOnce.Do(func() {
		var errs []error
		if err := w.provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release the watcher: %w", err))
		}
		w.cancel()
		if err := w.group.Wait(); err != nil {
			errs = append(errs, err)
		}
		w.stopErr = errors.Join(errs...)
	})
	return w.stopErr
}

// Stats 返回当前计数，并发安全
func (w *ProjectWatcher) Stats() Stats {
	return w.stats.snapshot()
}

// WatchPaths 返回被监控的根路径
func (w *ProjectWatcher) WatchPaths() []string {
	return append([]string(nil), w.cfg.WatchPaths...)
}
