package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shuakami/projectwatcher"
)

var Version = "dev"

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "watchrun [flags] [-- command [args...]]",
		Version: Version,
		Short:   "Run a command once per burst of filesystem changes",
		Long: `watchrun watches directories recursively and runs the given command
after changes stop for the debounce period. A build that writes many files
triggers a single rerun.

Without a command, watchrun prints one line per debounced change.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.command = args
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.paths, "path", "p", nil, "path to watch recursively (repeatable)")
	flags.DurationVarP(&opts.debounce, "debounce", "d", 0, "quiet period before running (default 100ms)")
	flags.StringVar(&opts.backend, "backend", "", "notification backend: fsnotify or notify")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flags.BoolVar(&opts.initial, "initial", false, "run the command once before watching")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := opts.resolveConfig()
	if err != nil {
		return err
	}
	cfg.Logger = logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := opts.builder(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.initial {
		if err := build(ctx); err != nil {
			logger.Error("initial run failed", "error", err)
		}
	}

	w, changes, err := projectwatcher.Start(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("watching", "paths", cfg.WatchPaths, "debounce", cfg.Debounce.String())

	return serve(ctx, w, changes, build, logger)
}

// watchSession 是 serve 需要的 *projectwatcher.ProjectWatcher 方法
type watchSession interface {
	Stop() error
	Stats() projectwatcher.Stats
}

// serve 运行重建循环，ctx 结束或 changes 被关闭（防抖协程退出）时停止 w，
// 并返回 Stop 的错误
func serve(ctx context.Context, w watchSession, changes <-chan struct{}, build func(context.Context) error, logger *slog.Logger) error {
	loopDone := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(loopDone)
		return rebuildLoop(gctx, changes, build, logger)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-loopDone:
		}
		start := time.Now()
		err := w.Stop()
		st := w.Stats()
		logger.Debug("stopped", "took", time.Since(start).String(),
			"raw", st.RawSignals, "debounced", st.Debounced, "dropped", st.Dropped)
		return err
	})
	return g.Wait()
}
