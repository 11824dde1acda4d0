package projectwatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats 是 ProjectWatcher 的运行计数
//
// RawSignals：Provider 成功投递的原始通知次数
// ProviderErrors：Provider 报告的投递失败次数
// SendFailures：原始信号流关闭后仍收到的通知次数
// Debounced：已发出的合并信号数
// Dropped：因消费者未接收而丢弃的合并信号数
type Stats struct {
	RawSignals     uint64
	ProviderErrors uint64
	SendFailures   uint64
	Debounced      uint64
	Dropped        uint64
}

type stats struct {
	rawSignals     atomic.Uint64
	providerErrors atomic.Uint64
	sendFailures   atomic.Uint64
	debounced      atomic.Uint64
	dropped        atomic.Uint64
}

func (s *stats) snapshot() Stats {
	return Stats{
		RawSignals:     s.rawSignals.Load(),
		ProviderErrors: s.providerErrors.Load(),
		SendFailures:   s.sendFailures.Load(),
		Debounced:      s.debounced.Load(),
		Dropped:        s.dropped.Load(),
	}
}

// debouncer 把突发的原始信号转换成尾沿防抖信号：每来一个原始信号就重新开始倒计时，
// 倒计时走完且期间没有新信号时，向 out 发出一个信号
//
// countdown 为 nil 表示空闲，否则表示正在倒计时。它只在 run 的循环里读写，
// 到期也在同一个 select 里处理，所以被替换掉的旧倒计时不可能再触发
type debouncer struct {
	period time.Duration
	raw    <-chan struct{}
	out    chan struct{}
	logger *slog.Logger
	stats  *stats

	// beforeEmit 仅供测试注入
	beforeEmit func()
}

func newDebouncer(period time.Duration, raw <-chan struct{}, outBuffer int, logger *slog.Logger, st *stats) *debouncer {
	return &debouncer{
		period: period,
		raw:    raw,
		out:    make(chan struct{}, outBuffer),
		logger: logger,
		stats:  st,
	}
}

// run 在 ctx 结束（原始信号流关闭）时返回，并关闭 out
func (d *debouncer) run(ctx context.Context) (err error) {
	defer close(d.out)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJoin, r)
		}
	}()

	var countdown *time.Timer
	var expired <-chan time.Time
	defer func() {
		if countdown != nil {
			countdown.Stop()
		}
	}()

	for {
		select {
		case <-d.raw:
			if countdown != nil {
				countdown.Stop()
			}
			countdown = time.NewTimer(d.period)
			expired = countdown.C

		case <-expired:
			countdown, expired = nil, nil
			d.emit()

		case <-ctx.Done():
			return nil
		}
	}
}

// emit 不阻塞；消费者不接收时记录日志并丢弃
func (d *debouncer) emit() {
	if d.beforeEmit != nil {
		d.beforeEmit()
	}
	select {
	case d.out <- struct{}{}:
		d.stats.debounced.Add(1)
	default:
		d.stats.dropped.Add(1)
		d.logger.Warn("failed to send with the debounced sender", "error", "consumer is not receiving")
	}
}
