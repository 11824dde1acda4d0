package projectwatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPeriod  = 50 * time.Millisecond
	// 计时器只会晚到不会早到，上限留出调度余量
	timingSlack = 100 * time.Millisecond
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runDebouncer 启动一个防抖协程；raw 无缓冲，发送返回即表示已被处理
func runDebouncer(t *testing.T, outBuffer int, st *stats) (chan<- struct{}, *debouncer, context.CancelFunc, <-chan error) {
	t.Helper()
	raw := make(chan struct{})
	d := newDebouncer(testPeriod, raw, outBuffer, discardLogger(), st)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- d.run(ctx)
	}()
	t.Cleanup(cancel)
	return raw, d, cancel, done
}

// recvWithin 在 timeout 内等待一个信号；通道关闭视为未收到
func recvWithin(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case _, ok := <-ch:
		return ok
	case <-time.After(timeout):
		return false
	}
}

func TestDebouncer_BurstCollapsesToTrailingEdge(t *testing.T) {
	raw, d, _, _ := runDebouncer(t, 1, &stats{})

	start := time.Now()
	raw <- struct{}{}
	time.Sleep(10 * time.Millisecond)
	raw <- struct{}{}
	time.Sleep(10 * time.Millisecond)
	raw <- struct{}{}

	require.True(t, recvWithin(d.out, time.Second), "expected a debounced signal")
	elapsed := time.Since(start)

	// 从最后一个原始信号（t>=20ms）开始计时，而不是第一个
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)

	assert.False(t, recvWithin(d.out, 3*testPeriod), "expected exactly one debounced signal")
}

func TestDebouncer_SeparateGroups(t *testing.T) {
	st := &stats{}
	raw, d, _, _ := runDebouncer(t, 1, st)

	start := time.Now()
	raw <- struct{}{}
	require.True(t, recvWithin(d.out, time.Second), "expected first debounced signal")
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, testPeriod)
	assert.Less(t, elapsed, testPeriod+timingSlack)

	time.Sleep(time.Until(start.Add(100 * time.Millisecond)))
	raw <- struct{}{}
	require.True(t, recvWithin(d.out, time.Second), "expected second debounced signal")
	elapsed = time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 150*time.Millisecond+timingSlack)

	assert.False(t, recvWithin(d.out, 3*testPeriod))
	assert.Equal(t, uint64(2), st.debounced.Load())
}

func TestDebouncer_SingleSignal(t *testing.T) {
	raw, d, _, _ := runDebouncer(t, 1, &stats{})

	raw <- struct{}{}
	require.True(t, recvWithin(d.out, time.Second))
	assert.False(t, recvWithin(d.out, 3*testPeriod), "a single raw signal must produce exactly one debounced signal")
}

func TestDebouncer_NoRawNoSignal(t *testing.T) {
	_, d, _, _ := runDebouncer(t, 1, &stats{})

	assert.False(t, recvWithin(d.out, 4*testPeriod))
}

func TestDebouncer_ShutdownAbortsPendingCountdown(t *testing.T) {
	raw, d, cancel, done := runDebouncer(t, 1, &stats{})

	raw <- struct{}{}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not stop after the raw stream closed")
	}

	_, ok := <-d.out
	assert.False(t, ok, "debounced channel should be closed without a pending signal")
}

func TestDebouncer_ConsumerNotReceiving(t *testing.T) {
	st := &stats{}
	raw, d, cancel, done := runDebouncer(t, 1, st)

	// 从不读取 d.out
	for i := 0; i < 3; i++ {
		raw <- struct{}{}
		time.Sleep(2 * testPeriod)
	}
	assert.Equal(t, uint64(1), st.debounced.Load())
	assert.Equal(t, uint64(2), st.dropped.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("debouncer deadlocked with a non-receiving consumer")
	}

	n := 0
	for range d.out {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestDebouncer_PanicIsReportedAsJoinError(t *testing.T) {
	raw := make(chan struct{})
	st := &stats{}
	d := newDebouncer(testPeriod, raw, 1, discardLogger(), st)
	d.beforeEmit = func() {
		panic("emit failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- d.run(ctx)
	}()

	raw <- struct{}{}

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrJoin))
		assert.Contains(t, err.Error(), "emit failed")
	case <-time.After(time.Second):
		t.Fatal("debouncer did not exit after panic")
	}

	_, ok := <-d.out
	assert.False(t, ok, "debounced channel should be closed without a signal")
	assert.Zero(t, st.debounced.Load())
}
