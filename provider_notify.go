package projectwatcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rjeczalik/notify"
)

// notify 在通道满时直接丢弃事件，不会阻塞
const notifyBufferSize = 128

// notifyProvider 基于 github.com/rjeczalik/notify，使用平台原生的递归监控
// （"path/..." 形式的 watchpoint）
type notifyProvider struct {
	handler Handler
	events  chan notify.EventInfo

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newNotifyProvider(handler Handler) (Provider, error) {
	p := &notifyProvider{
		handler:  handler,
		events:   make(chan notify.EventInfo, notifyBufferSize),
		stopChan: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p, nil
}

func (p *notifyProvider) Configure(cfg ProviderConfig) error {
	if !cfg.immediate() {
		return fmt.Errorf("%w: notify only delivers raw events", ErrUnsupportedConfig)
	}
	return nil
}

func (p *notifyProvider) WatchRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	path := root
	if info.IsDir() {
		path = filepath.Join(root, "...")
	}
	if err := notify.Watch(path, p.events, notify.All); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return nil
}

// Close 注销该 Provider 的全部 watchpoint，返回后不会再调用 handler
func (p *notifyProvider) Close() error {
	p.closeOnce.Do(func() {
		notify.Stop(p.events)
		close(p.stopChan)
		p.wg.Wait()
	})
	return nil
}

func (p *notifyProvider) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.events:
			p.handler(nil)
		case <-p.stopChan:
			return
		}
	}
}
