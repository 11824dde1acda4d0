package projectwatcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyProvider 基于 github.com/fsnotify/fsnotify
//
// fsnotify 本身只监控单层目录，递归监控通过遍历目录树逐个 Add 实现，
// 运行期间新建的目录也会被自动加入
type fsnotifyProvider struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func newFsnotifyProvider(handler Handler) (Provider, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	p := &fsnotifyProvider{
		fsWatcher: fsw,
		handler:   handler,
		stopChan:  make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p, nil
}

// Configure fsnotify 没有内置的批处理，只接受原始立即投递
func (p *fsnotifyProvider) Configure(cfg ProviderConfig) error {
	if !cfg.immediate() {
		return fmt.Errorf("%w: fsnotify only delivers raw events", ErrUnsupportedConfig)
	}
	return nil
}

// WatchRecursive 递归添加 root 下的所有目录；root 为普通文件时只监控该文件
func (p *fsnotifyProvider) WatchRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return p.fsWatcher.Add(root)
	}
	return p.addTree(root)
}

func (p *fsnotifyProvider) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := p.fsWatcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Close 停止读取事件并关闭底层 watcher，返回后不会再调用 handler
func (p *fsnotifyProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.stopChan)
		p.closeErr = p.fsWatcher.Close()
		p.wg.Wait()
	})
	return p.closeErr
}

// run 不断读取 fsnotify 的事件并转交给 handler
func (p *fsnotifyProvider) run() {
	defer p.wg.Done()
	for {
		select {
		case ev, ok := <-p.fsWatcher.Events:
			if !ok {
				return
			}
			// 如果是新建目录，需要额外Add
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := p.addTree(ev.Name); err != nil {
						p.handler(err)
					}
				}
			}
			p.handler(nil)

		case err, ok := <-p.fsWatcher.Errors:
			if !ok {
				return
			}
			p.handler(err)

		case <-p.stopChan:
			return
		}
	}
}
