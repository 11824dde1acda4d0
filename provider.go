package projectwatcher

import (
	"fmt"
	"time"
)

// 已注册的后端名称
const (
	BackendFsnotify = "fsnotify"
	BackendNotify   = "notify"
)

// Handler 是 Provider 每收到一次原始通知就调用的回调
//
// err == nil 表示某个被监控根路径下发生了变更（不携带细节）
// err != nil 表示 Provider 报告了一次投递失败，监控仍在继续
//
// Handler 可能在 Provider 自己的 goroutine 上被调用，必须快速返回且不能阻塞
type Handler func(err error)

// ProviderConfig 控制 Provider 内置的事件批处理
//
// Precise：是否需要精确的事件类型（创建/修改/删除）
// Aggregate：是否由 Provider 自行合并、去重事件
// Ongoing：持续写入时周期性补发事件的间隔，0 表示关闭
//
// 防抖策略由本包负责，所以 Start 总是传入零值：原始、立即投递
type ProviderConfig struct {
	Precise   bool
	Aggregate bool
	Ongoing   time.Duration
}

func (c ProviderConfig) immediate() bool {
	return !c.Precise && !c.Aggregate && c.Ongoing == 0
}

// Provider 是底层文件系统通知实现
//
// 调用顺序固定为 Configure -> WatchRecursive(可多次) -> Close
// Close 返回后不得再调用 Handler
type Provider interface {
	Configure(cfg ProviderConfig) error
	WatchRecursive(path string) error
	Close() error
}

// ProviderFactory 用给定回调构造一个 Provider
type ProviderFactory func(handler Handler) (Provider, error)

var backends = map[string]ProviderFactory{
	BackendFsnotify: newFsnotifyProvider,
	BackendNotify:   newNotifyProvider,
}

// NewProvider 按名称构造已注册的 Provider
func NewProvider(backend string, handler Handler) (Provider, error) {
	factory, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return factory(handler)
}
