package projectwatcher

import "errors"

// Start 失败时返回的错误都包装了以下之一，可用 errors.Is 判断失败在哪一步
var (
	ErrCreate    = errors.New("failed to create the watcher")
	ErrConfigure = errors.New("failed to configure the watcher")
	ErrWatch     = errors.New("failed to set a watched path")
)

var (
	// ErrJoin 表示防抖协程异常结束，由 Stop 返回
	ErrJoin = errors.New("debouncer ended abnormally")

	// ErrClosed 表示原始信号流已关闭（Stop 进行中或已完成）
	ErrClosed = errors.New("raw signal stream closed")

	// ErrUnsupportedConfig 表示 Provider 无法满足所需配置
	ErrUnsupportedConfig = errors.New("unsupported provider configuration")

	// ErrUnknownBackend 表示 Backend 名称未注册
	ErrUnknownBackend = errors.New("unknown watcher backend")
)
