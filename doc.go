// Package projectwatcher 监控一组文件系统路径，并把突发的变更事件合并成单个防抖信号。
//
// 核心特点：
//   - 递归监控指定路径，不区分创建/修改/删除，任何变更都是同一种"原始信号"
//   - 尾沿防抖：每个原始信号都会重置倒计时，静默 Debounce 时长后才发出一个合并信号
//   - 构建工具一次写入大量文件时，消费者只会收到一次通知
//   - 底层通知实现可替换：fsnotify（默认）或 rjeczalik/notify
//
// 注意：
//   - Provider 报告的单次投递失败只记录日志，监控继续运行
//   - 原始信号和合并信号都不携带内容，通道里已有未处理的值时新值会被合并
//   - 消费者不及时接收时，合并信号被丢弃并记录日志，不会阻塞或死锁
//
// 推荐使用方式：
//  1. 配置 ConfigWatcher（或用 LoadConfigFile 从YAML读取）
//  2. 调用 Start 得到 *ProjectWatcher 和合并信号通道
//  3. 从通道读取信号并触发重建等操作
//  4. 调用 Stop 结束监控，通道随之关闭
//
// 并发安全：
//   - Provider 回调可能运行在 Provider 自己的 goroutine 上，只做非阻塞转发
//   - 倒计时只由防抖协程持有和替换，不与其他 goroutine 共享
//   - Stats、Stop 可以在任意 goroutine 调用
package projectwatcher
