package projectwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExampleStart 展示最简使用场景：一次写入多个文件，只收到一次通知
//
// 运行示例命令: go test -v -run=ExampleStart
func ExampleStart() {
	testDir := filepath.Join(".", "tmp-watcher-example")
	_ = os.MkdirAll(testDir, 0755)
	defer os.RemoveAll(testDir) // 演示结束后删除

	w, changes, err := Start(context.Background(), ConfigWatcher{
		WatchPaths: []string{testDir},
		Debounce:   50 * time.Millisecond,
	})
	if err != nil {
		fmt.Println("Error starting watcher:", err)
		return
	}

	for i := 0; i < 3; i++ {
		name := filepath.Join(testDir, fmt.Sprintf("out-%d.js", i))
		if err := os.WriteFile(name, []byte("built"), 0644); err != nil {
			fmt.Println("Error creating file:", err)
		}
	}

	select {
	case <-changes:
		fmt.Println("change detected, rebuilding")
	case <-time.After(2 * time.Second):
		fmt.Println("timeout")
	}

	if err := w.Stop(); err != nil {
		fmt.Println("Error stopping watcher:", err)
	}
	for range changes {
	}
	fmt.Println("stopped")

	// Output:
	// change detected, rebuilding
	// stopped
}
