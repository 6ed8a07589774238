// Package jsonl 实现回测结果的异步 JSONL 文件输出。
// 写入方只负责投递记录，JSON 编码与文件 I/O 在后台 goroutine 完成，
// 引擎回调路径不被磁盘写入阻塞。
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// fileBufSize 文件缓冲区大小
const fileBufSize = 1 << 20

// Writer 异步 JSONL 写入器
// 记录经 records 通道投递到后台 goroutine 逐条编码落盘；
// 关闭通过 close(records) 通知，剩余记录写完后刷新缓冲并退出。
type Writer struct {
	// path 输出文件路径
	path string
	// records 记录投递通道
	records chan any
	// flushCh 刷新请求通道（携带应答通道）
	flushCh chan chan error

	// closed 置位后拒绝新投递
	closed atomic.Bool
	// mu 串行化投递与关闭，保证不向已关闭通道发送
	mu sync.Mutex

	closeOnce sync.Once
	// closeErr 后台 goroutine 退出前的最终刷新错误
	closeErr error
	wg       sync.WaitGroup
}

// NewWriter 创建 JSONL 写入器
// 参数 path: 输出文件路径（目录不存在时自动创建）
// 参数 bufferSize: 投递通道容量
func NewWriter(path string, bufferSize int) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	w := &Writer{
		path:    path,
		records: make(chan any, bufferSize),
		flushCh: make(chan chan error),
	}

	w.wg.Add(1)
	go w.drain(f)

	return w, nil
}

// newRunWriter 创建按运行 ID 命名的写入器
// 文件名为 <runID>_<kind>.jsonl。
func newRunWriter(dir, runID, kind string, bufferSize int) (*Writer, error) {
	return NewWriter(filepath.Join(dir, runID+"_"+kind+".jsonl"), bufferSize)
}

// Write 异步写入一条记录
func (w *Writer) Write(v any) error {
	if w == nil {
		return fmt.Errorf("writer 为空")
	}
	if w.closed.Load() {
		return fmt.Errorf("writer 已关闭")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed.Load() {
		return fmt.Errorf("writer 已关闭")
	}
	w.records <- v
	return nil
}

// Flush 强制刷新文件缓冲区
func (w *Writer) Flush() error {
	if w == nil || w.closed.Load() {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed.Load() {
		return nil
	}
	done := make(chan error, 1)
	w.flushCh <- done
	return <-done
}

// Close 关闭写入器，写完剩余记录并刷新
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.mu.Lock()
		close(w.records)
		w.mu.Unlock()
		w.wg.Wait()
	})
	return w.closeErr
}

// drain 后台写入循环
// 编码失败的单条记录被丢弃，不影响后续记录。
func (w *Writer) drain(f *os.File) {
	defer w.wg.Done()
	defer f.Close()

	bw := bufio.NewWriterSize(f, fileBufSize)
	enc := json.NewEncoder(bw)

	for {
		select {
		case v, ok := <-w.records:
			if !ok {
				w.closeErr = bw.Flush()
				return
			}
			_ = enc.Encode(v)
		case done := <-w.flushCh:
			done <- bw.Flush()
		}
	}
}
