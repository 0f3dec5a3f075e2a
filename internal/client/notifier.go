package client

import (
	"fmt"
	"io"
	"sync"
)

// ユーザーに見せる通知（トースト相当）
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// WriterNotifier は通知を1行ずつ書き出す（CLI用）
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(msg string) {
	n.write("ok", msg)
}

func (n *WriterNotifier) Error(msg string) {
	n.write("error", msg)
}

func (n *WriterNotifier) write(level string, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "[%s] %s\n", level, msg)
}
