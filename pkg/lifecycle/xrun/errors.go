package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 表示因收到系统信号而终止。
	// 用 errors.Is(err, ErrSignal) 判定。
	ErrSignal = errors.New("xrun: received signal")

	// ErrNilFunc 表示注册了 nil 服务函数。
	ErrNilFunc = errors.New("xrun: nil service func")

	// ErrNilServer 表示传入的 HTTP 服务器为 nil。
	ErrNilServer = errors.New("xrun: nil http server")
)

// SignalError 携带触发终止的具体信号。
// 用 errors.As 获取信号值：
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    log.Printf("signal: %v", sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "xrun: received signal <nil>"
	}
	return fmt.Sprintf("xrun: received signal %s", e.Signal)
}

// Unwrap 支持 errors.Is(err, ErrSignal)。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
