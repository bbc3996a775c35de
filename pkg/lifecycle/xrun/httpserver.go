package xrun

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServerInterface HTTP 服务器的最小接口，*http.Server 天然满足。
type HTTPServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServer 把 http.Server 适配为支持优雅关闭的服务函数。
// ctx 取消时触发 Shutdown；shutdownTimeout 非正值表示等待全部在途
// 请求完成。
func HTTPServer(server HTTPServerInterface, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}

		shutdownErrCh := make(chan error, 1)
		// listenDone 通知关闭 goroutine：ListenAndServe 已自行返回
		//（外部关闭或启动失败），无需再 Shutdown。
		listenDone := make(chan struct{})

		go func() {
			select {
			case <-ctx.Done():
				shutdownCtx := context.Background()
				if shutdownTimeout > 0 {
					var cancel context.CancelFunc
					shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
					defer cancel()
				}
				shutdownErrCh <- server.Shutdown(shutdownCtx)
			case <-listenDone:
			}
		}()

		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			select {
			case shutdownErr := <-shutdownErrCh:
				return shutdownErr
			case <-ctx.Done():
				return <-shutdownErrCh
			default:
				// 外部直接调用了 Shutdown/Close，ctx 未取消
				close(listenDone)
				return nil
			}
		}

		close(listenDone)
		return err
	}
}
