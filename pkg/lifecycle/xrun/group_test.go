package xrun

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGroup_ErrorCancelsSiblings(t *testing.T) {
	g, _ := NewGroup(context.Background())
	boom := errors.New("worker failed")
	var siblingCancelled atomic.Bool

	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		siblingCancelled.Store(true)
		return ctx.Err()
	})
	g.Go(func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, g.Wait(), boom)
	assert.True(t, siblingCancelled.Load())
}

func TestGroup_PlainCancellationFiltered(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	go g.Cancel(nil)
	assert.NoError(t, g.Wait())
}

func TestGroup_CancelCauseSurvives(t *testing.T) {
	g, _ := NewGroup(context.Background())
	cause := errors.New("deploy rollover")
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	go g.Cancel(cause)
	assert.ErrorIs(t, g.Wait(), cause)
}

func TestGroup_CauseReturnedEvenWhenServicesReturnNil(t *testing.T) {
	g, _ := NewGroup(context.Background())
	cause := errors.New("explicit stop")
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil // 服务吞掉了取消
	})

	go g.Cancel(cause)
	assert.ErrorIs(t, g.Wait(), cause)
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go(nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

func TestRun_SignalExit(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), (<-chan os.Signal)(sigCh))

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, nil, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	sigCh <- syscall.SIGTERM

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrSignal)
		var sigErr *SignalError
		require.ErrorAs(t, err, &sigErr)
		assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit on signal")
	}
}

func TestRun_ServiceErrorWins(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), (<-chan os.Signal)(sigCh))
	boom := errors.New("listen failed")

	err := Run(ctx, nil, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type fakeServer struct {
	listenErr  error
	shutdownCh chan struct{}
	listening  chan struct{}
}

func (s *fakeServer) ListenAndServe() error {
	close(s.listening)
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.shutdownCh
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	close(s.shutdownCh)
	return nil
}

func TestHTTPServer_GracefulShutdown(t *testing.T) {
	srv := &fakeServer{
		shutdownCh: make(chan struct{}),
		listening:  make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- HTTPServer(srv, time.Second)(ctx) }()

	<-srv.listening
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHTTPServer_ListenFailure(t *testing.T) {
	bindErr := errors.New("address already in use")
	srv := &fakeServer{
		listenErr:  bindErr,
		shutdownCh: make(chan struct{}),
		listening:  make(chan struct{}),
	}

	err := HTTPServer(srv, time.Second)(context.Background())
	assert.ErrorIs(t, err, bindErr)
}

func TestHTTPServer_NilServer(t *testing.T) {
	assert.ErrorIs(t, HTTPServer(nil, 0)(context.Background()), ErrNilServer)
}
