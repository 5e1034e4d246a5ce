package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrSignal 表示因收到系统信号而退出，errors.Is 可识别 *SignalError。
var ErrSignal = errors.New("received signal")

// SignalError 记录触发退出的信号。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("received signal %s", e.Signal)
}

func (e *SignalError) Is(target error) bool { return target == ErrSignal }

// Run 监听配置的地址并阻塞服务，直到 ctx 结束、收到退出信号或某个组件失败。
//
// 只能调用一次。ctx 结束时返回 nil；信号退出返回 *SignalError。Run 不会释放资源，
// 调用方仍需调用 [App.Close]。
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.Server.Addr, err)
	}
	a.addr = ln.Addr()
	close(a.ready)
	a.logger.Info(ctx, "shortlinkd listening", slog.String("addr", ln.Addr().String()))

	causeCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	g, gctx := errgroup.WithContext(causeCtx)

	g.Go(func() error {
		return a.watchSignals(gctx, cancel)
	})
	g.Go(func() error {
		return serveHTTP(gctx, a.server, ln, a.cfg.Server.ShutdownTimeout)
	})
	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(gctx)
		})
	}

	err = g.Wait()
	if err == nil || errors.Is(err, context.Canceled) {
		if cause := context.Cause(causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			err = cause
		} else {
			err = nil
		}
	}
	a.logger.Info(context.WithoutCancel(ctx), "shortlinkd stopped", slog.Any("reason", err))
	return err
}

func (a *App) watchSignals(ctx context.Context, cancel context.CancelCauseFunc) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		a.logger.Info(ctx, "received signal", slog.String("signal", sig.String()))
		cancel(&SignalError{Signal: sig})
	case <-ctx.Done():
	}
	return nil
}

// serveHTTP 在 ln 上服务，ctx 结束后在 timeout 内优雅关闭。
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case err := <-serveErr:
		// 未经 Shutdown 就退出，说明监听失败。
		return fmt.Errorf("app: http serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx := context.WithoutCancel(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, timeout)
		defer cancel()
	}
	err := srv.Shutdown(shutdownCtx)
	if e := <-serveErr; e != nil && !errors.Is(e, http.ErrServerClosed) {
		err = errors.Join(err, e)
	}
	if err != nil {
		return fmt.Errorf("app: http shutdown: %w", err)
	}
	return nil
}
