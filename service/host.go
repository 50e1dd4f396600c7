package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oy3o/pwscore/security"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Host 是 pwscored 的进程容器
type Host struct {
	config          any
	logger          *zerolog.Logger
	shutdownTimeout time.Duration
	secMgr          *security.Manager

	services       []Service
	hooks          []ShutdownHook
	healthCheckers []HealthChecker

	// fatalChan 接收服务运行期的致命错误，容量为 1，只处理第一个
	fatalChan  chan error
	inShutdown atomic.Bool
}

func New(opts ...Option) *Host {
	h := &Host{
		shutdownTimeout: 30 * time.Second,
		fatalChan:       make(chan error, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = &log.Logger
	}
	return h
}

// Add 注册服务，启动顺序即注册顺序
func (h *Host) Add(svc Service) {
	if notifier, ok := svc.(ErrorNotifiable); ok {
		notifier.SetErrorNotify(h.notifyFatalError)
	}
	h.services = append(h.services, svc)
}

// AddShutdownHook 注册关闭钩子
func (h *Host) AddShutdownHook(hook ShutdownHook) {
	h.hooks = append(h.hooks, hook)
}

// AddHealthChecker 注册健康检查
func (h *Host) AddHealthChecker(checker HealthChecker) {
	h.healthCheckers = append(h.healthCheckers, checker)
}

func (h *Host) notifyFatalError(err error) {
	if h.inShutdown.Load() {
		h.logger.Error().Err(err).Msg("Secondary fatal error occurred during shutdown")
		return
	}

	select {
	case h.fatalChan <- err:
	default:
		h.logger.Error().Err(err).Msg("Secondary fatal error occurred during shutdown")
	}
}

// handlePanic 在服务 goroutine 中捕获 panic，记录堆栈并上报为致命错误。
// 用法: defer handlePanic(logger, notifier)
func handlePanic(logger *zerolog.Logger, notifier ErrorNotifier) {
	if r := recover(); r != nil {
		err := fmt.Errorf("service panic: %v", r)

		if logger != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Service crashed with panic")
		}
		if notifier != nil {
			notifier(err)
		}
	}
}

// HealthHandler 返回 /healthz 处理器，并发执行所有检查，总耗时不超过 3 秒
func (h *Host) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		for _, c := range h.healthCheckers {
			g.Go(func() error {
				// 单项 2 秒，避免一个慢检查吃掉全部配额
				checkCtx, checkCancel := context.WithTimeout(ctx, 2*time.Second)
				defer checkCancel()

				if err := c.Check(checkCtx); err != nil {
					return fmt.Errorf("[%s] %w", c.Name(), err)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			h.logger.Warn().Err(err).Msg("Health check failed")
			http.Error(w, fmt.Sprintf("Health check failed: %v", err), http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Run 启动所有服务并阻塞，直到收到 SIGINT/SIGTERM、ctx 被取消或某个服务报告致命错误。
// 返回导致退出的致命错误；正常退出返回 nil。
func (h *Host) Run(ctx context.Context) error {
	if h.config != nil {
		printConfigSnapshot(h.logger, h.config)
	}

	if h.secMgr != nil {
		if err := h.secMgr.Run(ctx); err != nil {
			h.logger.Error().Err(err).Msg("Security check failed")
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var started []Service
	for _, svc := range h.services {
		if err := svc.Start(runCtx); err != nil {
			h.logger.Error().Err(err).Str("name", svc.Name()).Msg("Service failed to start, rolling back...")

			rollbackCtx, rollbackCancel := context.WithTimeout(context.Background(), 5*time.Second)
			for i := len(started) - 1; i >= 0; i-- {
				_ = started[i].Stop(rollbackCtx)
			}
			rollbackCancel()

			return fmt.Errorf("service %s start failed: %w", svc.Name(), err)
		}
		started = append(started, svc)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var reason string
	var returnErr error

	select {
	case sig := <-quit:
		reason = fmt.Sprintf("signal received: %s", sig)
	case <-ctx.Done():
		reason = fmt.Sprintf("context done: %v", ctx.Err())
	case err := <-h.fatalChan:
		reason = fmt.Sprintf("fatal service error: %v", err)
		returnErr = err
	}

	h.inShutdown.Store(true)
	h.logger.Info().Str("reason", reason).Msg("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer shutdownCancel()

	// 倒序停止：先停入口，再停后台任务
	for i := len(h.services) - 1; i >= 0; i-- {
		svc := h.services[i]
		h.logger.Info().Str("name", svc.Name()).Msg("Stopping service")
		if err := svc.Stop(shutdownCtx); err != nil {
			h.logger.Error().Err(err).Str("name", svc.Name()).Msg("Service stop error")
		}
	}

	for _, hook := range h.hooks {
		if err := hook(shutdownCtx); err != nil {
			h.logger.Error().Err(err).Msg("Shutdown hook error")
		}
	}

	h.logger.Info().Msg("Stopped gracefully")
	return returnErr
}
