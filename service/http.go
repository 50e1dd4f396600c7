package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/oy3o/httpx"
	"github.com/oy3o/netx"
	"github.com/oy3o/o11y"
	"github.com/rs/zerolog"
)

// HTTPService 承载评估 API 或监控端点的 HTTP 服务。
// 监听器经过 netx 增强：保活、连接上下文、最大并发连接保护。
type HTTPService struct {
	name    string
	addr    string
	handler http.Handler
	logger  *zerolog.Logger

	maxConns        int
	readTimeout     time.Duration
	keepAlivePeriod time.Duration
	enableReusePort bool
	netMiddlewares  []netx.Middleware
	o11yCfg         o11y.Config

	server   *http.Server
	listener net.Listener
	onFatal  ErrorNotifier
}

var _ Service = (*HTTPService)(nil)

func NewHTTPService(name, addr string, handler http.Handler) *HTTPService {
	return &HTTPService{
		name:            name,
		addr:            addr,
		handler:         handler,
		maxConns:        10000,
		readTimeout:     5 * time.Second, // 防止 Slowloris
		keepAlivePeriod: 3 * time.Minute,
	}
}

// SetErrorNotify 实现 ErrorNotifiable
func (s *HTTPService) SetErrorNotify(fn ErrorNotifier) {
	s.onFatal = fn
}

// WithNetMiddleware 注入自定义 TCP 层中间件（如 IP 白名单），在连接限流之前执行
func (s *HTTPService) WithNetMiddleware(mws ...netx.Middleware) *HTTPService {
	s.netMiddlewares = append(s.netMiddlewares, mws...)
	return s
}

// WithKeepAlive 设置 TCP 保活探测间隔
func (s *HTTPService) WithKeepAlive(d time.Duration) *HTTPService {
	s.keepAlivePeriod = d
	return s
}

// WithMaxConns 设置最大连接数
func (s *HTTPService) WithMaxConns(n int) *HTTPService {
	s.maxConns = n
	return s
}

// WithReadTimeout 设置读取请求头的超时
func (s *HTTPService) WithReadTimeout(d time.Duration) *HTTPService {
	s.readTimeout = d
	return s
}

// WithLogger 设置 Logger
func (s *HTTPService) WithLogger(l *zerolog.Logger) *HTTPService {
	s.logger = l
	return s
}

// WithObservability 启用 o11y 中间件（Tracing, Metrics, Logging, Panic Recovery）
func (s *HTTPService) WithObservability(cfg o11y.Config) *HTTPService {
	s.o11yCfg = cfg
	return s
}

// WithReusePort 启用 SO_REUSEPORT
func (s *HTTPService) WithReusePort() *HTTPService {
	s.enableReusePort = true
	return s
}

func (s *HTTPService) Name() string { return s.name }

// Addr 返回实际监听地址；未启动时返回配置地址
func (s *HTTPService) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *HTTPService) Start(ctx context.Context) error {
	ln, err := netx.ListenTCP("tcp", s.addr, netx.ListenConfig{
		EnableReusePort: s.enableReusePort,
	})
	if err != nil {
		return err
	}

	// KeepAlive -> 用户中间件 -> Context -> Limit
	chain := []netx.Middleware{netx.WithKeepAlive(s.keepAlivePeriod)}
	chain = append(chain, s.netMiddlewares...)
	chain = append(chain,
		netx.WithContext(nil),
		netx.WithLimit(s.maxConns),
	)
	ln = netx.Chain(ln, chain...)
	s.listener = ln

	handler := s.handler
	if s.o11yCfg.Enabled {
		handler = o11y.Handler(s.o11yCfg)(handler)
	} else {
		handler = httpx.Recovery(httpx.WithHook(func(ctx context.Context, err error) {
			if s.logger != nil {
				s.logger.Error().Err(err).Str("name", s.name).Msg("Panic recovered")
			}
		}))(handler)
	}

	if s.readTimeout <= 0 {
		s.readTimeout = 30 * time.Second
	}
	s.server = &http.Server{
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: s.readTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		defer handlePanic(s.logger, s.onFatal)

		printServiceListening(s.logger, s.name, "HTTP", ln.Addr().String())

		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Error().Err(err).Str("name", s.name).Msg("HTTP service crashed")
			}
			if s.onFatal != nil {
				s.onFatal(err)
			}
		}
	}()

	return nil
}

func (s *HTTPService) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
