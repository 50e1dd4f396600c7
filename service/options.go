package service

import (
	"time"

	"github.com/oy3o/pwscore/security"
	"github.com/rs/zerolog"
)

type Option func(*Host)

// WithLogger 设置自定义 Logger
func WithLogger(l *zerolog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// WithShutdownTimeout 设置优雅关闭的超时时间
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.shutdownTimeout = d
	}
}

// WithSecurityManager 注入启动自检
func WithSecurityManager(mgr *security.Manager) Option {
	return func(h *Host) {
		h.secMgr = mgr
	}
}

// WithConfig 注入配置对象，启动时打印脱敏后的配置快照
func WithConfig(cfg any) Option {
	return func(h *Host) {
		h.config = cfg
	}
}
