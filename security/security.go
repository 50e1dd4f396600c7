// Package security 在 pwscored 启动前执行自检：
// 监控口令强度、参考数据是否就绪、词表文件权限、监听地址。
package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Result 单项检查结果
type Result struct {
	Name     string
	Passed   bool
	Severity Severity
	Message  string
	Error    error
}

// Checker 检查项
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// Manager 并发执行所有检查项
type Manager struct {
	logger   *zerolog.Logger
	checkers []Checker
	timeout  time.Duration
}

func New(logger *zerolog.Logger) *Manager {
	return &Manager{
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Register 注册检查项
func (m *Manager) Register(c ...Checker) {
	m.checkers = append(m.checkers, c...)
}

// Run 执行所有检查。存在 SeverityFatal 级别的失败时返回 error，
// 错误信息列出每个致命检查项的名称。
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info().Int("checks", len(m.checkers)).Msg("Running security self-checks...")

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var fatals []error
	warnCount := 0

	for _, c := range m.checkers {
		g.Go(func() error {
			// 单个检查项 panic 视为致命失败，不影响其他检查
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error().Str("checker", c.Name()).Interface("panic", r).Msg("Security checker panicked")
					mu.Lock()
					fatals = append(fatals, fmt.Errorf("%s: panic: %v", c.Name(), r))
					mu.Unlock()
				}
			}()

			res := c.Check(ctx)
			if res.Passed {
				m.logger.Debug().Str("check", res.Name).Msg("Security check passed")
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			ev := m.logger.Info()
			switch res.Severity {
			case SeverityWarn:
				warnCount++
				ev = m.logger.Warn()
			case SeverityFatal:
				fatals = append(fatals, fmt.Errorf("%s: %s", res.Name, res.Message))
				ev = m.logger.Error()
			}
			ev.Err(res.Error).Str("check", res.Name).Str("severity", res.Severity.String()).Msg(res.Message)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	m.logger.Info().
		Int("fatal", len(fatals)).
		Int("warn", warnCount).
		Msg("Security checks completed")

	if len(fatals) > 0 {
		return fmt.Errorf("security check failed: %d fatal errors found: %w", len(fatals), errors.Join(fatals...))
	}
	return nil
}
