// Package audit 异步记录每次评估。记录中只有带密钥的摘要，从不包含明文。
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/oy3o/pwscore"
	"github.com/oy3o/task"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrDropped 队列已满，记录被丢弃
var ErrDropped = errors.New("audit: record dropped")

type Config struct {
	Enabled        bool   `mapstructure:"enabled"`
	Workers        int    `mapstructure:"workers"`
	Queue          int    `mapstructure:"queue"`
	FingerprintKey string `mapstructure:"fingerprint_key"` // 为空时每次启动随机生成
}

// NewRunner 按配置创建审计任务执行器
func NewRunner(cfg Config) *task.Runner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queue := cfg.Queue
	if queue <= 0 {
		queue = 1024
	}
	return task.NewRunner(task.WithMaxWorkers(workers), task.WithQueueSize(queue))
}

// Record 一条审计记录
type Record struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Variant     string    `json:"variant"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	Strength    string    `json:"strength"`
	Entropy     float64   `json:"entropy"`
	At          time.Time `json:"at"`
}

// Recorder 把审计记录提交到任务执行器，由后台任务写日志。
// 审计是尽力而为的，队列满时丢弃记录，不影响请求。
type Recorder struct {
	runner  *task.Runner
	fp      *pwscore.Fingerprinter
	logger  *zerolog.Logger
	now     func() time.Time
	dropped atomic.Int64
}

func NewRecorder(runner *task.Runner, fp *pwscore.Fingerprinter, logger *zerolog.Logger) *Recorder {
	if logger == nil {
		logger = &log.Logger
	}
	return &Recorder{
		runner: runner,
		fp:     fp,
		logger: logger,
		now:    time.Now,
	}
}

// Record 生成记录并异步写出。摘要在调用方 goroutine 中计算，明文不会进入队列。
func (r *Recorder) Record(ctx context.Context, password string, res pwscore.Result) error {
	rec := Record{
		ID:          uuid.NewString(),
		Fingerprint: r.fp.Sum(password),
		Variant:     res.Variant,
		Score:       res.Score,
		MaxScore:    res.MaxScore,
		Strength:    res.Strength,
		Entropy:     res.Entropy,
		At:          r.now().UTC(),
	}

	logger := r.logger
	err := r.runner.Submit(func(ctx context.Context) {
		payload, err := sonic.Marshal(rec)
		if err != nil {
			logger.Error().Err(err).Str("id", rec.ID).Msg("Failed to encode audit record")
			return
		}
		logger.Info().RawJSON("audit", payload).Msg("Password evaluated")
	})
	if err != nil {
		r.dropped.Add(1)
		if errors.Is(err, task.ErrQueueFull) {
			r.logger.Warn().Str("id", rec.ID).Int64("dropped", r.dropped.Load()).Msg("Audit queue full, record dropped")
		} else {
			r.logger.Warn().Err(err).Str("id", rec.ID).Msg("Audit submit failed, record dropped")
		}
		return fmt.Errorf("%w: %w", ErrDropped, err)
	}
	return nil
}

// Dropped 返回累计丢弃的记录数
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }
