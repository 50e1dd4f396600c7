// Package api 通过 HTTP 暴露密码强度评估。
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/oy3o/httpx"
	"github.com/oy3o/o11y"
	"github.com/oy3o/pwscore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMaxPasswordLen 单次评估允许的最大字符数
const DefaultMaxPasswordLen = 256

// Recorder 评估审计，*audit.Recorder 实现了它
type Recorder interface {
	Record(ctx context.Context, password string, res pwscore.Result) error
}

type EvaluateReq struct {
	Password string `json:"password"`
	Variant  string `json:"variant,omitempty"`
}

type VariantInfo struct {
	Name     string   `json:"name"`
	MaxScore int      `json:"max_score"`
	Labels   []string `json:"labels"`
	Default  bool     `json:"default"`
}

// API 持有每个评分方案对应的评估器
type API struct {
	evaluators map[string]*pwscore.Evaluator
	order      []string
	fallback   string
	maxLen     int

	metrics  *Metrics
	recorder Recorder
	logger   *zerolog.Logger
}

type Option func(*API)

// WithEvaluator 注册额外的评估器，按其方案名路由
func WithEvaluator(e *pwscore.Evaluator) Option {
	return func(a *API) { a.add(e) }
}

// WithMaxPasswordLen 设置最大字符数，n <= 0 时使用默认值
func WithMaxPasswordLen(n int) Option {
	return func(a *API) {
		if n > 0 {
			a.maxLen = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(a *API) { a.metrics = m }
}

func WithRecorder(r Recorder) Option {
	return func(a *API) { a.recorder = r }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// New 以 def 为默认评估器创建 API
func New(def *pwscore.Evaluator, opts ...Option) *API {
	a := &API{
		evaluators: make(map[string]*pwscore.Evaluator),
		maxLen:     DefaultMaxPasswordLen,
		logger:     &log.Logger,
	}
	a.add(def)
	a.fallback = strings.ToLower(def.Variant().Name)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) add(e *pwscore.Evaluator) {
	name := strings.ToLower(e.Variant().Name)
	if _, ok := a.evaluators[name]; !ok {
		a.order = append(a.order, name)
	}
	a.evaluators[name] = e
}

// Routes 返回注册好路由的 mux
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/evaluate", httpx.NewHandler(a.Evaluate))
	mux.HandleFunc("GET /v1/variants", a.listVariants)
	return mux
}

// Evaluate 评估一个密码。明文不会出现在日志中。
func (a *API) Evaluate(ctx context.Context, req *EvaluateReq) (*pwscore.Result, error) {
	if n := utf8.RuneCountInString(req.Password); n > a.maxLen {
		a.metrics.reject("too_long")
		return nil, httpx.NewError(http.StatusBadRequest, "PASSWORD_TOO_LONG",
			fmt.Sprintf("password has %d characters, max %d", n, a.maxLen))
	}

	name := strings.ToLower(strings.TrimSpace(req.Variant))
	if name == "" {
		name = a.fallback
	}
	e, ok := a.evaluators[name]
	if !ok {
		a.metrics.reject("unknown_variant")
		return nil, httpx.NewError(http.StatusBadRequest, "UNKNOWN_VARIANT",
			fmt.Sprintf("unknown variant %q, available: %s", req.Variant, strings.Join(a.order, ", ")))
	}

	res := e.Evaluate(req.Password)
	a.metrics.observe(res)
	if a.recorder != nil {
		// 审计失败不影响响应
		_ = a.recorder.Record(ctx, req.Password, res)
	}

	o11y.GetLoggerFromContext(ctx).Debug().
		Str("variant", res.Variant).
		Int("score", res.Score).
		Str("strength", res.Strength).
		Msg("Password evaluated")
	return &res, nil
}

// Variants 按注册顺序列出可用方案
func (a *API) Variants() []VariantInfo {
	out := make([]VariantInfo, 0, len(a.order))
	for _, name := range a.order {
		v := a.evaluators[name].Variant()
		out = append(out, VariantInfo{
			Name:     v.Name,
			MaxScore: v.MaxScore,
			Labels:   v.Labels,
			Default:  name == a.fallback,
		})
	}
	return out
}

func (a *API) listVariants(w http.ResponseWriter, r *http.Request) {
	body, err := sonic.Marshal(httpx.Response[[]VariantInfo]{
		Code:    "OK",
		Data:    a.Variants(),
		TraceID: o11y.GetTraceID(r.Context()),
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to encode variants")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(body)
}
