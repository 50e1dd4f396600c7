// pwscored 通过 HTTP 提供密码强度评估服务。
package main

import (
	"cmp"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/oy3o/conf"
	"github.com/oy3o/httpx"
	"github.com/oy3o/o11y"
	"github.com/oy3o/pwscore"
	"github.com/oy3o/pwscore/api"
	"github.com/oy3o/pwscore/audit"
	"github.com/oy3o/pwscore/ratelimit"
	"github.com/oy3o/pwscore/security"
	"github.com/oy3o/pwscore/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("pwscored startup failed")
	}
}

func run() error {
	// .env 可选，已存在的环境变量优先
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env")
	}

	cfg, err := conf.Load[Config]("pwscored", conf.WithSearchPaths(".", "./config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && cfg.Log.Level != "" {
		zerolog.SetGlobalLevel(lvl)
	}
	httpx.GetTraceID = o11y.GetTraceID

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ref, err := loadReferenceData(ctx, cfg.Wordlist, &log.Logger)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	primary, others, err := buildEvaluators(cfg.App, ref, &log.Logger)
	if err != nil {
		return err
	}

	apiAddr := cmp.Or(cfg.App.Addr, "127.0.0.1:8080")

	// 1. 启动自检
	secMgr := security.New(&log.Logger)
	secMgr.Register(
		&security.WordlistChecker{Data: primary, Severity: security.SeverityWarn},
		&security.BindAddrChecker{Addr: apiAddr, AllowPublic: cfg.App.AllowPublic},
	)
	for _, f := range ref.files {
		secMgr.Register(&security.FilePermChecker{Path: f, MaxPerm: 0o644, Severity: security.SeverityFatal})
	}
	if cfg.Monitor.Addr != "" {
		secMgr.Register(&security.BindAddrChecker{Addr: cfg.Monitor.Addr})
	}
	if cfg.Monitor.User != "" {
		secMgr.Register(&security.SecretStrengthChecker{
			NameID:    "monitor",
			Secret:    cfg.Monitor.Password,
			MinScore:  cmp.Or(cfg.Monitor.MinScore, 6),
			Evaluator: primary,
			Severity:  security.SeverityFatal,
		})
	}

	// 2. 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := api.NewMetrics(registry)

	host := service.New(
		service.WithLogger(&log.Logger),
		service.WithSecurityManager(secMgr),
		service.WithShutdownTimeout(10*time.Second),
		service.WithConfig(cfg),
	)

	apiOpts := []api.Option{
		api.WithMaxPasswordLen(cfg.App.MaxInputLen),
		api.WithMetrics(metrics),
		api.WithLogger(&log.Logger),
	}
	for _, e := range others {
		apiOpts = append(apiOpts, api.WithEvaluator(e))
	}

	// 3. 审计
	if cfg.Audit.Enabled {
		runner := audit.NewRunner(cfg.Audit)
		fp, err := pwscore.NewFingerprinter([]byte(cfg.Audit.FingerprintKey))
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		if cfg.Audit.FingerprintKey == "" {
			log.Warn().Msg("audit.fingerprint_key is empty, fingerprints are only comparable within this process")
		}
		apiOpts = append(apiOpts, api.WithRecorder(audit.NewRecorder(runner, fp, &log.Logger)))
		host.Add(service.NewTaskService("audit", runner))
	}

	// 4. 监控
	if cfg.Monitor.Addr != "" {
		var mws []func(http.Handler) http.Handler
		if cfg.Monitor.User != "" {
			mws = append(mws, httpx.AuthBasic(monitorAuth(cfg.Monitor), "pwscored monitor"))
		}
		host.Add(service.NewMonitorService(cfg.Monitor.Addr, host.HealthHandler(), registry, mws...))
	}

	// 5. 评估 API
	var handler http.Handler = api.New(primary, apiOpts...).Routes()
	if cfg.RateLimit.Enabled() {
		rdb, err := ratelimit.NewClient(cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("ratelimit: %w", err)
		}
		proxies, err := ratelimit.ParseProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			return fmt.Errorf("ratelimit: %w", err)
		}
		handler = ratelimit.NewTokenBucket(rdb, cfg.RateLimit.Rate, cfg.RateLimit.Burst, ratelimit.PerIPKey("pwscore:rl", proxies)).
			WithLogger(&log.Logger).
			Middleware(handler)
		host.AddHealthChecker(&redisChecker{rdb: rdb})
		host.AddShutdownHook(func(ctx context.Context) error {
			return rdb.Close()
		})
	}
	handler = httpx.Chain(handler, httpx.DefaultCORS())

	apiSvc := service.NewHTTPService(cmp.Or(cfg.App.Name, "pwscore-api"), apiAddr, handler).
		WithLogger(&log.Logger).
		WithKeepAlive(time.Minute).
		WithObservability(cfg.O11y)
	if cfg.App.MaxConns > 0 {
		apiSvc.WithMaxConns(cfg.App.MaxConns)
	}
	host.Add(apiSvc)

	log.Info().
		Str("addr", apiAddr).
		Str("variant", primary.Variant().Name).
		Str("class_policy", primary.ClassPolicy().String()).
		Msg("Starting pwscored...")
	return host.Run(context.Background())
}

func monitorAuth(cfg MonitorConfig) func(ctx context.Context, user, pass string) (any, error) {
	return func(ctx context.Context, user, pass string) (any, error) {
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.User)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
		if userOK && passOK {
			return user, nil
		}
		return nil, errors.New("invalid credentials")
	}
}

type redisChecker struct {
	rdb *redis.Client
}

func (c *redisChecker) Name() string { return "redis" }
func (c *redisChecker) Check(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
