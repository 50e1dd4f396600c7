// Package ratelimit 基于 Redis 的令牌桶限流中间件，Redis 不可用时放行。
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config 限流配置，RedisURL 为空时不启用
type Config struct {
	RedisURL string  `mapstructure:"redis_url"`
	Rate     float64 `mapstructure:"rate"`  // 每秒补充的令牌数
	Burst    int     `mapstructure:"burst"` // 桶容量

	// 可信反向代理（IP 或 CIDR）。只有来自这些地址的请求才读取转发头
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

func (c Config) Enabled() bool { return c.RedisURL != "" }

// KeyFunc 计算请求所属的桶
type KeyFunc func(r *http.Request) string

// Proxies 可信反向代理网段
type Proxies []netip.Prefix

// ParseProxies 解析 IP 或 CIDR 列表，单个 IP 视为 /32 或 /128
func ParseProxies(list []string) (Proxies, error) {
	out := make(Proxies, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (p Proxies) trusts(addr netip.Addr) bool {
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// PerIPKey 按客户端 IP 分桶。trusted 为空时忽略所有转发头。
func PerIPKey(prefix string, trusted Proxies) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r, trusted)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

func clientIP(r *http.Request, trusted Proxies) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil || !trusted.trusts(addr.Unmap()) {
		return peer
	}

	// X-Forwarded-For: client, proxy1, proxy2...
	// 从右往左跳过可信代理，第一个不可信的地址就是客户端
	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			hop = hop.Unmap()
			if !trusted.trusts(hop) || i == 0 {
				return hop.String()
			}
		}
	}
	if xrip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xrip.Unmap().String()
	}
	return peer
}

// KEYS[1] = 桶 (hash: tokens, ts)
// ARGV[1] = 每秒令牌数, ARGV[2] = 容量
// 返回 {allowed (1/0), remaining, retry_after_ms}
var tokenBucket = redis.NewScript(`
local key  = KEYS[1]
local rate = tonumber(ARGV[1])
local cap  = tonumber(ARGV[2])

local t = redis.call('TIME')
local now_ms = (tonumber(t[1]) * 1000) + math.floor(tonumber(t[2]) / 1000)

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts     = tonumber(data[2])

if tokens == nil then
  tokens = cap
  ts = now_ms
end

local delta_ms = now_ms - ts
if delta_ms > 0 then
  tokens = math.min(cap, tokens + (delta_ms / 1000.0) * rate)
end

local allowed = 0
local retry_after_ms = 0
if tokens >= 1.0 then
  tokens = tokens - 1.0
  allowed = 1
else
  retry_after_ms = math.ceil((1.0 - tokens) * 1000.0 / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now_ms)
redis.call('PEXPIRE', key, math.ceil((cap / rate) * 1000.0))

return {allowed, math.floor(tokens), retry_after_ms}
`)

// TokenBucket 令牌桶限流器
type TokenBucket struct {
	rdb    redis.Scripter
	keyFn  KeyFunc
	rate   float64
	burst  int
	logger *zerolog.Logger
}

func NewTokenBucket(rdb redis.Scripter, rate float64, burst int, keyFn KeyFunc) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = PerIPKey("rl:evaluate", nil)
	}
	return &TokenBucket{
		rdb:    rdb,
		keyFn:  keyFn,
		rate:   rate,
		burst:  burst,
		logger: &log.Logger,
	}
}

func (tb *TokenBucket) WithLogger(l *zerolog.Logger) *TokenBucket {
	tb.logger = l
	return tb
}

// NewClient 按 redis URL 创建客户端，例如 redis://:pass@host:6379/0
func NewClient(cfg Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// Middleware 返回 http 中间件，可直接用于 httpx.Chain
func (tb *TokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tb.keyFn(r)

		res, err := tokenBucket.Run(r.Context(), tb.rdb, []string{key},
			strconv.FormatFloat(tb.rate, 'f', -1, 64),
			strconv.Itoa(tb.burst),
		).Int64Slice()
		if err != nil || len(res) != 3 {
			tb.logger.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Policy", "token-bucket")
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tb.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

		if res[0] != 1 {
			sec := max((res[2]+999)/1000, 1)
			w.Header().Set("Retry-After", strconv.FormatInt(sec, 10))
			tb.logger.Info().Str("key", key).Int64("retry_after", sec).Msg("Request rate limited")
			writeTooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeTooManyRequests(w http.ResponseWriter) {
	body, _ := sonic.Marshal(errorBody{Code: "TOO_MANY_REQUESTS", Message: "too many requests"})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write(body)
}
