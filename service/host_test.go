package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/oy3o/pwscore/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	name       string
	startFunc  func(context.Context) error
	stopFunc   func(context.Context) error
	errHandler ErrorNotifier
}

func (m *MockService) Name() string { return m.name }

func (m *MockService) Start(ctx context.Context) error {
	if m.startFunc != nil {
		return m.startFunc(ctx)
	}
	return nil
}

func (m *MockService) Stop(ctx context.Context) error {
	if m.stopFunc != nil {
		return m.stopFunc(ctx)
	}
	return nil
}

func (m *MockService) SetErrorNotify(fn ErrorNotifier) {
	m.errHandler = fn
}

// testLogWriter 把 zerolog 的 JSON 行解析成 map，便于断言
type testLogWriter struct {
	mu      sync.Mutex
	Entries []map[string]any
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	entry := make(map[string]any)
	if err := json.Unmarshal(p, &entry); err != nil || len(entry) == 0 {
		entry = map[string]any{"raw": string(p)}
	}
	w.mu.Lock()
	w.Entries = append(w.Entries, entry)
	w.mu.Unlock()
	return len(p), nil
}

func (w *testLogWriter) hasMessage(msg string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.Entries {
		if e["message"] == msg {
			return true
		}
	}
	return false
}

func (w *testLogWriter) hasField(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.Entries {
		if _, ok := e[key]; ok {
			return true
		}
	}
	return false
}

func TestHost_ConcurrentFatal(t *testing.T) {
	logOutput := &testLogWriter{}
	logger := zerolog.New(logOutput)
	host := New(WithLogger(&logger))

	svcA := &MockService{name: "evaluate-api"}
	svcA.startFunc = func(ctx context.Context) error {
		go func() {
			time.Sleep(10 * time.Millisecond)
			svcA.errHandler(errors.New("error from A"))
		}()
		return nil
	}

	// B 稍晚报错，此时 Host 已进入关闭流程
	svcB := &MockService{name: "audit"}
	svcB.startFunc = func(ctx context.Context) error {
		go func() {
			time.Sleep(12 * time.Millisecond)
			svcB.errHandler(errors.New("error from B"))
		}()
		return nil
	}

	host.Add(svcA)
	host.Add(svcB)

	err := host.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "error from A", err.Error())

	assert.Eventually(t, func() bool {
		return logOutput.hasMessage("Secondary fatal error occurred during shutdown")
	}, time.Second, 10*time.Millisecond)
}

func TestHandlePanic(t *testing.T) {
	logOutput := &testLogWriter{}
	logger := zerolog.New(logOutput)

	var notified error
	func() {
		defer handlePanic(&logger, func(err error) { notified = err })
		panic("boom")
	}()

	require.Error(t, notified)
	assert.Contains(t, notified.Error(), "service panic")
	assert.Contains(t, notified.Error(), "boom")
	assert.True(t, logOutput.hasField("stack"), "Log should contain stack trace")
}

type mockHealthChecker struct {
	name  string
	err   error
	delay time.Duration
}

func (m *mockHealthChecker) Name() string { return m.name }
func (m *mockHealthChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.err
}

func TestHost_HealthHandler(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("All Healthy", func(t *testing.T) {
		host := New(WithLogger(&logger))
		host.AddHealthChecker(&mockHealthChecker{name: "wordlist"})
		host.AddHealthChecker(&mockHealthChecker{name: "redis"})

		w := httptest.NewRecorder()
		host.HealthHandler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("One Failure", func(t *testing.T) {
		host := New(WithLogger(&logger))
		host.AddHealthChecker(&mockHealthChecker{name: "wordlist"})
		host.AddHealthChecker(&mockHealthChecker{name: "redis", err: errors.New("connection refused")})

		w := httptest.NewRecorder()
		host.HealthHandler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "redis")
		assert.Contains(t, w.Body.String(), "connection refused")
	})

	t.Run("Timeout", func(t *testing.T) {
		host := New(WithLogger(&logger))
		host.AddHealthChecker(&mockHealthChecker{name: "slow", delay: 5 * time.Second})

		w := httptest.NewRecorder()
		host.HealthHandler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "context deadline exceeded")
	})
}

func TestHost_Run_Rollback(t *testing.T) {
	logger := zerolog.Nop()
	host := New(WithLogger(&logger))

	svc1Stopped := false
	host.Add(&MockService{
		name: "audit",
		stopFunc: func(ctx context.Context) error {
			svc1Stopped = true
			return nil
		},
	})
	host.Add(&MockService{
		name: "evaluate-api",
		startFunc: func(ctx context.Context) error {
			return errors.New("port binding failed")
		},
	})

	err := host.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port binding failed")
	assert.True(t, svc1Stopped, "started services should be rolled back")
}

func TestHost_Run_ContextCancel(t *testing.T) {
	logger := zerolog.Nop()
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	host := New(WithLogger(&logger), WithShutdownTimeout(time.Second))
	for _, name := range []string{"audit", "monitor", "evaluate-api"} {
		host.Add(&MockService{name: name, stopFunc: func(ctx context.Context) error {
			record("stop:" + name)
			return nil
		}})
	}
	host.AddShutdownHook(func(ctx context.Context) error {
		record("hook")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, host.Run(ctx))
	assert.Equal(t, []string{"stop:evaluate-api", "stop:monitor", "stop:audit", "hook"}, order)
}

type mockChecker struct {
	result security.Result
}

func (c *mockChecker) Name() string { return c.result.Name }

func (c *mockChecker) Check(ctx context.Context) security.Result { return c.result }

func TestHost_Run_SecurityCheckFail(t *testing.T) {
	logger := zerolog.Nop()
	secMgr := security.New(&logger)
	secMgr.Register(&mockChecker{result: security.Result{
		Name: "monitor_password", Passed: false, Severity: security.SeverityFatal, Message: "weak secret",
	}})

	started := false
	host := New(WithLogger(&logger), WithSecurityManager(secMgr))
	host.Add(&MockService{name: "api", startFunc: func(ctx context.Context) error {
		started = true
		return nil
	}})

	err := host.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security check failed")
	assert.False(t, started, "services must not start when self-checks fail")
}

func TestNewMonitorService(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pwscore_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("healthy"))
	})

	svc := NewMonitorService("127.0.0.1:0", health, reg)
	svc.WithLogger(&log.Logger)
	assert.Equal(t, "monitor", svc.Name())

	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop(context.Background())

	base := "http://" + svc.Addr()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", string(body))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pwscore_test_total 1")
}
