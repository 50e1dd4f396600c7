package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/oy3o/o11y"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPService_Options(t *testing.T) {
	svc := NewHTTPService("evaluate-api", ":8080", http.NotFoundHandler())

	svc.WithMaxConns(100)
	assert.Equal(t, 100, svc.maxConns)

	l := zerolog.Nop()
	svc.WithLogger(&l)
	assert.Equal(t, &l, svc.logger)

	svc.WithReusePort()
	assert.True(t, svc.enableReusePort)

	svc.WithObservability(o11y.Config{Enabled: true})
	assert.True(t, svc.o11yCfg.Enabled)

	svc.WithNetMiddleware(func(l net.Listener) net.Listener { return l })
	assert.Len(t, svc.netMiddlewares, 1)

	svc.WithKeepAlive(10 * time.Second)
	assert.Equal(t, 10*time.Second, svc.keepAlivePeriod)

	svc.WithReadTimeout(2 * time.Second)
	assert.Equal(t, 2*time.Second, svc.readTimeout)

	assert.Equal(t, ":8080", svc.Addr(), "Addr falls back to the configured address before Start")
}

func TestHTTPService_ServeAndStop(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/panic" {
			panic("handler exploded")
		}
		w.Write([]byte("pong"))
	})

	l := zerolog.Nop()
	svc := NewHTTPService("evaluate-api", "127.0.0.1:0", handler).WithLogger(&l)

	var fatal error
	svc.SetErrorNotify(func(err error) { fatal = err })

	require.NoError(t, svc.Start(context.Background()))
	base := "http://" + svc.Addr()

	resp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	// 处理器 panic 被恢复，服务继续可用
	resp, err = http.Get(base + "/panic")
	if err == nil {
		resp.Body.Close()
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	}

	resp, err = http.Get(base + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, svc.Stop(context.Background()))
	assert.NoError(t, fatal)

	_, err = http.Get(base + "/ping")
	assert.Error(t, err, "server should be closed")
}

func TestHTTPService_StartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	svc := NewHTTPService("evaluate-api", ln.Addr().String(), http.NotFoundHandler())
	assert.Error(t, svc.Start(context.Background()))
	assert.NoError(t, svc.Stop(context.Background()))
}
