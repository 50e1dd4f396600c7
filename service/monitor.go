package service

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMonitorService 创建监控服务：/healthz、/metrics 和 /debug/pprof。
// gatherer 为 nil 时暴露默认注册表；mws 用于保护整个监控端口。
//
// 示例 - 添加 Basic Auth:
//
//	host.Add(service.NewMonitorService(":9090", host.HealthHandler(), nil,
//	  httpx.AuthBasic(validator, "Monitor"),
//	))
func NewMonitorService(addr string, healthHandler http.Handler, gatherer prometheus.Gatherer, mws ...func(http.Handler) http.Handler) *HTTPService {
	mux := http.NewServeMux()

	if healthHandler != nil {
		mux.Handle("/healthz", healthHandler)
	} else {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	}

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	// pprof 默认注册在 DefaultServeMux，这里手动注册以隔离到监控端口
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// 洋葱模型：先传入的在最外层
	var handler http.Handler = mux
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}

	return NewHTTPService("monitor", addr, handler)
}
