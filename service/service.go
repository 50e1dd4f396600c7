// Package service 托管 pwscored 进程内各组件的生命周期：
// 启动自检、按序启动（失败回滚）、等待信号或致命错误、倒序优雅停止。
package service

import "context"

// Service 是一个可以被 Host 托管生命周期的组件，
// 例如评估 API、监控端口、后台审计任务。
type Service interface {
	// Name 返回服务名称，用于日志记录
	Name() string

	// Start 启动服务，必须是非阻塞的。
	// 启动失败（如端口被占用）应立即返回 error；阻塞的 Serve 请放到内部 goroutine。
	Start(ctx context.Context) error

	// Stop 优雅停止服务，阻塞直到完全停止或 ctx 超时。
	Stop(ctx context.Context) error
}

// ErrorNotifier 错误通知回调
type ErrorNotifier func(error)

// ErrorNotifiable 是可选接口。
// Host 在 Add 时注入回调，服务在运行期遇到致命错误时调用它触发整体关闭。
type ErrorNotifiable interface {
	SetErrorNotify(ErrorNotifier)
}

// HealthChecker 健康检查
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// ShutdownHook 所有服务停止之后执行的清理函数（如关闭 Redis 连接）
type ShutdownHook func(ctx context.Context) error
