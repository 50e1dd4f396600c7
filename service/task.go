package service

import (
	"context"

	"github.com/oy3o/task"
)

// TaskService 托管后台任务执行器（评估审计记录在这里异步写出）
type TaskService struct {
	name   string
	runner *task.Runner
}

func NewTaskService(name string, runner *task.Runner) *TaskService {
	return &TaskService{name: name, runner: runner}
}

func (t *TaskService) Name() string { return t.name }

func (t *TaskService) Start(ctx context.Context) error {
	return t.runner.Start(ctx)
}

func (t *TaskService) Stop(ctx context.Context) error {
	return t.runner.Stop(ctx)
}
