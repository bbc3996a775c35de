package xsweep

import "errors"

var (
	// ErrNilJob 表示任务函数为 nil。
	ErrNilJob = errors.New("xsweep: job cannot be nil")

	// ErrEmptyName 表示任务名为空。
	ErrEmptyName = errors.New("xsweep: job name cannot be empty")

	// ErrDuplicateName 表示任务名已注册。
	ErrDuplicateName = errors.New("xsweep: job name already registered")

	// ErrStarted 表示调度器已启动，不再接受注册。
	ErrStarted = errors.New("xsweep: scheduler already started")

	// ErrUnknownJob 表示任务名未注册。
	ErrUnknownJob = errors.New("xsweep: unknown job")

	// ErrSkipped 表示任务上一轮仍在执行，本轮被跳过。
	ErrSkipped = errors.New("xsweep: job still running, skipped")
)
