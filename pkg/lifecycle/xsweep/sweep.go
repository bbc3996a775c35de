package xsweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/gatekit/pkg/observability/xlog"
	"github.com/omeyang/gatekit/pkg/util/xclock"
)

// Job 维护任务函数。
// ctx 在调度器停止时被取消，慢任务应响应取消尽快退出。
type Job func(ctx context.Context) error

// JobStats 单个任务的执行统计快照。
type JobStats struct {
	// Runs 实际执行次数（不含跳过）
	Runs uint64 `json:"runs"`
	// Failures 返回错误或 panic 的次数
	Failures uint64 `json:"failures"`
	// Skips 因上一轮未结束而跳过的次数
	Skips uint64 `json:"skips"`
	// LastRun 最近一次执行的开始时间，零值表示从未执行
	LastRun time.Time `json:"last_run"`
	// LastError 最近一次执行的错误信息，成功时为空
	LastError string `json:"last_error,omitempty"`
}

// jobState 任务运行时状态。
type jobState struct {
	name    string
	job     Job
	running atomic.Bool

	mu    sync.Mutex
	stats JobStats
}

// Scheduler 进程内维护任务调度器。
// 必须通过 [New] 创建；Add 在 Start 之前调用，其余方法并发安全。
type Scheduler struct {
	cron   *cron.Cron
	logger xlog.Logger
	clock  xclock.Clock

	baseCtx context.Context
	cancel  context.CancelFunc
	// inflight 追踪所有执行中的任务（含 Trigger 触发），Stop 等待其归零。
	inflight sync.WaitGroup

	mu      sync.Mutex
	started bool
	jobs    map[string]*jobState
}

// New 创建调度器。
func New(opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		logger:  o.logger,
		clock:   o.clock,
		baseCtx: ctx,
		cancel:  cancel,
		jobs:    make(map[string]*jobState),
	}
}

// Add 注册具名周期任务。
// spec 为 cron 表达式，如 "@every 10m"；表达式非法时返回解析错误。
// 同名任务只能注册一次；调度器启动后不再接受注册。
func (s *Scheduler) Add(name, spec string, job Job) error {
	if name == "" {
		return ErrEmptyName
	}
	if job == nil {
		return ErrNilJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	state := &jobState{name: name, job: job}
	if _, err := s.cron.AddFunc(spec, func() { s.run(state) }); err != nil {
		return fmt.Errorf("xsweep: invalid spec %q for job %s: %w", spec, name, err)
	}
	s.jobs[name] = state
	return nil
}

// Start 启动调度器（非阻塞）。重复调用无效果。
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info(s.baseCtx, "maintenance scheduler started",
		slog.Int("jobs", len(s.jobs)))
}

// Stop 优雅停止：取消所有任务上下文，等待运行中的任务结束。
// ctx 先到期时返回 ctx.Err()，此时可能仍有任务在收尾。
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info(context.Background(), "maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger 立即执行一次指定任务，供运维端点手动触发。
// 任务未注册返回 ErrUnknownJob；上一轮仍在执行返回 ErrSkipped；
// 否则返回任务自身的执行结果。执行计入统计。
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	state, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !state.running.CompareAndSwap(false, true) {
		return ErrSkipped
	}
	defer state.running.Store(false)
	return s.execute(ctx, state)
}

// Stats 返回全部任务的统计快照。
func (s *Scheduler) Stats() map[string]JobStats {
	s.mu.Lock()
	states := make([]*jobState, 0, len(s.jobs))
	for _, state := range s.jobs {
		states = append(states, state)
	}
	s.mu.Unlock()

	out := make(map[string]JobStats, len(states))
	for _, state := range states {
		state.mu.Lock()
		out[state.name] = state.stats
		state.mu.Unlock()
	}
	return out
}

// run 周期触发入口：跳过重入后执行。
func (s *Scheduler) run(state *jobState) {
	if !state.running.CompareAndSwap(false, true) {
		state.mu.Lock()
		state.stats.Skips++
		state.mu.Unlock()
		s.logger.Warn(s.baseCtx, "maintenance job still running, skipped",
			slog.String("job", state.name))
		return
	}
	defer state.running.Store(false)

	_ = s.execute(s.baseCtx, state)
}

// execute 执行任务并记录统计。调用方负责重入保护。
func (s *Scheduler) execute(ctx context.Context, state *jobState) (err error) {
	s.inflight.Add(1)
	defer s.inflight.Done()

	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("xsweep: job %s panicked: %v", state.name, r)
		}

		state.mu.Lock()
		state.stats.Runs++
		state.stats.LastRun = start
		if err != nil {
			state.stats.Failures++
			state.stats.LastError = err.Error()
		} else {
			state.stats.LastError = ""
		}
		state.mu.Unlock()

		if err != nil {
			s.logger.Error(ctx, "maintenance job failed",
				slog.String("job", state.name),
				slog.String("error", err.Error()))
		} else {
			s.logger.Debug(ctx, "maintenance job completed",
				slog.String("job", state.name),
				slog.Duration("duration", s.clock.Since(start)))
		}
	}()

	return state.job(ctx)
}
