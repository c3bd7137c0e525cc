package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Do after Close.
var ErrPoolClosed = errors.New("pool is closed")

// Task represents a unit of work.
type Task func(ctx context.Context) error

// Config configures the pool.
type Config struct {
	// Workers 常驻 worker 数量，即最大并发
	Workers int `json:"workers"`
	// QueueSize 排队任务的缓冲长度，队列满时 Do 阻塞直到 ctx 结束
	QueueSize    int       `json:"queue_size"`
	PanicHandler func(any) `json:"-"`
}

// Pool 固定数量的 worker 依次执行提交的任务。
type Pool struct {
	tasks chan job
	wg    sync.WaitGroup

	// quit 在 Close 时关闭；done 在所有 worker 退出后关闭
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	active    atomic.Int32
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64

	panicHandler func(any)
}

type job struct {
	task   Task
	ctx    context.Context
	result chan error
}

// New 创建并启动 worker。Workers 小于 1 时按 1 处理。
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queue := cfg.QueueSize
	if queue < 0 {
		queue = 0
	}

	p := &Pool{
		tasks:        make(chan job, queue),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		panicHandler: cfg.PanicHandler,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Do 提交任务并等待其完成。ctx 结束时立即返回 ctx.Err()，
// 已开始的任务仍会在同一个 ctx 下运行至结束。
// 池关闭后，尚未入队的调用返回 ErrPoolClosed。
func (p *Pool) Do(ctx context.Context, task Task) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	p.submitted.Add(1)
	j := job{task: task, ctx: ctx, result: make(chan error, 1)}

	select {
	case p.tasks <- j:
	case <-ctx.Done():
		p.rejected.Add(1)
		return ctx.Err()
	case <-p.quit:
		p.rejected.Add(1)
		return ErrPoolClosed
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		// 与 Close 竞争入队的任务可能未被执行
		select {
		case err := <-j.result:
			return err
		default:
			return ErrPoolClosed
		}
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case j := <-p.tasks:
			p.run(j)
		case <-p.quit:
			// 执行完已排队的任务再退出
			for {
				select {
				case j := <-p.tasks:
					p.run(j)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(j job) {
	// 排队期间调用方已放弃
	if err := j.ctx.Err(); err != nil {
		p.rejected.Add(1)
		j.result <- err
		return
	}

	p.active.Add(1)
	err := p.execute(j)
	p.active.Add(-1)

	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	j.result <- err
}

func (p *Pool) execute(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(r)
			}
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return j.task(j.ctx)
}

// Close 拒绝新任务，等待已排队的任务执行完毕。可重复调用。
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		close(p.done)
	})
}

// Name 实现健康检查接口
func (p *Pool) Name() string { return "generation_pool" }

// Check 池关闭后报告失败
func (p *Pool) Check(_ context.Context) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
		return nil
	}
}

// Stats returns pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Active:    int(p.active.Load()),
		Queued:    len(p.tasks),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// Stats contains pool statistics.
type Stats struct {
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
}
