package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DoReturnsTaskError(t *testing.T) {
	p := New(Config{Workers: 2, QueueSize: 4})
	defer p.Close()

	require.NoError(t, p.Do(context.Background(), func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, p.Do(context.Background(), func(context.Context) error { return boom }), boom)

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Submitted)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestPool_LimitsConcurrency(t *testing.T) {
	const workers = 3
	p := New(Config{Workers: workers, QueueSize: 16})
	defer p.Close()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), func(context.Context) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.Equal(t, int64(12), p.Stats().Completed)
}

func TestPool_PanicBecomesError(t *testing.T) {
	var handled any
	p := New(Config{Workers: 1, PanicHandler: func(v any) { handled = v }})
	defer p.Close()

	err := p.Do(context.Background(), func(context.Context) error { panic("kaboom") })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, "kaboom", handled)

	// worker 仍然可用
	assert.NoError(t, p.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_ContextCancelledWhileQueued(t *testing.T) {
	p := New(Config{Workers: 1})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go p.Do(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPool_Close(t *testing.T) {
	p := New(Config{Workers: 0})
	require.NoError(t, p.Check(context.Background()))
	assert.Equal(t, "generation_pool", p.Name())

	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Do(context.Background(), func(context.Context) error { return nil }), ErrPoolClosed)
	assert.ErrorIs(t, p.Check(context.Background()), ErrPoolClosed)
}

func TestPool_CloseReleasesBlockedSubmitters(t *testing.T) {
	p := New(Config{Workers: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- p.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// worker 忙且队列为 0：第二个调用阻塞在入队
	blocked := make(chan error, 1)
	go func() {
		blocked <- p.Do(context.Background(), func(context.Context) error { return nil })
	}()

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked submitter was not released by Close")
	}

	// Close 仍等待正在执行的任务
	select {
	case <-closed:
		t.Fatal("Close returned before the running task finished")
	default:
	}

	close(release)
	require.NoError(t, <-firstDone)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestPool_CloseDrainsQueuedTasks(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 4})

	release := make(chan struct{})
	started := make(chan struct{})
	go p.Do(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Do(context.Background(), func(context.Context) error {
				ran.Add(1)
				return nil
			}))
		}()
	}
	require.Eventually(t, func() bool { return p.Stats().Queued == 3 }, 2*time.Second, time.Millisecond)

	go close(release)
	p.Close()
	wg.Wait()
	assert.Equal(t, int32(3), ran.Load())
}
