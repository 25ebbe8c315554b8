package incidentdesk_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/incidentdesk/incidentdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndStopWaiting(t *testing.T) {

	pool := incidentdesk.New(1, 5)

	var doneCount atomic.Int32
	for i := 0; i < 17; i++ {
		require.NoError(t, pool.Submit(func() {
			time.Sleep(1 * time.Millisecond)
			doneCount.Add(1)
		}))
	}

	// Wait until all submitted tasks complete
	pool.StopAndWait()

	assert.Equal(t, int32(17), doneCount.Load())
	assert.Equal(t, uint64(17), pool.SubmittedTasks())
	assert.Equal(t, uint64(17), pool.CompletedTasks())
	assert.Equal(t, uint64(0), pool.WaitingTasks())
	assert.Equal(t, 0, pool.RunningWorkers())
}

func TestSubmitAndStopWaitingWithMoreWorkersThanTasks(t *testing.T) {

	pool := incidentdesk.New(18, 5)

	var doneCount atomic.Int32
	for i := 0; i < 17; i++ {
		require.NoError(t, pool.Submit(func() {
			time.Sleep(1 * time.Millisecond)
			doneCount.Add(1)
		}))
	}

	pool.StopAndWait()

	assert.Equal(t, int32(17), doneCount.Load())
}

func TestStopDoesNotInterruptRunningTasks(t *testing.T) {

	pool := incidentdesk.New(1, 5)

	started := make(chan struct{})
	release := make(chan struct{})
	var doneCount atomic.Int32

	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(func() {
			started <- struct{}{}
			<-release
			doneCount.Add(1)
		}))
	}

	// Make sure the first task started
	<-started

	// Stop returns without waiting for the running task
	pool.Stop()
	assert.True(t, pool.Stopped())

	close(release)

	// The running task finishes, the queued ones are discarded
	assert.Eventually(t, func() bool {
		return pool.RunningWorkers() == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), doneCount.Load())
	assert.Equal(t, uint64(0), pool.WaitingTasks())
}

func TestSubmitOnStoppedPool(t *testing.T) {

	pool := incidentdesk.New(2, 0)
	pool.Stop()

	err := pool.Submit(func() {})
	assert.Equal(t, incidentdesk.ErrSubmitOnStoppedPool, err)
	assert.False(t, pool.TrySubmit(func() {}))
	assert.Equal(t, uint64(0), pool.SubmittedTasks())
}

func TestSubmitWithNilTask(t *testing.T) {

	pool := incidentdesk.New(2, 5)

	assert.NoError(t, pool.Submit(nil))
	assert.False(t, pool.TrySubmit(nil))

	pool.StopAndWait()

	assert.Equal(t, 0, pool.RunningWorkers())
	assert.Equal(t, uint64(0), pool.SubmittedTasks())
}

func TestTrySubmitWhenSaturated(t *testing.T) {

	pool := incidentdesk.New(1, 0)

	release := make(chan struct{})
	assert.True(t, pool.TrySubmit(func() {
		<-release
	}))

	// Single worker busy and no room to queue
	assert.False(t, pool.TrySubmit(func() {}))
	assert.Equal(t, uint64(1), pool.SubmittedTasks())

	close(release)
	pool.StopAndWait()
}

func TestSubmitBlocksUntilStopWhenNoWorkerFrees(t *testing.T) {

	pool := incidentdesk.New(1, 0)

	// A task that never returns holds the only slot
	require.NoError(t, pool.Submit(func() {
		select {}
	}))

	result := make(chan error)
	go func() {
		result <- pool.Submit(func() {})
	}()

	select {
	case <-result:
		t.Fatal("submit returned while no worker was available")
	case <-time.After(10 * time.Millisecond):
	}

	pool.Stop()

	select {
	case err := <-result:
		assert.Equal(t, incidentdesk.ErrSubmitOnStoppedPool, err)
	case <-time.After(time.Second):
		t.Fatal("submit was not released by stop")
	}
}

func TestPoolNeverRunsMoreTasksThanWorkers(t *testing.T) {

	maxWorkers := 6
	pool := incidentdesk.New(maxWorkers, 100)

	var current, peak atomic.Int32
	for i := 0; i < 60; i++ {
		require.NoError(t, pool.Submit(func() {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			current.Add(-1)
		}))
		assert.LessOrEqual(t, pool.RunningWorkers(), maxWorkers)
	}

	pool.StopAndWait()

	assert.LessOrEqual(t, peak.Load(), int32(maxWorkers))
	assert.Equal(t, uint64(60), pool.SuccessfulTasks())
}

func TestPanicIsNotRetried(t *testing.T) {

	var panics []interface{}
	var mutex sync.Mutex
	pool := incidentdesk.New(1, 5, incidentdesk.PanicHandler(func(p interface{}) {
		mutex.Lock()
		defer mutex.Unlock()
		panics = append(panics, p)
	}))

	var runs atomic.Int32
	require.NoError(t, pool.Submit(func() {
		runs.Add(1)
		panic("boom")
	}))
	var after atomic.Bool
	require.NoError(t, pool.Submit(func() {
		after.Store(true)
	}))

	pool.StopAndWait()

	assert.Equal(t, int32(1), runs.Load())
	assert.True(t, after.Load(), "worker did not survive the panic")
	assert.Equal(t, uint64(1), pool.FailedTasks())
	assert.Equal(t, uint64(1), pool.SuccessfulTasks())
	assert.Equal(t, uint64(2), pool.CompletedTasks())
	assert.Equal(t, []interface{}{"boom"}, panics)
}

func TestStopAndWaitFor(t *testing.T) {

	pool := incidentdesk.New(1, 5)

	require.NoError(t, pool.Submit(func() {
		time.Sleep(50 * time.Millisecond)
	}))

	assert.False(t, pool.StopAndWaitFor(5*time.Millisecond))
	assert.True(t, pool.Stopped())

	pool = incidentdesk.New(1, 5)
	require.NoError(t, pool.Submit(func() {}))
	assert.True(t, pool.StopAndWaitFor(time.Second))
}

func TestPoolWithParentContext(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	pool := incidentdesk.New(2, 0, incidentdesk.Context(ctx))

	var observed atomic.Bool
	require.NoError(t, pool.Submit(func() {
		<-pool.Context().Done()
		observed.Store(true)
	}))

	cancel()

	assert.Eventually(t, func() bool {
		return observed.Load() && pool.Stopped()
	}, time.Second, time.Millisecond)
	assert.Equal(t, incidentdesk.ErrSubmitOnStoppedPool, pool.Submit(func() {}))
}

func TestTaskGroup(t *testing.T) {

	pool := incidentdesk.New(3, 10)
	defer pool.StopAndWait()

	group := pool.Group()

	var doneCount atomic.Int32
	for i := 0; i < 9; i++ {
		require.NoError(t, group.Submit(func() {
			time.Sleep(time.Millisecond)
			doneCount.Add(1)
		}))
	}

	group.Wait()

	assert.Equal(t, int32(9), doneCount.Load())
}
