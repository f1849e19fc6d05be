package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/go-upb/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StartStop(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	var iterations atomic.Int32
	var exited atomic.Bool

	err := mgr.Start("loop", func() bool {
		iterations.Add(1)
		time.Sleep(time.Millisecond)
		return true
	}, func() { exited.Store(true) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return iterations.Load() > 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, mgr.TaskCount())

	mgr.Stop()
	mgr.Wait()

	assert.True(t, exited.Load())
	assert.Equal(t, 0, mgr.TaskCount())
}

func TestManager_TaskReturnsFalse(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	exitCh := make(chan struct{})
	var n int
	err := mgr.Start("finite", func() bool {
		n++
		return n < 5
	}, func() { close(exitCh) })
	require.NoError(t, err)

	select {
	case <-exitCh:
	case <-time.After(time.Second):
		t.Fatal("task did not exit")
	}
	mgr.Wait()
	assert.Equal(t, 5, n)
}

func TestManager_PanicRecovered(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	exitCh := make(chan struct{})
	err := mgr.Start("panicky", func() bool {
		panic("boom")
	}, func() { close(exitCh) })
	require.NoError(t, err)

	select {
	case <-exitCh:
	case <-time.After(time.Second):
		t.Fatal("exit handler not called after panic")
	}
	mgr.Wait()
	assert.Equal(t, 0, mgr.TaskCount())
}

func TestManager_StartAfterStop(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())
	mgr.Stop()

	err := mgr.Start("late", func() bool { return false }, nil)
	require.ErrorIs(t, err, ErrStopped)
}

func TestManager_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mgr := NewManager(ctx, logger.GetLogger())

	require.NoError(t, mgr.Start("loop", func() bool {
		time.Sleep(time.Millisecond)
		return true
	}, nil))

	cancel()
	mgr.Wait()
	assert.Error(t, mgr.Context().Err())
}
