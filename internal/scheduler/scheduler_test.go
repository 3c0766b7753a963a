package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() (*atomic.Int32, RefreshFunc) {
	var n atomic.Int32
	return &n, func(ctx context.Context) {
		n.Add(1)
	}
}

func TestScheduler_FiresImmediatelyOnMount(t *testing.T) {
	n, fn := counter()
	s := New(time.Hour, fn)

	s.Mount(context.Background())
	defer s.Unmount()

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_FiresEveryInterval(t *testing.T) {
	n, fn := counter()
	s := New(20*time.Millisecond, fn)

	s.Mount(context.Background())
	defer s.Unmount()

	assert.Eventually(t, func() bool { return n.Load() >= 4 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_NoTicksAfterUnmount(t *testing.T) {
	n, fn := counter()
	s := New(10*time.Millisecond, fn)

	s.Mount(context.Background())
	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Unmount()
	after := n.Load()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, after, n.Load())
	assert.False(t, s.Mounted())
}

func TestScheduler_UnmountCancelsInFlightCycle(t *testing.T) {
	started := make(chan struct{})
	var sawCancel atomic.Bool
	s := New(time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
	})

	s.Mount(context.Background())
	<-started
	s.Unmount()

	assert.True(t, sawCancel.Load(), "Unmount returns only after in-flight cycles observed cancellation")
}

func TestScheduler_RearmFiresImmediately(t *testing.T) {
	n, fn := counter()
	s := New(time.Hour, fn)

	s.Mount(context.Background())
	defer s.Unmount()
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Rearm()

	assert.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_RearmWhileUnmountedIsIgnored(t *testing.T) {
	n, fn := counter()
	s := New(time.Hour, fn)

	s.Rearm()
	time.Sleep(20 * time.Millisecond)

	assert.Zero(t, n.Load())
}

func TestScheduler_MountTwiceIsNoop(t *testing.T) {
	n, fn := counter()
	s := New(time.Hour, fn)

	s.Mount(context.Background())
	s.Mount(context.Background())
	defer s.Unmount()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestScheduler_ParentContextCancelStopsTicks(t *testing.T) {
	n, fn := counter()
	s := New(10*time.Millisecond, fn)

	ctx, cancel := context.WithCancel(context.Background())
	s.Mount(ctx)
	require.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	after := n.Load()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, after, n.Load())
	s.Unmount()
}

func TestScheduler_UnmountWithoutMount(t *testing.T) {
	s := New(time.Second, func(context.Context) {})

	assert.NotPanics(t, func() {
		s.Unmount()
		s.Unmount()
	})
}

func TestScheduler_Remount(t *testing.T) {
	n, fn := counter()
	s := New(time.Hour, fn)

	s.Mount(context.Background())
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Unmount()

	s.Mount(context.Background())
	defer s.Unmount()

	assert.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)
}
