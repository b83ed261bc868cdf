package cron

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type fakeLock struct {
	mu        sync.Mutex
	held      bool
	acquired  int
	released  int
	denyAll   bool
	acquireEr error
}

func (l *fakeLock) Acquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireEr != nil {
		return false, l.acquireEr
	}
	if l.denyAll || l.held {
		return false, nil
	}
	l.held = true
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.released++
	return nil
}

type recordedJob struct {
	mu   sync.Mutex
	name string
	runs int
	err  error
}

func (j *recordedJob) Name() string { return j.name }

func (j *recordedJob) Run(_ context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	return j.err
}

func (j *recordedJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func testCronLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunOnceExecutesAllJobs(t *testing.T) {
	jobA := &recordedJob{name: "a"}
	jobB := &recordedJob{name: "b", err: errors.New("boom")}
	jobC := &recordedJob{name: "c"}
	lock := &fakeLock{}

	svc, err := NewService(ServiceParams{
		Logger:   testCronLogger(),
		Registry: NewRegistry(jobA, jobB, jobC),
		Lock:     lock,
		Interval: time.Minute,
	})
	require.NoError(t, err)

	err = svc.RunOnce(context.Background())
	require.ErrorContains(t, err, "b: boom")

	// A failing job never blocks the jobs after it.
	require.Equal(t, 1, jobA.runCount())
	require.Equal(t, 1, jobB.runCount())
	require.Equal(t, 1, jobC.runCount())
	require.Equal(t, 1, lock.acquired)
	require.Equal(t, 1, lock.released)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &recordedJob{name: "a"}
	lock := &fakeLock{denyAll: true}

	svc, err := NewService(ServiceParams{
		Logger:   testCronLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunOnce(context.Background()))
	require.Zero(t, job.runCount())
}

func TestRunOnceLockError(t *testing.T) {
	lock := &fakeLock{acquireEr: errors.New("redis down")}

	svc, err := NewService(ServiceParams{
		Logger: testCronLogger(),
		Lock:   lock,
	})
	require.NoError(t, err)

	require.Error(t, svc.RunOnce(context.Background()))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	job := &recordedJob{name: "a"}
	svc, err := NewService(ServiceParams{
		Logger:   testCronLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{},
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// The loop runs one cycle immediately before waiting on the ticker.
	require.Eventually(t, func() bool { return job.runCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cron loop did not stop after cancel")
	}
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &recordedJob{name: "a"}, nil)
	registry.Register(nil)
	registry.Register(&recordedJob{name: "b"})

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "a", jobs[0].Name())
	require.Equal(t, "b", jobs[1].Name())
}
