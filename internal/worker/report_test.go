package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/run"
)

type fakeGenerator struct {
	calls atomic.Int32
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context) (*run.Report, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &run.Report{Summary: domain.NewPortfolioSummary()}, nil
}

type fakeHook struct {
	calls atomic.Int32
	err   error
}

func (f *fakeHook) Export(ctx context.Context, report *run.Report) error {
	f.calls.Add(1)
	return f.err
}

func TestReportWorkerGeneratesImmediately(t *testing.T) {
	gen := &fakeGenerator{}
	w := NewReportWorker(gen, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return gen.calls.Load() == 1 })
	cancel()
	<-done
}

func TestReportWorkerRunsHook(t *testing.T) {
	gen := &fakeGenerator{}
	hook := &fakeHook{}
	w := NewReportWorker(gen, time.Hour, hook)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return hook.calls.Load() == 1 })
	cancel()
	<-done
}

func TestReportWorkerSkipsHookOnFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("collection down")}
	hook := &fakeHook{}
	w := NewReportWorker(gen, time.Hour, hook)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return gen.calls.Load() == 1 })
	cancel()
	<-done

	if hook.calls.Load() != 0 {
		t.Errorf("hook calls = %d, want 0 after failed generation", hook.calls.Load())
	}
}

func TestReportWorkerTicks(t *testing.T) {
	gen := &fakeGenerator{}
	w := NewReportWorker(gen, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return gen.calls.Load() >= 3 })
	cancel()
	<-done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
