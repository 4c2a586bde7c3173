package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type runRecord struct {
	jobType string
	status  string
	details string
}

type fakeRuns struct {
	mu       sync.Mutex
	runs     map[string]*runRecord
	startErr error
	done     chan string
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: map[string]*runRecord{}, done: make(chan string, 16)}
}

func (f *fakeRuns) StartRun(_ context.Context, jobType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	id := jobType + "-run"
	f.runs[id] = &runRecord{jobType: jobType, status: StatusRunning}
	return id, nil
}

func (f *fakeRuns) FinishRun(_ context.Context, runID, status string, details []byte) error {
	f.mu.Lock()
	r := f.runs[runID]
	r.status = status
	r.details = string(details)
	f.mu.Unlock()
	select {
	case f.done <- runID:
	default:
	}
	return nil
}

func (f *fakeRuns) get(id string) runRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.runs[id]
}

func TestRunNowRecordsCompletion(t *testing.T) {
	runs := newFakeRuns()
	svc := New(runs, 1)

	out, err := svc.RunNow(context.Background(), JobResetPurge, func(context.Context) (any, error) {
		return map[string]int{"deleted": 3}, nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.(map[string]int)["deleted"] != 3 {
		t.Fatalf("unexpected output %v", out)
	}
	got := runs.get(JobResetPurge + "-run")
	if got.status != StatusCompleted || got.details != `{"deleted":3}` {
		t.Fatalf("unexpected run %+v", got)
	}
}

func TestRunNowRecordsFailure(t *testing.T) {
	runs := newFakeRuns()
	svc := New(runs, 1)

	_, err := svc.RunNow(context.Background(), "broken", func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	got := runs.get("broken-run")
	if got.status != StatusFailed || got.details != `{"error":"boom"}` {
		t.Fatalf("unexpected run %+v", got)
	}
}

func TestRunNowWithoutRunRecord(t *testing.T) {
	runs := newFakeRuns()
	runs.startErr = errors.New("db down")
	svc := New(runs, 1)

	called := false
	if _, err := svc.RunNow(context.Background(), "x", func(context.Context) (any, error) {
		called = true
		return nil, nil
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("task should run even when the run record cannot be created")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	svc := New(newFakeRuns(), 1)
	noop := func(context.Context) (any, error) { return nil, nil }

	if !svc.Enqueue(context.Background(), "a", noop) {
		t.Fatal("first job should be accepted")
	}
	if svc.Enqueue(context.Background(), "b", noop) {
		t.Fatal("second job should be dropped")
	}
}

func TestWorkerAndSchedule(t *testing.T) {
	runs := newFakeRuns()
	svc := New(runs, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	svc.Schedule(ctx, JobResetPurge, 10*time.Millisecond, func(context.Context) (any, error) {
		return map[string]int{"deleted": 0}, nil
	})

	select {
	case id := <-runs.done:
		if got := runs.get(id); got.status != StatusCompleted {
			t.Fatalf("unexpected run %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}
