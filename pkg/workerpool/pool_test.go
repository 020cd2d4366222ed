package workerpool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoolProcessesSubmittedTasks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.QueueSize = 16

	pool, err := New(cfg, func(ctx context.Context, task *Task) *Result {
		return &Result{TaskID: task.ID, Success: true, Data: task.Payload}
	}, nil)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 5; i++ {
		if err := pool.Submit(&Task{ID: string(rune('a' + i)), Payload: i}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		select {
		case res := <-pool.Results():
			if !res.Success {
				t.Errorf("task %s failed: %v", res.TaskID, res.Error)
			}
			seen[res.TaskID] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for result %d", i)
		}
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 distinct results, got %d", len(seen))
	}
}

func TestPoolNoRetryByDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.QueueSize = 4

	attempts := 0
	taskErr := errors.New("generation failed")
	pool, err := New(cfg, func(ctx context.Context, task *Task) *Result {
		attempts++
		return &Result{TaskID: task.ID, Success: false, Error: taskErr}
	}, nil)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	if err := pool.Submit(&Task{ID: "t1"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	select {
	case res := <-pool.Results():
		if res.Success {
			t.Error("expected failure result")
		}
		if !errors.Is(res.Error, taskErr) {
			t.Errorf("error = %v", res.Error)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	if attempts != 1 {
		t.Errorf("a failed task must not be retried by default, ran %d times", attempts)
	}
}

func TestPoolRejectsSubmitAfterStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	pool, err := New(cfg, func(ctx context.Context, task *Task) *Result {
		return &Result{TaskID: task.ID, Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}
	pool.Start()
	pool.Stop()

	if err := pool.Submit(&Task{ID: "late"}); err == nil {
		t.Error("expected error submitting to a stopped pool")
	}
}
