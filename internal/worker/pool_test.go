package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	index int
	err   error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	index     int
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
	running   *int32
	peak      *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.running != nil {
		n := atomic.AddInt32(j.running, 1)
		defer atomic.AddInt32(j.running, -1)
		for {
			p := atomic.LoadInt32(j.peak)
			if n <= p || atomic.CompareAndSwapInt32(j.peak, p, n) {
				break
			}
		}
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{index: j.index, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{index: j.index, err: errors.New("job error")}
	}
	return &mockResult{index: j.index}
}

func TestNewPool(t *testing.T) {
	p1 := NewPool(5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool(0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool(-1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestPool_RunKeepsOrder(t *testing.T) {
	var executed int32
	count := 50 // far more jobs than workers

	jobs := make([]Job, count)
	for i := range jobs {
		jobs[i] = &mockJob{index: i, executed: &executed, duration: time.Duration(count-i) * 100 * time.Microsecond}
	}

	results := NewPool(3).Run(context.Background(), jobs)

	if len(results) != count {
		t.Fatalf("expected %d results, got %d", count, len(results))
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
	for i, r := range results {
		if got := r.(*mockResult).index; got != i {
			t.Errorf("result %d belongs to job %d", i, got)
		}
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	var running, peak int32
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = &mockJob{index: i, duration: 5 * time.Millisecond, running: &running, peak: &peak}
	}

	NewPool(4).Run(context.Background(), jobs)

	if p := atomic.LoadInt32(&peak); p > 4 || p < 1 {
		t.Errorf("expected at most 4 concurrent jobs, saw %d", p)
	}
}

func TestPool_Errors(t *testing.T) {
	jobs := []Job{
		&mockJob{index: 0},
		&mockJob{index: 1, shouldErr: true},
		&mockJob{index: 2},
		&mockJob{index: 3, shouldErr: true},
	}

	results := NewPool(2).Run(context.Background(), jobs)
	if errs := Errors(results); len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d", len(errs))
	}
}

func TestPool_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var executed int32

	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = &mockJob{index: i, duration: time.Second, executed: &executed}
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := NewPool(2).Run(ctx, jobs)
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("run did not stop promptly after cancel")
	}
	if len(results) != 100 {
		t.Fatalf("expected a slot per job, got %d", len(results))
	}
	if n := atomic.LoadInt32(&executed); n >= 100 {
		t.Errorf("expected cancelled run to skip jobs, executed %d", n)
	}
}

func TestPool_Empty(t *testing.T) {
	if results := NewPool(2).Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
