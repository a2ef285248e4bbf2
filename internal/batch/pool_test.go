package batch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"slakhprep/internal/batch"
)

func TestRunEmitsInInputOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3, 0, 6, 7}
	var got []int
	err := batch.Run(context.Background(), items, 4,
		func(_ context.Context, item int) (int, error) {
			time.Sleep(time.Duration(item) * time.Millisecond)
			return item * 10, nil
		},
		func(item, result int) error {
			if result != item*10 {
				t.Errorf("item %d paired with result %d", item, result)
			}
			got = append(got, item)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(got))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Fatalf("expected order %v, got %v", items, got)
		}
	}
}

func TestRunRespectsWorkerLimit(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 20)
	err := batch.Run(context.Background(), items, 3,
		func(context.Context, int) (struct{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		},
		func(int, struct{}) error { return nil },
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent workers, saw %d", peak.Load())
	}
}

func TestRunReturnsWorkError(t *testing.T) {
	boom := errors.New("boom")
	items := []int{0, 1, 2, 3, 4, 5}
	err := batch.Run(context.Background(), items, 2,
		func(_ context.Context, item int) (int, error) {
			if item == 2 {
				return 0, boom
			}
			return item, nil
		},
		func(int, int) error { return nil },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected work error, got %v", err)
	}
}

func TestRunReturnsEmitError(t *testing.T) {
	stop := errors.New("disk full")
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	var emitted int
	err := batch.Run(context.Background(), items, 3,
		func(_ context.Context, item int) (int, error) { return item, nil },
		func(item, _ int) error {
			emitted++
			if item == 1 {
				return stop
			}
			return nil
		},
	)
	if !errors.Is(err, stop) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if emitted != 2 {
		t.Fatalf("expected emit to stop after the failing item, got %d calls", emitted)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := make([]int, 100)
	var processed atomic.Int32
	err := batch.Run(ctx, items, 2,
		func(ctx context.Context, _ int) (int, error) {
			if processed.Add(1) == 3 {
				cancel()
			}
			return 0, nil
		},
		func(int, int) error { return nil },
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if processed.Load() == int32(len(items)) {
		t.Fatal("expected cancellation to stop remaining work")
	}
}

func TestRunEmptyInput(t *testing.T) {
	called := false
	err := batch.Run(context.Background(), []string(nil), 4,
		func(context.Context, string) (int, error) { called = true; return 0, nil },
		func(string, int) error { called = true; return nil },
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if called {
		t.Fatal("expected no callbacks for empty input")
	}
}
