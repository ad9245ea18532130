package compress

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

func newTestPool(workers int) *WorkerPool {
	adapter := &fakeAdapter{cost: func(w, h int, q float64) int {
		return int(float64(w*h*3) * q)
	}}
	return NewWorkerPool(workers, NewWithAdapter(adapter))
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := newTestPool(2)
	defer pool.Stop()

	result, err := pool.Submit(context.Background(), fakeSource(1000, 1000, FormatJPEG), Request{
		TargetBytes: 300_000,
		QualityHint: 0.8,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(result.Bytes) > 300_000 {
		t.Errorf("size %d exceeds target", len(result.Bytes))
	}
}

func TestWorkerPool_SubmitPropagatesRequestError(t *testing.T) {
	pool := newTestPool(1)
	defer pool.Stop()

	_, err := pool.Submit(context.Background(), fakeSource(100, 100, FormatJPEG), Request{
		TargetBytes: 0,
		QualityHint: 0.8,
	})
	if !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Submit() error = %v, want ErrInvalidTarget", err)
	}
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	pool := newTestPool(1)
	defer pool.Stop()
	pool.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Submit(ctx, fakeSource(100, 100, FormatJPEG), Request{
		TargetBytes: 5000,
		QualityHint: 0.8,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
}

// slowAdapter blocks until released so tests can fill the queue.
type slowAdapter struct {
	started chan struct{}
	release chan struct{}
}

func (s *slowAdapter) Render(src *Source, width, height int) (image.Image, error) {
	s.started <- struct{}{}
	<-s.release
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

func (s *slowAdapter) Encode(img image.Image, quality float64, format Format) ([]byte, error) {
	return []byte{0}, nil
}

func TestWorkerPool_BusyWhenQueueFull(t *testing.T) {
	adapter := &slowAdapter{
		started: make(chan struct{}, 3),
		release: make(chan struct{}),
	}
	pool := NewWorkerPool(1, NewWithAdapter(adapter))
	pool.Start()

	src := fakeSource(100, 100, FormatJPEG)
	req := Request{TargetBytes: 5000, QualityHint: 0.8}

	var wg sync.WaitGroup
	submit := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(context.Background(), src, req)
		}()
	}

	// Occupy the single worker, then fill the buffered queue.
	submit()
	select {
	case <-adapter.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first job")
	}

	submit()
	submit()
	deadline := time.After(2 * time.Second)
	for {
		if queued, _ := pool.Stats(); queued == cap(pool.jobs) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("queue never filled")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, err := pool.Submit(context.Background(), src, req)
	if !errors.Is(err, ErrPoolBusy) {
		t.Errorf("Submit() error = %v, want ErrPoolBusy", err)
	}

	close(adapter.release)
	wg.Wait()
	pool.Stop()
}

func TestWorkerPool_Stats(t *testing.T) {
	pool := newTestPool(3)
	queued, free := pool.Stats()
	if queued != 0 {
		t.Errorf("queued = %d, want 0", queued)
	}
	if free != 6 {
		t.Errorf("free = %d, want 6 (2x workers)", free)
	}
}
