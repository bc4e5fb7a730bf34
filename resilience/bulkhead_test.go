package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/seqkit/errors"
)

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	rejected := 0
	b := NewBulkhead(BulkheadConfig{Name: "streams", MaxConcurrent: 2, OnReject: func(string) { rejected++ }})

	r1, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	r2, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b.Available() != 0 {
		t.Errorf("expected 0 available, got %d", b.Available())
	}

	if _, err := b.Acquire(context.Background()); !stderrors.Is(err, errors.ErrUnavailable) {
		t.Errorf("expected UNAVAILABLE, got %v", err)
	}
	if rejected != 1 {
		t.Errorf("expected 1 rejection, got %d", rejected)
	}

	r1()
	r1()
	r2()
	if b.InUse() != 0 {
		t.Errorf("expected 0 in use, got %d", b.InUse())
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "streams", MaxConcurrent: 1, MaxWait: time.Second})
	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- b.Execute(context.Background(), func(context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)
	release()

	if err := <-done; err != nil {
		t.Errorf("expected slot after release, got %v", err)
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "streams", MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})
	release, _ := b.Acquire(context.Background())
	defer release()

	err := b.Execute(context.Background(), func(context.Context) error {
		t.Error("fn called without a slot")
		return nil
	})
	if errors.CodeOf(err) != errors.ErrCodeUnavailable {
		t.Errorf("expected UNAVAILABLE, got %v", err)
	}
}

func TestBulkhead_ContextCancelled(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "streams", MaxConcurrent: 1, MaxWait: time.Minute})
	release, _ := b.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Acquire(ctx); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected Canceled, got %v", err)
	}
}
