package queue

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set
func testConnect(t *testing.T, ackWait time.Duration) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url, ackWait)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

// uniqueSubject returns a per-test subject under the dispatch stream
func uniqueSubject(t *testing.T) string {
	t.Helper()
	return SubjectPrefix + "test-" + t.Name()
}

func TestQueue_EnqueueSubscribe(t *testing.T) {
	q := testConnect(t, 30*time.Second)
	subject := uniqueSubject(t)

	want := &model.DispatchRequest{
		Owner:          "org1",
		RepositoryName: "repo1",
		Label:          "gpu",
		DeliveryID:     "d1",
	}

	var mu sync.Mutex
	var got *model.DispatchRequest
	done := make(chan struct{})

	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, data []byte) error {
		req, err := model.UnwrapDispatchRequest(data)
		if err != nil {
			return err
		}
		mu.Lock()
		got = req
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	if err := q.Enqueue(context.Background(), subject, want); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil || *got != *want {
		t.Errorf("delivered request = %+v, want %+v", got, want)
	}
}

func TestQueue_RedeliveryWaitsAckWindow(t *testing.T) {
	ackWait := 2 * time.Second
	q := testConnect(t, ackWait)
	subject := uniqueSubject(t)

	req := &model.DispatchRequest{
		Owner:          "org1",
		RepositoryName: "repo1",
		Label:          "gpu",
		DeliveryID:     "d-retry",
	}

	var mu sync.Mutex
	var deliveries []time.Time
	done := make(chan struct{})

	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, data []byte) error {
		mu.Lock()
		deliveries = append(deliveries, time.Now())
		n := len(deliveries)
		mu.Unlock()
		if n == 1 {
			return errors.New("dispatch failed")
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	if err := q.Enqueue(context.Background(), subject, req); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * ackWait):
		t.Fatal("timed out waiting for redelivery")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(deliveries) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(deliveries))
	}
	if gap := deliveries[1].Sub(deliveries[0]); gap < ackWait/2 {
		t.Errorf("redelivered after %v, want at least %v", gap, ackWait/2)
	}
}

func TestDurableName(t *testing.T) {
	if got := durableName("dispatch.gpu"); got != "dispatcher-dispatch-gpu" {
		t.Errorf("durableName = %q", got)
	}
}
