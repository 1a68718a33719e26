package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

func task(payload string) models.Task {
	return models.NewTask("POST", "application/json", payload)
}

func TestQueue_FIFO(t *testing.T) {
	q := New()
	for i := 0; i < 100; i++ {
		q.Enqueue(task(fmt.Sprintf("p%d", i)))
	}
	if q.Len() != 100 {
		t.Fatalf("expected 100 tasks got %d", q.Len())
	}

	for i := 0; i < 100; i++ {
		got, err := q.Dequeue(context.Background())
		if err != nil {
			t.Fatalf("dequeue %d: %v", i, err)
		}
		if want := fmt.Sprintf("p%d", i); got.Payload != want {
			t.Fatalf("dequeue %d: expected %s got %s", i, want, got.Payload)
		}
	}
	if !q.Empty() {
		t.Fatal("queue should be empty")
	}
}

func TestQueue_InterleavedFIFO(t *testing.T) {
	q := New()
	ctx := context.Background()

	q.Enqueue(task("a"))
	q.Enqueue(task("b"))
	first, _ := q.Dequeue(ctx)
	q.Enqueue(task("c"))
	second, _ := q.Dequeue(ctx)
	third, _ := q.Dequeue(ctx)

	if first.Payload != "a" || second.Payload != "b" || third.Payload != "c" {
		t.Fatalf("order broken: %s %s %s", first.Payload, second.Payload, third.Payload)
	}
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := New()
	got := make(chan models.Task, 1)

	go func() {
		tk, err := q.Dequeue(context.Background())
		if err == nil {
			got <- tk
		}
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned before any enqueue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Enqueue(task("late"))

	select {
	case tk := <-got:
		if tk.Payload != "late" {
			t.Fatalf("unexpected payload %q", tk.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestQueue_DequeueCancelled(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)

	go func() {
		_, err := q.Dequeue(ctx)
		errc <- err
	}()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue ignored cancellation")
	}
}

func TestQueue_CloseWakesConsumer(t *testing.T) {
	q := New()
	errc := make(chan error, 1)

	go func() {
		_, err := q.Dequeue(context.Background())
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	q.Close()
	q.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close did not wake consumer")
	}

	q.Enqueue(task("dropped"))
	if q.Len() != 0 {
		t.Fatal("enqueue after close must be dropped")
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New()
	const producers, perProducer = 8, 250

	for p := 0; p < producers; p++ {
		go func() {
			for i := 0; i < perProducer; i++ {
				q.Enqueue(task("x"))
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < producers*perProducer; i++ {
		if _, err := q.Dequeue(ctx); err != nil {
			t.Fatalf("dequeue %d: %v", i, err)
		}
	}
}
