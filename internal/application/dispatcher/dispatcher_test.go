package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/auctify/settlement-engine/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func saleClosed(id int64) *event.Event {
	return event.NewEvent(event.TypeSaleClosed, "sale", id, nil)
}

func TestSubscribe(t *testing.T) {
	t.Run("runs handlers in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []int

		d.Subscribe(event.TypeSaleClosed, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 1)
			return nil
		})
		d.Subscribe(event.TypeSaleClosed, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 2)
			return nil
		})

		if err := d.Dispatch(context.Background(), saleClosed(1)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("expected handlers to run in order [1, 2], got %v", order)
		}
	})

	t.Run("ignores handlers of other types", func(t *testing.T) {
		d := NewDispatcher()
		called := false

		d.Subscribe(event.TypeSettlementPaid, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		if err := d.Dispatch(context.Background(), saleClosed(1)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called {
			t.Error("expected settlement handler not to be called for a sale event")
		}
	})

	t.Run("logs named registration", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.SubscribeNamed(event.TypeSaleClosed, "notify", func(ctx context.Context, evt *event.Event) error {
			return nil
		})

		if !logger.HasInfo("Handler registered") {
			t.Error("expected registration to be logged")
		}
	})
}

func TestSubscribeAll(t *testing.T) {
	d := NewDispatcher()
	var seen []string

	d.SubscribeAll("audit", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, "audit:"+evt.Type.String())
		return nil
	})
	d.Subscribe(event.TypeSaleClosed, func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, "specific")
		return nil
	})

	if err := d.Dispatch(context.Background(), saleClosed(1)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeSettlementPaid, "settlement", 4, nil)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"specific", "audit:sale.closed", "audit:settlement.paid"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, seen)
	}
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeSaleClosed, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeSaleClosed, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), saleClosed(1))
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeSaleClosed, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		if err := d.Dispatch(context.Background(), saleClosed(1)); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged as error")
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), saleClosed(1)); err == nil {
			t.Fatal("expected error when dispatching to closed dispatcher")
		}
		if err := d.Close(); err == nil {
			t.Error("expected error on second close")
		}
	})
}

func TestListHandlers(t *testing.T) {
	d := NewDispatcher()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeSaleClosed, fmt.Sprintf("handler-%d", id), func(ctx context.Context, evt *event.Event) error {
				return nil
			})
		}(i)
	}
	wg.Wait()

	handlers := d.ListHandlers(event.TypeSaleClosed)
	if len(handlers) != 10 {
		t.Fatalf("expected 10 handlers, got %d", len(handlers))
	}
	for _, h := range handlers {
		if h.Handler != nil {
			t.Error("expected handler function not to be exposed")
		}
	}
	if n := len(d.ListHandlers(event.TypeSettlementPaid)); n != 0 {
		t.Errorf("expected 0 handlers, got %d", n)
	}

	d.SubscribeAll("audit-trail", func(ctx context.Context, evt *event.Event) error { return nil })
	all := d.ListHandlers(AllEvents)
	if len(all) != 1 || all[0].Name != "audit-trail" {
		t.Errorf("expected the catch-all handler to be listed, got %+v", all)
	}
}
