package tracking

import (
	"fmt"
	"testing"
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	n := 0
	return NewEngine(
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func newTestOrder(t *testing.T, e *Engine) *entity.Order {
	t.Helper()
	order, err := e.NewOrder(OrderDraft{Number: "1001", Customer: "Kitchen Co"})
	if err != nil {
		t.Fatalf("NewOrder() error: %v", err)
	}
	return order
}

// forceComplete marks stages completed without going through the gate, for
// setting up later stages.
func forceComplete(order *entity.Order, stages ...entity.Stage) {
	for _, s := range stages {
		order.Task(s).Status = entity.TaskCompleted
	}
}

func scanN(t *testing.T, e *Engine, order *entity.Order, stage entity.Stage, code string, n int) Result {
	t.Helper()
	var res Result
	for i := 0; i < n; i++ {
		var err error
		res, err = e.RecordScan(order, stage, code, "worker-1")
		if err != nil {
			t.Fatalf("RecordScan(%s, %q) #%d error: %v", stage, code, i+1, err)
		}
	}
	return res
}

func hasEvent(events []Event, typ EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func codesOf(details []entity.Detail) []string {
	out := make([]string, 0, len(details))
	for _, d := range details {
		out = append(out, d.Code)
	}
	return out
}
