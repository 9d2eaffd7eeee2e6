package production

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/messaging"
	"github.com/Additional-Code/millflow/internal/tracking"
)

type recordingNotifier struct {
	events []tracking.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev tracking.Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func newRegistration(t *testing.T, n *recordingNotifier) (messaging.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "production.events"}}}
	reg := NewEventHandler(zap.New(core), cfg, n)
	if reg.Topic != "production.events" {
		t.Fatalf("Topic = %q, want production.events", reg.Topic)
	}
	return reg.Handler, logs
}

func TestEventHandler_ForwardsEvent(t *testing.T) {
	n := &recordingNotifier{}
	handle, _ := newRegistration(t, n)

	value, err := json.Marshal(tracking.Event{Type: tracking.EventTaskCompleted, OrderID: "o-1", Stage: entity.StageCutting})
	if err != nil {
		t.Fatal(err)
	}
	if err := handle(context.Background(), messaging.Message{Topic: "production.events", Value: value}); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(n.events) != 1 || n.events[0].Stage != entity.StageCutting {
		t.Errorf("events = %+v", n.events)
	}
}

func TestEventHandler_SkipsUndecodable(t *testing.T) {
	n := &recordingNotifier{}
	handle, logs := newRegistration(t, n)

	if err := handle(context.Background(), messaging.Message{Value: []byte("{")}); err != nil {
		t.Fatalf("handler error: %v, want nil", err)
	}
	if len(n.events) != 0 {
		t.Errorf("notified %d events, want 0", len(n.events))
	}
	if logs.FilterMessage("failed to decode production event").Len() != 1 {
		t.Error("decode failure not logged")
	}
}

func TestEventHandler_NotifyFailureIsReturned(t *testing.T) {
	boom := errors.New("slack down")
	handle, _ := newRegistration(t, &recordingNotifier{err: boom})

	value, _ := json.Marshal(tracking.Event{Type: tracking.EventPackageCreated})
	if err := handle(context.Background(), messaging.Message{Value: value}); !errors.Is(err, boom) {
		t.Fatalf("handler error = %v, want %v", err, boom)
	}
}
