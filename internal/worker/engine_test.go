package worker

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/messaging"
)

func TestEngine_DispatchRunsHandlersInOrder(t *testing.T) {
	var calls []string
	record := func(name string, err error) messaging.Handler {
		return func(context.Context, messaging.Message) error {
			calls = append(calls, name)
			return err
		}
	}
	boom := errors.New("boom")
	e := NewEngine(Params{
		Logger: zap.NewNop(),
		Registrations: []HandlerRegistration{
			{Topic: "production.events", Handler: record("first", nil)},
			{Topic: "production.events", Handler: record("second", boom)},
			{Topic: "production.events", Handler: record("third", nil)},
			{Topic: "", Handler: record("ignored", nil)},
		},
	})

	err := e.dispatch(context.Background(), 0, messaging.Message{Topic: "production.events"})
	if !errors.Is(err, boom) {
		t.Fatalf("dispatch() = %v, want boom", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v, want [first second]", calls)
	}
}

func TestEngine_DispatchUnknownTopic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEngine(Params{Logger: zap.New(core)})

	if err := e.dispatch(context.Background(), 0, messaging.Message{Topic: "other"}); err != nil {
		t.Fatalf("dispatch() = %v, want nil", err)
	}
	if logs.FilterMessage("no handler for topic").Len() != 1 {
		t.Error("missing warning for unknown topic")
	}
}

func TestEngine_StartDisabled(t *testing.T) {
	e := NewEngine(Params{Logger: zap.NewNop(), Config: config.Config{}})
	if err := e.start(context.Background()); err != nil {
		t.Fatalf("start() = %v", err)
	}
	if e.cancel != nil {
		t.Error("disabled engine started consumers")
	}
	if err := e.stop(context.Background()); err != nil {
		t.Fatalf("stop() = %v", err)
	}
}
