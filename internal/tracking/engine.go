// Package tracking turns unit scans into production stage state.
//
// The engine is pure: it mutates the Order aggregate handed to it and
// returns snapshots plus events. Loading, locking and persisting the
// aggregate are the caller's job.
package tracking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Additional-Code/millflow/internal/entity"
)

// Engine executes production-tracking operations.
type Engine struct {
	now            func() time.Time
	newID          func() string
	splitSeparator string
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how new record ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithSplitSeparator sets the separator used for default split prefixes.
func WithSplitSeparator(sep string) Option {
	return func(e *Engine) {
		e.splitSeparator = sep
	}
}

// NewEngine builds an Engine with UTC wall clock and uuid ids.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
		splitSeparator: "-",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a successful engine operation.
type Result struct {
	// Task is a snapshot of the task the operation acted on.
	Task *entity.Task
	// Detail is a snapshot of the affected detail, when there is one.
	Detail *entity.Detail
	// Package is a snapshot of the affected package, when there is one.
	Package *entity.Package

	Quantity int
	Complete bool
	Scanned  int
	Planned  int

	Events []Event
	// Touched lists the stages whose tasks were mutated and need saving.
	Touched []entity.Stage
}

func taskFor(order *entity.Order, stage entity.Stage) (*entity.Task, error) {
	if !ValidStage(stage) {
		return nil, invalidArgument("unknown stage " + string(stage))
	}
	task := order.Task(stage)
	if task == nil {
		return nil, taskNotFound(stage)
	}
	return task, nil
}

func normaliseCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", invalidArgument("code is required")
	}
	return code, nil
}

// markStarted moves a waiting task into progress and stamps StartedAt once.
func markStarted(task *entity.Task, now time.Time) {
	if task.Status == entity.TaskPending || task.Status == entity.TaskPaused {
		task.Status = entity.TaskInProgress
	}
	if task.StartedAt == nil {
		started := now
		task.StartedAt = &started
	}
}

// settleRework clears a detail's rework marker once it is scanned back to its
// prior quantity and restores a reopened task when nothing is left to redo
// and the stage is whole again. A task still short of its plan stays open and
// completes through RequestCompletion like any other.
func settleRework(order *entity.Order, task *entity.Task, d *entity.Detail, actor string, now time.Time) []Event {
	if d != nil && d.ReworkQuantity > 0 && d.Quantity >= d.ReworkQuantity {
		d.ReworkQuantity = 0
	}
	if !task.ReopenedForRework {
		return nil
	}
	for _, other := range task.Details {
		if other.ReworkQuantity > 0 {
			return nil
		}
	}
	if scanned, planned := rulesFor(task.Stage).ledger.totals(order, task); scanned < planned {
		return nil
	}
	task.Status = entity.TaskCompleted
	task.ReopenedForRework = false
	completed := now
	task.CompletedAt = &completed

	event := newEvent(EventTaskCompleted, order, task.Stage, actor, now)
	event.Reason = "rework finished"
	return []Event{event}
}

func stamp(d *entity.Detail, actor string, now time.Time) {
	d.ScannedBy = actor
	at := now
	d.ScannedAt = &at
}
