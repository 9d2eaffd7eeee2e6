package tracking

import (
	"strings"
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
)

// RequestCompletion finishes the task at stage.
//
// Shipment never completes short. Kit assembly has no quantity gate. Every
// other stage completes short only when confirmShortage is set, otherwise
// the shortfall comes back as ErrShortageUnconfirmed for the operator.
func (e *Engine) RequestCompletion(order *entity.Order, stage entity.Stage, confirmShortage bool, actor string) (Result, error) {
	task, err := taskFor(order, stage)
	if err != nil {
		return Result{}, err
	}
	if err := checkOpen(order, stage); err != nil {
		return Result{}, err
	}
	rules := rulesFor(stage)
	scanned, planned := rules.ledger.totals(order, task)
	if task.Status == entity.TaskCompleted {
		return Result{Task: task.Clone(), Scanned: scanned, Planned: planned, Complete: true}, nil
	}

	short := scanned < planned
	switch rules.completion {
	case completionHard:
		if short || planned == 0 {
			return Result{}, incompleteShipment(scanned, planned)
		}
	case completionConfirmable:
		if short && !confirmShortage {
			return Result{}, shortageUnconfirmed(stage, scanned, planned)
		}
	case completionFree:
		short = false
	}

	now := e.now()
	task.Status = entity.TaskCompleted
	task.ReopenedForRework = false
	completed := now
	task.CompletedAt = &completed
	if task.StartedAt == nil {
		started := now
		task.StartedAt = &started
	}
	_, counted := rules.ledger.(countingLedger)
	for _, d := range task.Details {
		d.ReworkQuantity = 0
		if counted {
			d.PlanQuantity = d.Quantity
		}
	}

	event := newEvent(EventTaskCompleted, order, stage, actor, now)
	event.Scanned = scanned
	event.Planned = planned
	event.ShortageConfirmed = short

	return Result{
		Task:     task.Clone(),
		Scanned:  scanned,
		Planned:  planned,
		Complete: true,
		Events:   []Event{event},
		Touched:  []entity.Stage{stage},
	}, nil
}

// statusTransitions lists what the general status entry point may do.
// Completion goes through RequestCompletion and reopening through rework.
var statusTransitions = map[entity.TaskStatus][]entity.TaskStatus{
	entity.TaskPending:    {entity.TaskInProgress},
	entity.TaskInProgress: {entity.TaskPaused},
	entity.TaskPaused:     {entity.TaskInProgress},
}

func allowedTransition(from, to entity.TaskStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus starts, pauses or resumes the task at stage.
func (e *Engine) UpdateStatus(order *entity.Order, stage entity.Stage, status entity.TaskStatus, actor string) (Result, error) {
	task, err := taskFor(order, stage)
	if err != nil {
		return Result{}, err
	}
	if task.Status == status {
		return Result{Task: task.Clone()}, nil
	}
	if !allowedTransition(task.Status, status) {
		return Result{}, invalidTransition(stage, task.Status, status)
	}
	if status == entity.TaskInProgress {
		if err := checkOpen(order, stage); err != nil {
			return Result{}, err
		}
		if task.StartedAt == nil {
			started := e.now()
			task.StartedAt = &started
		}
	}
	task.Status = status

	return Result{Task: task.Clone(), Touched: []entity.Stage{stage}}, nil
}

// Assignment names who works a task and the day it is planned for.
type Assignment struct {
	Assignee    string
	Helpers     []string
	PlannedDate *time.Time
}

// Assign sets the responsible worker and helpers for stage. A nil
// PlannedDate keeps whatever date the task already has.
func (e *Engine) Assign(order *entity.Order, stage entity.Stage, a Assignment, actor string) (Result, error) {
	task, err := taskFor(order, stage)
	if err != nil {
		return Result{}, err
	}
	assignee := strings.TrimSpace(a.Assignee)
	seen := map[string]bool{assignee: true}
	cleaned := make([]string, 0, len(a.Helpers))
	for _, h := range a.Helpers {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		cleaned = append(cleaned, h)
	}
	task.Assignee = assignee
	task.Helpers = cleaned
	if a.PlannedDate != nil {
		planned := a.PlannedDate.UTC()
		task.PlannedDate = &planned
	}

	return Result{Task: task.Clone(), Touched: []entity.Stage{stage}}, nil
}

// StageProgress summarises one stage of an order.
type StageProgress struct {
	Stage         entity.Stage      `json:"stage"`
	Status        entity.TaskStatus `json:"status"`
	Scanned       int               `json:"scanned"`
	Planned       int               `json:"planned"`
	Open          bool              `json:"open"`
	BlockingStage entity.Stage      `json:"blocking_stage,omitempty"`
}

// Progress reports every stage of order in pipeline order.
func Progress(order *entity.Order) []StageProgress {
	out := make([]StageProgress, 0, len(entity.Stages))
	for _, stage := range entity.Stages {
		task := order.Task(stage)
		if task == nil {
			continue
		}
		scanned, planned := rulesFor(stage).ledger.totals(order, task)
		blocking, blocked := BlockingStage(order, stage)
		out = append(out, StageProgress{
			Stage:         stage,
			Status:        task.Status,
			Scanned:       scanned,
			Planned:       planned,
			Open:          !blocked,
			BlockingStage: blocking,
		})
	}
	return out
}
