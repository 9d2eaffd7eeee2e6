package tracking

import (
	"github.com/Additional-Code/millflow/internal/entity"
)

// ReturnToStage sends a defective unit discovered at source back to target.
// The unit's progress at target is reset and a completed target task is
// reopened; it completes again by itself once every returned unit has been
// scanned back. Notifying people is left to whoever consumes the events.
func (e *Engine) ReturnToStage(order *entity.Order, code string, source, target entity.Stage, reason, actor string) (Result, error) {
	code, err := normaliseCode(code)
	if err != nil {
		return Result{}, err
	}
	if _, err := taskFor(order, source); err != nil {
		return Result{}, err
	}
	if !ValidStage(target) {
		return Result{}, invalidReworkTarget(source, target, "unknown stage")
	}
	if after(target, source) {
		return Result{}, invalidReworkTarget(source, target, "defects cannot be sent forward")
	}
	if !rulesFor(target).reworkable {
		return Result{}, invalidReworkTarget(source, target, "stage does not track individual units")
	}
	task, err := taskFor(order, target)
	if err != nil {
		return Result{}, err
	}

	var d *entity.Detail
	if target == entity.StageCutting {
		d = task.DetailByCode(code)
		if d == nil || d.WasSplit {
			return Result{}, unknownUnit(target, code)
		}
		d.ReworkQuantity = max(d.ReworkQuantity, d.Quantity)
		d.PlanQuantity = d.ReworkQuantity
	} else {
		view, ok := findView(projectFromCutting(order, task), code)
		if !ok {
			return Result{}, unknownUnit(target, code)
		}
		d = task.DetailByCode(code)
		if d == nil {
			d = &entity.Detail{ID: e.newID(), TaskID: task.ID, Code: code}
			task.Details = append(task.Details, d)
		}
		d.PlanQuantity = view.PlanQuantity
		d.ReworkQuantity = view.PlanQuantity
	}
	d.Quantity = 0
	d.Status = entity.DetailPending
	d.ScannedBy = ""
	d.ScannedAt = nil

	now := e.now()
	returned := newEvent(EventDetailReturnedForRework, order, source, actor, now)
	returned.Code = code
	returned.FromStage = source
	returned.ToStage = target
	returned.Reason = reason
	events := []Event{returned}

	if task.Status == entity.TaskCompleted {
		task.Status = entity.TaskInProgress
		task.ReopenedForRework = true
		task.CompletedAt = nil

		reopened := newEvent(EventTaskReopened, order, target, actor, now)
		reopened.Code = code
		reopened.Reason = reason
		events = append(events, reopened)
	}

	return Result{
		Task:    task.Clone(),
		Detail:  d.Clone(),
		Events:  events,
		Touched: []entity.Stage{target},
	}, nil
}
