package tracking

import (
	"github.com/Additional-Code/millflow/internal/entity"
)

// RecordScan registers one scanned unit of code at stage.
//
// Cutting scans are uncapped and define the plan for every later stage.
// Other stages reconcile against the projection and reject scans above plan.
// Shipment scans take a package QR instead of a unit code.
func (e *Engine) RecordScan(order *entity.Order, stage entity.Stage, code, actor string) (Result, error) {
	code, err := normaliseCode(code)
	if err != nil {
		return Result{}, err
	}
	task, err := taskFor(order, stage)
	if err != nil {
		return Result{}, err
	}
	if err := checkOpen(order, stage); err != nil {
		return Result{}, err
	}
	if task.Status == entity.TaskCompleted {
		return Result{}, invalidTransition(stage, task.Status, entity.TaskInProgress)
	}

	now := e.now()
	d, err := rulesFor(stage).ledger.scan(scanContext{
		order: order,
		task:  task,
		actor: actor,
		now:   now,
		newID: e.newID,
	}, code)
	if err != nil {
		return Result{}, err
	}
	markStarted(task, now)
	events := settleRework(order, task, d, actor, now)

	return Result{
		Task:     task.Clone(),
		Detail:   d.Clone(),
		Quantity: d.Quantity,
		Complete: d.PlanQuantity > 0 && d.Quantity >= d.PlanQuantity,
		Events:   events,
		Touched:  []entity.Stage{stage},
	}, nil
}

// RemoveDetail deletes a detail record outright as a manual correction.
// On stages that keep packages the code also leaves its package, unless that
// package has already been loaded.
func (e *Engine) RemoveDetail(order *entity.Order, stage entity.Stage, detailID, actor string) (Result, error) {
	task, err := taskFor(order, stage)
	if err != nil {
		return Result{}, err
	}
	idx := -1
	for i, d := range task.Details {
		if d.ID == detailID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, detailNotFound(detailID)
	}
	removed := task.Details[idx]
	if err := unpack(order, task, removed.Code); err != nil {
		return Result{}, err
	}
	task.Details = append(task.Details[:idx], task.Details[idx+1:]...)

	return Result{
		Task:    task.Clone(),
		Detail:  removed.Clone(),
		Touched: []entity.Stage{stage},
	}, nil
}

// MarkReturnAfterEdge flags a cutting detail that must be split once
// edge-banding has processed it.
func (e *Engine) MarkReturnAfterEdge(order *entity.Order, detailID string, flag bool, actor string) (Result, error) {
	task, err := taskFor(order, entity.StageCutting)
	if err != nil {
		return Result{}, err
	}
	d := task.DetailByID(detailID)
	if d == nil {
		return Result{}, detailNotFound(detailID)
	}
	if d.WasSplit && !flag {
		return Result{}, notEligibleForSplit(d.Code, "detail has already been split")
	}
	d.ReturnAfterEdge = flag

	return Result{
		Task:    task.Clone(),
		Detail:  d.Clone(),
		Touched: []entity.Stage{entity.StageCutting},
	}, nil
}

// unpack drops code from every package on task. It refuses when one of those
// packages is already on the truck.
func unpack(order *entity.Order, task *entity.Task, code string) error {
	shipment := order.Task(entity.StageShipment)
	for _, p := range task.Packages {
		if p.Contains(code) && shipment != nil && shipment.DetailByCode(p.QR) != nil {
			return alreadyShipped(p.QR)
		}
	}
	for _, p := range task.Packages {
		kept := p.Codes[:0]
		for _, c := range p.Codes {
			if c != code {
				kept = append(kept, c)
			}
		}
		p.Codes = kept
	}
	return nil
}
