package tracking

import (
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
)

// ledger reconciles scans for one family of stages.
type ledger interface {
	// project returns the units expected at the task's stage.
	project(order *entity.Order, task *entity.Task) []entity.Detail
	// scan records one unit under code and returns the updated stored detail.
	scan(sc scanContext, code string) (*entity.Detail, error)
	// release undoes one unit of code, used when a package is dissolved.
	release(task *entity.Task, code string)
	// totals returns scanned and planned counts for the completion gate.
	totals(order *entity.Order, task *entity.Task) (scanned, planned int)
}

type scanContext struct {
	order *entity.Order
	task  *entity.Task
	actor string
	now   time.Time
	newID func() string
}

type completionPolicy int

const (
	// completionConfirmable allows finishing short once the operator confirms.
	completionConfirmable completionPolicy = iota
	// completionFree applies no quantity gate.
	completionFree
	// completionHard never allows finishing short.
	completionHard
)

type stageRules struct {
	ledger      ledger
	completion  completionPolicy
	reworkable  bool
	qrPrefix    string
	packageType entity.PackageType
}

var rulebook = map[entity.Stage]stageRules{
	entity.StageCutting: {
		ledger:     countingLedger{source: true},
		completion: completionConfirmable,
		reworkable: true,
	},
	entity.StageEdgeBanding: {
		ledger:     reconcilingLedger{},
		completion: completionConfirmable,
		reworkable: true,
	},
	entity.StageDrilling: {
		ledger:     reconcilingLedger{},
		completion: completionConfirmable,
		reworkable: true,
	},
	entity.StageKitAssembly: {
		ledger:      countingLedger{},
		completion:  completionFree,
		qrPrefix:    "K",
		packageType: entity.PackageFittings,
	},
	entity.StagePackaging: {
		ledger:      reconcilingLedger{},
		completion:  completionConfirmable,
		reworkable:  true,
		qrPrefix:    "P",
		packageType: entity.PackageFurniture,
	},
	entity.StageShipment: {
		ledger:     shipmentLedger{},
		completion: completionHard,
	},
}

func rulesFor(stage entity.Stage) stageRules {
	return rulebook[stage]
}

// countingLedger backs cutting (the source of truth for every code) and kit
// assembly (free-form fittings). Scans are never capped.
type countingLedger struct {
	source bool
}

func (l countingLedger) project(_ *entity.Order, task *entity.Task) []entity.Detail {
	if !l.source {
		return []entity.Detail{}
	}
	out := make([]entity.Detail, 0, len(task.Details))
	for _, d := range task.Details {
		out = append(out, *d.Clone())
	}
	return out
}

func (countingLedger) scan(sc scanContext, code string) (*entity.Detail, error) {
	d := sc.task.DetailByCode(code)
	if d == nil {
		d = &entity.Detail{ID: sc.newID(), TaskID: sc.task.ID, Code: code}
		sc.task.Details = append(sc.task.Details, d)
	}
	d.Quantity++
	d.PlanQuantity = cutPlan(d)
	d.Status = entity.DetailScanned
	stamp(d, sc.actor, sc.now)
	return d, nil
}

func (countingLedger) release(task *entity.Task, code string) {
	d := task.DetailByCode(code)
	if d == nil || d.Quantity == 0 {
		return
	}
	d.Quantity--
	d.PlanQuantity = cutPlan(d)
	if d.Quantity == 0 {
		d.Status = entity.DetailPending
	}
}

func (countingLedger) totals(_ *entity.Order, task *entity.Task) (int, int) {
	scanned, planned := 0, 0
	for _, d := range task.Details {
		if d.WasSplit {
			continue
		}
		scanned += d.Quantity
		planned += cutPlan(d)
	}
	return scanned, planned
}

// cutPlan is what a counted unit is expected to reach. A unit sent back for
// recutting keeps the quantity it had before the return until it is cut
// again or the stage completes without it.
func cutPlan(d *entity.Detail) int {
	return max(d.Quantity, d.ReworkQuantity)
}

// reconcilingLedger backs the stages that replay cutting output and cap each
// code at its cutting quantity.
type reconcilingLedger struct{}

func (reconcilingLedger) project(order *entity.Order, task *entity.Task) []entity.Detail {
	return projectFromCutting(order, task)
}

func (reconcilingLedger) scan(sc scanContext, code string) (*entity.Detail, error) {
	view, ok := findView(projectFromCutting(sc.order, sc.task), code)
	if !ok {
		return nil, unknownUnit(sc.task.Stage, code)
	}
	d := sc.task.DetailByCode(code)
	current := 0
	if d != nil {
		current = d.Quantity
	}
	if current+1 > view.PlanQuantity {
		return nil, quotaExceeded(sc.task.Stage, code, current, view.PlanQuantity)
	}
	if d == nil {
		d = &entity.Detail{ID: sc.newID(), TaskID: sc.task.ID, Code: code}
		sc.task.Details = append(sc.task.Details, d)
	}
	d.Quantity++
	d.PlanQuantity = view.PlanQuantity
	d.Status = reconciledStatus(d.Quantity, d.PlanQuantity)
	stamp(d, sc.actor, sc.now)
	return d, nil
}

func (reconcilingLedger) release(task *entity.Task, code string) {
	d := task.DetailByCode(code)
	if d == nil || d.Quantity == 0 {
		return
	}
	d.Quantity--
	d.Status = reconciledStatus(d.Quantity, d.PlanQuantity)
}

func (reconcilingLedger) totals(order *entity.Order, task *entity.Task) (int, int) {
	scanned, planned := 0, 0
	for _, view := range projectFromCutting(order, task) {
		planned += view.PlanQuantity
		scanned += min(view.Quantity, view.PlanQuantity)
	}
	return scanned, planned
}

func reconciledStatus(quantity, plan int) entity.DetailStatus {
	switch {
	case quantity <= 0:
		return entity.DetailPending
	case quantity >= plan:
		return entity.DetailVerified
	default:
		return entity.DetailScanned
	}
}

// shipmentLedger accepts package QR codes; each package loads exactly once.
type shipmentLedger struct{}

func (shipmentLedger) project(*entity.Order, *entity.Task) []entity.Detail {
	return []entity.Detail{}
}

func (shipmentLedger) scan(sc scanContext, qr string) (*entity.Detail, error) {
	if findPackage(shippablePackages(sc.order), qr) == nil {
		return nil, unknownPackage(qr)
	}
	if sc.task.DetailByCode(qr) != nil {
		return nil, alreadyShipped(qr)
	}
	d := &entity.Detail{
		ID:           sc.newID(),
		TaskID:       sc.task.ID,
		Code:         qr,
		Quantity:     1,
		PlanQuantity: 1,
		Status:       entity.DetailVerified,
	}
	stamp(d, sc.actor, sc.now)
	sc.task.Details = append(sc.task.Details, d)
	return d, nil
}

func (shipmentLedger) release(*entity.Task, string) {}

func (shipmentLedger) totals(order *entity.Order, task *entity.Task) (int, int) {
	packages := shippablePackages(order)
	scanned := 0
	for _, p := range packages {
		if task.DetailByCode(p.QR) != nil {
			scanned++
		}
	}
	return scanned, len(packages)
}

// shippablePackages lists every package produced by packaging and kit assembly.
func shippablePackages(order *entity.Order) []*entity.Package {
	var out []*entity.Package
	for _, stage := range []entity.Stage{entity.StagePackaging, entity.StageKitAssembly} {
		if task := order.Task(stage); task != nil {
			out = append(out, task.Packages...)
		}
	}
	return out
}

func findPackage(packages []*entity.Package, qr string) *entity.Package {
	for _, p := range packages {
		if p.QR == qr {
			return p
		}
	}
	return nil
}
