package tracking

import (
	"fmt"
	"strings"

	"github.com/Additional-Code/millflow/internal/entity"
)

// CreatePackage opens a new package on a packaging or kit-assembly task.
// Sequence numbers are never reused, so a QR stays unique after deletions.
func (e *Engine) CreatePackage(order *entity.Order, stage entity.Stage, name string, typ entity.PackageType, actor string) (Result, error) {
	task, err := packageTask(order, stage)
	if err != nil {
		return Result{}, err
	}
	rules := rulesFor(stage)
	if typ == "" {
		typ = rules.packageType
	}
	if !typ.Valid() {
		return Result{}, invalidArgument("unknown package type " + string(typ))
	}

	now := e.now()
	task.PackageSequence++
	seq := task.PackageSequence
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Package %d", seq)
	}
	pkg := &entity.Package{
		ID:        e.newID(),
		TaskID:    task.ID,
		Name:      name,
		QR:        fmt.Sprintf("%s-%s-%d", rules.qrPrefix, order.Number, seq),
		Sequence:  seq,
		Type:      typ,
		Codes:     []string{},
		CreatedBy: actor,
		CreatedAt: now,
	}
	task.Packages = append(task.Packages, pkg)
	markStarted(task, now)

	event := newEvent(EventPackageCreated, order, stage, actor, now)
	event.PackageID = pkg.ID
	event.PackageQR = pkg.QR
	event.PackageName = pkg.Name
	event.PackageType = pkg.Type

	return Result{
		Task:    task.Clone(),
		Package: pkg.Clone(),
		Events:  []Event{event},
		Touched: []entity.Stage{stage},
	}, nil
}

// DeletePackage dissolves a package that has not been loaded yet. Each member
// code gives back the unit it consumed.
func (e *Engine) DeletePackage(order *entity.Order, stage entity.Stage, packageID, actor string) (Result, error) {
	task, err := packageTask(order, stage)
	if err != nil {
		return Result{}, err
	}
	idx := -1
	for i, p := range task.Packages {
		if p.ID == packageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, packageNotFound(packageID)
	}
	pkg := task.Packages[idx]
	if shipment := order.Task(entity.StageShipment); shipment != nil && shipment.DetailByCode(pkg.QR) != nil {
		return Result{}, alreadyShipped(pkg.QR)
	}

	l := rulesFor(stage).ledger
	for _, code := range pkg.Codes {
		l.release(task, code)
	}
	task.Packages = append(task.Packages[:idx], task.Packages[idx+1:]...)

	event := newEvent(EventPackageDeleted, order, stage, actor, e.now())
	event.PackageID = pkg.ID
	event.PackageQR = pkg.QR
	event.PackageName = pkg.Name
	event.PackageType = pkg.Type

	return Result{
		Task:    task.Clone(),
		Package: pkg.Clone(),
		Events:  []Event{event},
		Touched: []entity.Stage{stage},
	}, nil
}

// AddDetailToPackage scans code into a package. A code can sit in at most one
// package per task, and the scan goes through the stage ledger so quotas hold.
func (e *Engine) AddDetailToPackage(order *entity.Order, stage entity.Stage, packageID, code, actor string) (Result, error) {
	code, err := normaliseCode(code)
	if err != nil {
		return Result{}, err
	}
	task, err := packageTask(order, stage)
	if err != nil {
		return Result{}, err
	}
	pkg := task.PackageByID(packageID)
	if pkg == nil {
		return Result{}, packageNotFound(packageID)
	}
	for _, p := range task.Packages {
		if p.Contains(code) {
			return Result{}, alreadyPackaged(code, p.QR)
		}
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
	pkg.Codes = append(pkg.Codes, code)
	markStarted(task, now)
	events := settleRework(order, task, d, actor, now)

	return Result{
		Task:     task.Clone(),
		Detail:   d.Clone(),
		Package:  pkg.Clone(),
		Quantity: d.Quantity,
		Complete: d.PlanQuantity > 0 && d.Quantity >= d.PlanQuantity,
		Events:   events,
		Touched:  []entity.Stage{stage},
	}, nil
}

// ManifestEntry is one package on the shipment plan.
type ManifestEntry struct {
	Stage   entity.Stage    `json:"stage"`
	Package *entity.Package `json:"package"`
	Shipped bool            `json:"shipped"`
}

// ShipmentManifest lists every package the shipment stage must load.
func ShipmentManifest(order *entity.Order) []ManifestEntry {
	shipment := order.Task(entity.StageShipment)
	var out []ManifestEntry
	for _, stage := range []entity.Stage{entity.StagePackaging, entity.StageKitAssembly} {
		task := order.Task(stage)
		if task == nil {
			continue
		}
		for _, p := range task.Packages {
			out = append(out, ManifestEntry{
				Stage:   stage,
				Package: p.Clone(),
				Shipped: shipment != nil && shipment.DetailByCode(p.QR) != nil,
			})
		}
	}
	return out
}

// packageTask resolves a stage that may hold packages and checks it accepts work.
func packageTask(order *entity.Order, stage entity.Stage) (*entity.Task, error) {
	task, err := taskFor(order, stage)
	if err != nil {
		return nil, err
	}
	if rulesFor(stage).qrPrefix == "" {
		return nil, invalidArgument("packages are only kept at packaging and kit assembly")
	}
	if err := checkOpen(order, stage); err != nil {
		return nil, err
	}
	if task.Status == entity.TaskCompleted {
		return nil, invalidTransition(stage, task.Status, entity.TaskInProgress)
	}
	return task, nil
}
