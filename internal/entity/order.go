package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is a customer job tracked through the production pipeline.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        string    `bun:"id,pk" json:"id"`
	Number    string    `bun:"number,notnull,unique" json:"number"`
	Customer  string    `bun:"customer" json:"customer,omitempty"`
	CRMTaskID string    `bun:"crm_task_id" json:"crm_task_id,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`

	Tasks []*Task `bun:"rel:has-many,join:id=order_id" json:"tasks"`
}

// Task returns the order's task for stage, or nil.
func (o *Order) Task(stage Stage) *Task {
	if o == nil {
		return nil
	}
	for _, t := range o.Tasks {
		if t.Stage == stage {
			return t
		}
	}
	return nil
}

// Task is one stage's work for an Order.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID                string     `bun:"id,pk" json:"id"`
	OrderID           string     `bun:"order_id,notnull" json:"order_id"`
	Stage             Stage      `bun:"stage,notnull" json:"stage"`
	Status            TaskStatus `bun:"status,notnull" json:"status"`
	Assignee          string     `bun:"assignee" json:"assignee,omitempty"`
	Helpers           []string   `bun:"helpers" json:"helpers,omitempty"`
	PlannedDate       *time.Time `bun:"planned_date" json:"planned_date,omitempty"`
	StartedAt         *time.Time `bun:"started_at" json:"started_at,omitempty"`
	CompletedAt       *time.Time `bun:"completed_at" json:"completed_at,omitempty"`
	UnitRate          float64    `bun:"unit_rate,notnull,default:0" json:"unit_rate"`
	ReopenedForRework bool       `bun:"reopened_for_rework,notnull,default:false" json:"reopened_for_rework"`
	PackageSequence   int        `bun:"package_sequence,notnull,default:0" json:"package_sequence"`

	Details  []*Detail  `bun:"rel:has-many,join:id=task_id" json:"details"`
	Packages []*Package `bun:"rel:has-many,join:id=task_id" json:"packages,omitempty"`
}

// DetailByCode returns the task-local detail recorded under code, or nil.
func (t *Task) DetailByCode(code string) *Detail {
	for _, d := range t.Details {
		if d.Code == code {
			return d
		}
	}
	return nil
}

// DetailByID returns the detail with the given id, or nil.
func (t *Task) DetailByID(id string) *Detail {
	for _, d := range t.Details {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// PackageByID returns the package with the given id, or nil.
func (t *Task) PackageByID(id string) *Package {
	for _, p := range t.Packages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Detail is a physical unit scanned under a code within one Task.
type Detail struct {
	bun.BaseModel `bun:"table:details,alias:d"`

	ID              string       `bun:"id,pk" json:"id"`
	TaskID          string       `bun:"task_id,notnull" json:"task_id"`
	Code            string       `bun:"code,notnull" json:"code"`
	Quantity        int          `bun:"quantity,notnull,default:0" json:"quantity"`
	PlanQuantity    int          `bun:"plan_quantity,notnull,default:0" json:"plan_quantity"`
	Status          DetailStatus `bun:"status,notnull" json:"status"`
	ScannedBy       string       `bun:"scanned_by" json:"scanned_by,omitempty"`
	ScannedAt       *time.Time   `bun:"scanned_at" json:"scanned_at,omitempty"`
	ReturnAfterEdge bool         `bun:"return_after_edge,notnull,default:false" json:"return_after_edge"`
	WasSplit        bool         `bun:"was_split,notnull,default:false" json:"was_split"`
	ParentDetailID  *string      `bun:"parent_detail_id" json:"parent_detail_id,omitempty"`
	ReworkQuantity  int          `bun:"rework_quantity,notnull,default:0" json:"rework_quantity,omitempty"`
	Position        int          `bun:"position,notnull,default:0" json:"-"`
}

// Package groups scanned detail codes under a QR label.
type Package struct {
	bun.BaseModel `bun:"table:packages,alias:p"`

	ID        string      `bun:"id,pk" json:"id"`
	TaskID    string      `bun:"task_id,notnull" json:"task_id"`
	Name      string      `bun:"name,notnull" json:"name"`
	QR        string      `bun:"qr,notnull,unique" json:"qr"`
	Sequence  int         `bun:"sequence,notnull" json:"sequence"`
	Type      PackageType `bun:"type,notnull" json:"type"`
	Codes     []string    `bun:"codes" json:"codes"`
	CreatedBy string      `bun:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	Position  int         `bun:"position,notnull,default:0" json:"-"`
}

// Contains reports whether the package holds code.
func (p *Package) Contains(code string) bool {
	for _, c := range p.Codes {
		if c == code {
			return true
		}
	}
	return false
}
