package tracking

import (
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
)

// EventType names a state change worth telling the outside world about.
type EventType string

const (
	EventDetailReturnedForRework EventType = "detail.returned_for_rework"
	EventDetailSplit             EventType = "detail.split"
	EventPackageCreated          EventType = "package.created"
	EventPackageDeleted          EventType = "package.deleted"
	EventTaskCompleted           EventType = "task.completed"
	EventTaskReopened            EventType = "task.reopened"
)

// Event is emitted by engine operations. The engine never delivers events
// itself; callers forward them to a messaging channel.
type Event struct {
	Type        EventType    `json:"type"`
	OrderID     string       `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	CRMTaskID   string       `json:"crm_task_id,omitempty"`
	Stage       entity.Stage `json:"stage"`

	Code      string       `json:"code,omitempty"`
	FromStage entity.Stage `json:"from_stage,omitempty"`
	ToStage   entity.Stage `json:"to_stage,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Children  []string     `json:"children,omitempty"`

	PackageID   string             `json:"package_id,omitempty"`
	PackageQR   string             `json:"package_qr,omitempty"`
	PackageName string             `json:"package_name,omitempty"`
	PackageType entity.PackageType `json:"package_type,omitempty"`

	Scanned           int  `json:"scanned,omitempty"`
	Planned           int  `json:"planned,omitempty"`
	ShortageConfirmed bool `json:"shortage_confirmed,omitempty"`

	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newEvent(typ EventType, order *entity.Order, stage entity.Stage, actor string, at time.Time) Event {
	return Event{
		Type:        typ,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		CRMTaskID:   order.CRMTaskID,
		Stage:       stage,
		Actor:       actor,
		OccurredAt:  at,
	}
}
