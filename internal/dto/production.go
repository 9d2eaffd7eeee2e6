package dto

import (
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/tracking"
)

// CreateOrderRequest opens a new order.
type CreateOrderRequest struct {
	Number    string `json:"number"`
	Customer  string `json:"customer"`
	CRMTaskID string `json:"crm_task_id"`
}

// ScanRequest carries one scanned code or package QR.
type ScanRequest struct {
	Code string `json:"code"`
}

// ReturnAfterEdgeRequest flags a cutting detail for splitting.
type ReturnAfterEdgeRequest struct {
	ReturnAfterEdge *bool `json:"return_after_edge"`
}

// SplitRequest divides a detail into child details.
type SplitRequest struct {
	ChildCount int    `json:"child_count"`
	Prefix     string `json:"prefix"`
}

// ReworkRequest returns a defective unit to an earlier stage.
type ReworkRequest struct {
	Code        string `json:"code"`
	TargetStage string `json:"target_stage"`
	Reason      string `json:"reason"`
}

// CreatePackageRequest opens a package.
type CreatePackageRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CompleteRequest asks for a stage to be completed.
type CompleteRequest struct {
	ConfirmShortage bool `json:"confirm_shortage"`
}

// StatusRequest starts, pauses or resumes a task.
type StatusRequest struct {
	Status string `json:"status"`
}

// AssignmentRequest sets who works a task and when. PlannedDate is RFC 3339.
type AssignmentRequest struct {
	Assignee    string     `json:"assignee"`
	Helpers     []string   `json:"helpers"`
	PlannedDate *time.Time `json:"planned_date,omitempty"`
}

// OrderResponse is an order with per-stage progress.
type OrderResponse struct {
	*entity.Order
	Progress []tracking.StageProgress `json:"progress"`
}

// ResultResponse renders the outcome of a tracking operation.
type ResultResponse struct {
	Task     *entity.Task     `json:"task,omitempty"`
	Detail   *entity.Detail   `json:"detail,omitempty"`
	Package  *entity.Package  `json:"package,omitempty"`
	Quantity int              `json:"quantity"`
	Complete bool             `json:"complete"`
	Scanned  int              `json:"scanned,omitempty"`
	Planned  int              `json:"planned,omitempty"`
	Events   []tracking.Event `json:"events,omitempty"`
}

// FromResult converts an engine result for rendering.
func FromResult(res tracking.Result) ResultResponse {
	return ResultResponse{
		Task:     res.Task,
		Detail:   res.Detail,
		Package:  res.Package,
		Quantity: res.Quantity,
		Complete: res.Complete,
		Scanned:  res.Scanned,
		Planned:  res.Planned,
		Events:   res.Events,
	}
}

// ShipmentResponse lists every package the order must ship.
type ShipmentResponse struct {
	OrderID  string                   `json:"order_id"`
	Packages []tracking.ManifestEntry `json:"packages"`
	Loaded   int                      `json:"loaded"`
	Total    int                      `json:"total"`
}
