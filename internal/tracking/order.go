package tracking

import (
	"strings"

	"github.com/Additional-Code/millflow/internal/entity"
)

// OrderDraft describes an order to open.
type OrderDraft struct {
	Number    string
	Customer  string
	CRMTaskID string
	// UnitRates sets the payroll rate per unit for each stage's task.
	UnitRates map[entity.Stage]float64
}

// NewOrder builds an order with one pending task per pipeline stage.
func (e *Engine) NewOrder(draft OrderDraft) (*entity.Order, error) {
	number := strings.TrimSpace(draft.Number)
	if number == "" {
		return nil, invalidArgument("order number is required")
	}
	now := e.now()
	order := &entity.Order{
		ID:        e.newID(),
		Number:    number,
		Customer:  strings.TrimSpace(draft.Customer),
		CRMTaskID: strings.TrimSpace(draft.CRMTaskID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, stage := range entity.Stages {
		order.Tasks = append(order.Tasks, &entity.Task{
			ID:       e.newID(),
			OrderID:  order.ID,
			Stage:    stage,
			Status:   entity.TaskPending,
			UnitRate: draft.UnitRates[stage],
			Details:  []*entity.Detail{},
			Packages: []*entity.Package{},
		})
	}
	return order, nil
}
