package tracking

import "github.com/Additional-Code/millflow/internal/entity"

// Project returns the units a worker must process at stage. The result is
// derived on every call and never stored as the plan.
func Project(order *entity.Order, stage entity.Stage) ([]entity.Detail, error) {
	task, err := taskFor(order, stage)
	if err != nil {
		return nil, err
	}
	return rulesFor(stage).ledger.project(order, task), nil
}

// projectFromCutting replays the cutting output for task: split parents are
// superseded by their children, plan quantities come from cutting and
// progress comes from whatever task already recorded under the same code.
func projectFromCutting(order *entity.Order, task *entity.Task) []entity.Detail {
	cutting := order.Task(entity.StageCutting)
	if cutting == nil {
		return []entity.Detail{}
	}
	out := make([]entity.Detail, 0, len(cutting.Details))
	for _, src := range cutting.Details {
		if src.WasSplit {
			continue
		}
		// Children only exist once edge-banding has been done on the parent.
		if src.ParentDetailID != nil && !after(task.Stage, entity.StageEdgeBanding) {
			continue
		}
		view := entity.Detail{
			TaskID:          task.ID,
			Code:            src.Code,
			PlanQuantity:    cutPlan(src),
			Status:          entity.DetailPending,
			ReturnAfterEdge: src.ReturnAfterEdge,
		}
		if src.ParentDetailID != nil {
			parent := *src.ParentDetailID
			view.ParentDetailID = &parent
		}
		if local := task.DetailByCode(src.Code); local != nil {
			view.ID = local.ID
			view.Quantity = local.Quantity
			view.Status = local.Status
			view.ScannedBy = local.ScannedBy
			view.ReworkQuantity = local.ReworkQuantity
			if local.ScannedAt != nil {
				at := *local.ScannedAt
				view.ScannedAt = &at
			}
		}
		out = append(out, view)
	}
	return out
}

func findView(views []entity.Detail, code string) (entity.Detail, bool) {
	for _, v := range views {
		if v.Code == code {
			return v, true
		}
	}
	return entity.Detail{}, false
}
