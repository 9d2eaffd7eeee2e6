package tracking

import (
	"strconv"
	"strings"

	"github.com/Additional-Code/millflow/internal/entity"
)

// Split replaces a cutting detail that came back from edge-banding with
// childCount new single-unit details coded {prefix}1..{prefix}n. The parent
// stays on record with WasSplit set so no later stage projects it again.
func (e *Engine) Split(order *entity.Order, detailID string, childCount int, prefix, actor string) (Result, error) {
	if childCount < 2 {
		return Result{}, invalidArgument("a split needs at least two children")
	}
	cutting, err := taskFor(order, entity.StageCutting)
	if err != nil {
		return Result{}, err
	}
	src := cutting.DetailByID(detailID)
	if src == nil {
		return Result{}, detailNotFound(detailID)
	}
	if src.WasSplit {
		return Result{}, notEligibleForSplit(src.Code, "detail has already been split")
	}
	if !src.ReturnAfterEdge {
		return Result{}, notEligibleForSplit(src.Code, "detail is not marked for return after edge-banding")
	}
	edge := order.Task(entity.StageEdgeBanding)
	if edge == nil {
		return Result{}, notEligibleForSplit(src.Code, "order has no edge-banding task")
	}
	shadow := edge.DetailByCode(src.Code)
	if shadow == nil || shadow.Status != entity.DetailVerified || shadow.Quantity < cutPlan(src) {
		return Result{}, notEligibleForSplit(src.Code, "edge-banding has not verified every unit")
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = src.Code + e.splitSeparator
	}
	codes := make([]string, childCount)
	for i := range codes {
		codes[i] = prefix + strconv.Itoa(i+1)
		if cutting.DetailByCode(codes[i]) != nil {
			return Result{}, notEligibleForSplit(src.Code, "child code "+codes[i]+" already exists")
		}
	}

	src.WasSplit = true
	parentID := src.ID
	for _, code := range codes {
		pid := parentID
		cutting.Details = append(cutting.Details, &entity.Detail{
			ID:             e.newID(),
			TaskID:         cutting.ID,
			Code:           code,
			Quantity:       1,
			PlanQuantity:   1,
			Status:         entity.DetailPending,
			ParentDetailID: &pid,
		})
	}

	event := newEvent(EventDetailSplit, order, entity.StageEdgeBanding, actor, e.now())
	event.Code = src.Code
	event.Children = codes

	return Result{
		Task:    cutting.Clone(),
		Detail:  src.Clone(),
		Events:  []Event{event},
		Touched: []entity.Stage{entity.StageCutting},
	}, nil
}
