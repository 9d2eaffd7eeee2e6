package tracking

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Additional-Code/millflow/internal/entity"
)

// edgeVerified cuts code n times, flags it for return, completes cutting and
// scans all n units through edge-banding.
func edgeVerified(t *testing.T, e *Engine, order *entity.Order, code string, n int) *entity.Detail {
	t.Helper()
	res := scanN(t, e, order, entity.StageCutting, code, n)
	if _, err := e.MarkReturnAfterEdge(order, res.Detail.ID, true, "lead"); err != nil {
		t.Fatalf("MarkReturnAfterEdge() error: %v", err)
	}
	if _, err := e.RequestCompletion(order, entity.StageCutting, false, "lead"); err != nil {
		t.Fatalf("complete cutting: %v", err)
	}
	scanN(t, e, order, entity.StageEdgeBanding, code, n)
	return order.Task(entity.StageCutting).DetailByCode(code)
}

func TestSplit_ReturnAfterEdgeScenario(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	src := edgeVerified(t, e, order, "A1", 3)

	edgeView, err := Project(order, entity.StageEdgeBanding)
	if err != nil {
		t.Fatalf("Project() error: %v", err)
	}
	if len(edgeView) != 1 || edgeView[0].PlanQuantity != 3 || edgeView[0].Status != entity.DetailVerified {
		t.Fatalf("edge projection = %+v", edgeView)
	}

	res, err := e.Split(order, src.ID, 2, "A1-", "lead")
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if !res.Detail.WasSplit {
		t.Error("parent not marked as split")
	}
	if len(res.Events) != 1 || res.Events[0].Type != EventDetailSplit {
		t.Fatalf("events = %+v", res.Events)
	}
	if want := []string{"A1-1", "A1-2"}; !reflect.DeepEqual(res.Events[0].Children, want) {
		t.Errorf("Children = %v, want %v", res.Events[0].Children, want)
	}

	for _, code := range []string{"A1-1", "A1-2"} {
		child := order.Task(entity.StageCutting).DetailByCode(code)
		if child == nil {
			t.Fatalf("child %s missing", code)
		}
		if child.Quantity != 1 || child.PlanQuantity != 1 || child.Status != entity.DetailPending {
			t.Errorf("child %s = %+v", code, child)
		}
		if child.ParentDetailID == nil || *child.ParentDetailID != src.ID {
			t.Errorf("child %s parent = %v, want %s", code, child.ParentDetailID, src.ID)
		}
	}

	drilling, err := Project(order, entity.StageDrilling)
	if err != nil {
		t.Fatalf("Project() error: %v", err)
	}
	if got, want := codesOf(drilling), []string{"A1-1", "A1-2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("drilling projection = %v, want %v", got, want)
	}
	for _, d := range drilling {
		if d.PlanQuantity != 1 {
			t.Errorf("%s PlanQuantity = %d, want 1", d.Code, d.PlanQuantity)
		}
	}

	if _, err := e.Split(order, src.ID, 2, "A1-", "lead"); !errors.Is(err, ErrNotEligibleForSplit) {
		t.Errorf("second split err = %v, want ErrNotEligibleForSplit", err)
	}
}

func TestSplit_Eligibility(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, e *Engine, order *entity.Order) string
		count   int
		wantErr error
	}{
		{
			name: "not flagged",
			setup: func(t *testing.T, e *Engine, order *entity.Order) string {
				res := scanN(t, e, order, entity.StageCutting, "B1", 1)
				forceComplete(order, entity.StageCutting)
				scanN(t, e, order, entity.StageEdgeBanding, "B1", 1)
				return res.Detail.ID
			},
			count:   2,
			wantErr: ErrNotEligibleForSplit,
		},
		{
			name: "edge banding unfinished",
			setup: func(t *testing.T, e *Engine, order *entity.Order) string {
				res := scanN(t, e, order, entity.StageCutting, "B1", 2)
				if _, err := e.MarkReturnAfterEdge(order, res.Detail.ID, true, "lead"); err != nil {
					t.Fatal(err)
				}
				forceComplete(order, entity.StageCutting)
				scanN(t, e, order, entity.StageEdgeBanding, "B1", 1)
				return res.Detail.ID
			},
			count:   2,
			wantErr: ErrNotEligibleForSplit,
		},
		{
			name: "single child",
			setup: func(t *testing.T, e *Engine, order *entity.Order) string {
				return edgeVerified(t, e, order, "B1", 1).ID
			},
			count:   1,
			wantErr: ErrInvalidArgument,
		},
		{
			name: "unknown detail",
			setup: func(*testing.T, *Engine, *entity.Order) string {
				return "missing"
			},
			count:   2,
			wantErr: ErrDetailNotFound,
		},
		{
			name: "child code collides",
			setup: func(t *testing.T, e *Engine, order *entity.Order) string {
				scanN(t, e, order, entity.StageCutting, "B1-2", 1)
				return edgeVerified(t, e, order, "B1", 1).ID
			},
			count:   2,
			wantErr: ErrNotEligibleForSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			order := newTestOrder(t, e)
			id := tt.setup(t, e, order)

			_, err := e.Split(order, id, tt.count, "", "lead")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Split() err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplit_DefaultPrefix(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	src := edgeVerified(t, e, order, "C7", 2)

	res, err := e.Split(order, src.ID, 3, "", "lead")
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if want := []string{"C7-1", "C7-2", "C7-3"}; !reflect.DeepEqual(res.Events[0].Children, want) {
		t.Errorf("Children = %v, want %v", res.Events[0].Children, want)
	}
}

func TestMarkReturnAfterEdge_CannotUnflagSplitDetail(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	src := edgeVerified(t, e, order, "A1", 1)
	if _, err := e.Split(order, src.ID, 2, "", "lead"); err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	_, err := e.MarkReturnAfterEdge(order, src.ID, false, "lead")
	if !errors.Is(err, ErrNotEligibleForSplit) {
		t.Fatalf("err = %v, want ErrNotEligibleForSplit", err)
	}
}
