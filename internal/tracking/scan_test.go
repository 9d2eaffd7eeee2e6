package tracking

import (
	"errors"
	"testing"

	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

func TestRecordScan_CuttingCountsEveryScan(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	for want := 1; want <= 4; want++ {
		res, err := e.RecordScan(order, entity.StageCutting, "A1", "worker-1")
		if err != nil {
			t.Fatalf("scan %d: %v", want, err)
		}
		if res.Quantity != want {
			t.Errorf("Quantity = %d, want %d", res.Quantity, want)
		}
	}

	task := order.Task(entity.StageCutting)
	if len(task.Details) != 1 {
		t.Fatalf("len(Details) = %d, want 1", len(task.Details))
	}
	d := task.Details[0]
	if d.PlanQuantity != 4 || d.Status != entity.DetailScanned || d.ScannedBy != "worker-1" {
		t.Errorf("detail = %+v", d)
	}
	if task.Status != entity.TaskInProgress {
		t.Errorf("Status = %s, want %s", task.Status, entity.TaskInProgress)
	}
	if task.StartedAt == nil || !task.StartedAt.Equal(testNow) {
		t.Errorf("StartedAt = %v, want %v", task.StartedAt, testNow)
	}
}

func TestRecordScan_AfterRemoveStartsOver(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	res := scanN(t, e, order, entity.StageCutting, "A1", 3)
	if _, err := e.RemoveDetail(order, entity.StageCutting, res.Detail.ID, "lead"); err != nil {
		t.Fatalf("RemoveDetail() error: %v", err)
	}
	if len(order.Task(entity.StageCutting).Details) != 0 {
		t.Fatal("detail still present after removal")
	}

	res = scanN(t, e, order, entity.StageCutting, "A1", 1)
	if res.Quantity != 1 {
		t.Errorf("Quantity after removal = %d, want 1", res.Quantity)
	}
}

func TestRemoveDetail_Unknown(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	_, err := e.RemoveDetail(order, entity.StageCutting, "missing", "lead")
	if !errors.Is(err, ErrDetailNotFound) {
		t.Fatalf("err = %v, want ErrDetailNotFound", err)
	}
}

func TestRecordScan_DownstreamReconciliation(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	scanN(t, e, order, entity.StageCutting, "A1", 2)
	forceComplete(order, entity.StageCutting)

	res := scanN(t, e, order, entity.StageEdgeBanding, "A1", 1)
	if res.Complete || res.Detail.Status != entity.DetailScanned {
		t.Errorf("after 1 of 2: complete=%v status=%s", res.Complete, res.Detail.Status)
	}
	res = scanN(t, e, order, entity.StageEdgeBanding, "A1", 1)
	if !res.Complete || res.Detail.Status != entity.DetailVerified {
		t.Errorf("after 2 of 2: complete=%v status=%s", res.Complete, res.Detail.Status)
	}

	_, err := e.RecordScan(order, entity.StageEdgeBanding, "A1", "worker-1")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if got := order.Task(entity.StageEdgeBanding).DetailByCode("A1").Quantity; got != 2 {
		t.Errorf("Quantity after rejected scan = %d, want 2", got)
	}

	_, err = e.RecordScan(order, entity.StageEdgeBanding, "ZZ", "worker-1")
	if !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("err = %v, want ErrUnknownUnit", err)
	}
}

func TestRecordScan_StageLocked(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	scanN(t, e, order, entity.StageCutting, "A1", 1)

	_, err := e.RecordScan(order, entity.StageEdgeBanding, "A1", "worker-1")
	if !errors.Is(err, ErrStageLocked) {
		t.Fatalf("err = %v, want ErrStageLocked", err)
	}
	details := errorbank.From(err).Details()
	if details["blocking_stage"] != string(entity.StageCutting) {
		t.Errorf("blocking_stage = %v, want %s", details["blocking_stage"], entity.StageCutting)
	}
}

func TestRecordScan_RejectsCompletedTask(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	forceComplete(order, entity.StageCutting)

	_, err := e.RecordScan(order, entity.StageCutting, "A1", "worker-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestRecordScan_ResumesPausedTask(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	order.Task(entity.StageCutting).Status = entity.TaskPaused

	scanN(t, e, order, entity.StageCutting, "A1", 1)
	if got := order.Task(entity.StageCutting).Status; got != entity.TaskInProgress {
		t.Errorf("Status = %s, want %s", got, entity.TaskInProgress)
	}
}

func TestRecordScan_RejectsBlankCode(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	_, err := e.RecordScan(order, entity.StageCutting, "   ", "worker-1")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestRecordScan_KitAssemblyIsFreeForm(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	res := scanN(t, e, order, entity.StageKitAssembly, "HINGE-35", 5)
	if res.Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", res.Quantity)
	}
}

func TestMarkReturnAfterEdge(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)
	res := scanN(t, e, order, entity.StageCutting, "A1", 1)

	out, err := e.MarkReturnAfterEdge(order, res.Detail.ID, true, "lead")
	if err != nil {
		t.Fatalf("MarkReturnAfterEdge() error: %v", err)
	}
	if !out.Detail.ReturnAfterEdge {
		t.Error("ReturnAfterEdge not set")
	}
	if _, err := e.MarkReturnAfterEdge(order, "nope", true, "lead"); !errors.Is(err, ErrDetailNotFound) {
		t.Errorf("err = %v, want ErrDetailNotFound", err)
	}
}

func TestResult_IsSnapshot(t *testing.T) {
	e := newTestEngine()
	order := newTestOrder(t, e)

	res := scanN(t, e, order, entity.StageCutting, "A1", 1)
	res.Task.Details[0].Quantity = 99
	if got := order.Task(entity.StageCutting).Details[0].Quantity; got != 1 {
		t.Errorf("live quantity = %d after mutating snapshot, want 1", got)
	}
}
