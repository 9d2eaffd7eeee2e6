package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/database"
	"github.com/Additional-Code/millflow/internal/entity"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.Database{Driver: "sqlite"}, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*entity.Order)(nil), (*entity.Task)(nil), (*entity.Detail)(nil), (*entity.Package)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return NewRepository(&database.Connections{Writer: db, Reader: db})
}

func sampleOrder(number string) *entity.Order {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	order := &entity.Order{ID: "order-" + number, Number: number, Customer: "Kitchen Co", CreatedAt: now, UpdatedAt: now}
	for _, stage := range entity.Stages {
		order.Tasks = append(order.Tasks, &entity.Task{
			ID:       fmt.Sprintf("%s-%s", order.ID, stage),
			OrderID:  order.ID,
			Stage:    stage,
			Status:   entity.TaskPending,
			Details:  []*entity.Detail{},
			Packages: []*entity.Package{},
		})
	}
	return order
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := sampleOrder("1001")
	cutting := order.Task(entity.StageCutting)
	cutting.Details = append(cutting.Details, &entity.Detail{ID: "d-a1", Code: "A1", Quantity: 3, PlanQuantity: 3, Status: entity.DetailScanned})
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Number != "1001" || len(got.Tasks) != len(entity.Stages) {
		t.Fatalf("order = %+v", got)
	}
	for i, task := range got.Tasks {
		if task.Stage != entity.Stages[i] {
			t.Errorf("task[%d].Stage = %s, want %s", i, task.Stage, entity.Stages[i])
		}
		if task.Details == nil || task.Packages == nil {
			t.Errorf("task[%d] has nil collections", i)
		}
	}
	d := got.Task(entity.StageCutting).DetailByCode("A1")
	if d == nil || d.Quantity != 3 || d.TaskID != cutting.ID {
		t.Errorf("A1 = %+v", d)
	}

	byNumber, err := repo.GetByNumber(ctx, "1001")
	if err != nil {
		t.Fatalf("GetByNumber() error: %v", err)
	}
	if byNumber.ID != order.ID {
		t.Errorf("GetByNumber().ID = %s, want %s", byNumber.ID, order.ID)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByNumber(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByNumber() err = %v, want ErrNotFound", err)
	}
}

func TestRepository_SaveTasksReplacesChildren(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := sampleOrder("1002")
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	started := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	packaging := order.Task(entity.StagePackaging)
	packaging.Status = entity.TaskInProgress
	packaging.StartedAt = &started
	packaging.PackageSequence = 2
	packaging.Helpers = []string{"olga"}
	packaging.Details = []*entity.Detail{
		{ID: "d-b2", Code: "B2", Quantity: 1, PlanQuantity: 1, Status: entity.DetailVerified},
		{ID: "d-c3", Code: "C3", Quantity: 0, PlanQuantity: 2, Status: entity.DetailPending},
	}
	packaging.Packages = []*entity.Package{
		{ID: "p-2", Name: "Package 2", QR: "P-1002-2", Sequence: 2, Type: entity.PackageFurniture, Codes: []string{"B2"}, CreatedAt: started},
	}
	if err := repo.SaveTasks(ctx, order, []entity.Stage{entity.StagePackaging}); err != nil {
		t.Fatalf("SaveTasks() error: %v", err)
	}

	got, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	task := got.Task(entity.StagePackaging)
	if task.Status != entity.TaskInProgress || task.PackageSequence != 2 || task.StartedAt == nil {
		t.Errorf("task = %+v", task)
	}
	if len(task.Helpers) != 1 || task.Helpers[0] != "olga" {
		t.Errorf("Helpers = %v", task.Helpers)
	}
	if codes := []string{task.Details[0].Code, task.Details[1].Code}; codes[0] != "B2" || codes[1] != "C3" {
		t.Errorf("detail order = %v", codes)
	}
	if len(task.Packages) != 1 || !task.Packages[0].Contains("B2") {
		t.Errorf("packages = %+v", task.Packages)
	}

	// Dropping the package and a detail must remove their rows.
	packaging.Packages = []*entity.Package{}
	packaging.Details = packaging.Details[:1]
	if err := repo.SaveTasks(ctx, order, []entity.Stage{entity.StagePackaging}); err != nil {
		t.Fatalf("SaveTasks() error: %v", err)
	}
	got, err = repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	task = got.Task(entity.StagePackaging)
	if len(task.Details) != 1 || len(task.Packages) != 0 {
		t.Errorf("after second save: %d details, %d packages", len(task.Details), len(task.Packages))
	}
}

func TestRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, number := range []string{"2001", "2002", "2003"} {
		if err := repo.Create(ctx, sampleOrder(number)); err != nil {
			t.Fatalf("Create(%s) error: %v", number, err)
		}
	}

	orders, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("len = %d, want 2", len(orders))
	}
}
