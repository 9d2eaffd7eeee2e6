package production

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/millflow/internal/database"
	"github.com/Additional-Code/millflow/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/millflow/repository/production")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository persists order aggregates: the order row, its tasks and their
// details and packages.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create inserts a new order with all of its tasks in one transaction.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "ProductionRepository.Create", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Tasks) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&order.Tasks).Exec(ctx); err != nil {
			return err
		}
		for _, task := range order.Tasks {
			if err := insertChildren(ctx, tx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Get loads the full aggregate by id using the read replica when available.
func (r *Repository) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "ProductionRepository.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := r.load(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("o.id = ?", id)
	})
	if err != nil {
		recordLoadErr(span, err)
		return nil, err
	}
	return order, nil
}

// GetByNumber loads the full aggregate by order number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "ProductionRepository.GetByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	order, err := r.load(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("o.number = ?", number)
	})
	if err != nil {
		recordLoadErr(span, err)
		return nil, err
	}
	return order, nil
}

// SaveTasks writes the listed stages of order back in one transaction. Each
// task row is updated and its details and packages are replaced wholesale.
func (r *Repository) SaveTasks(ctx context.Context, order *entity.Order, stages []entity.Stage) error {
	ctx, span := repoTracer.Start(ctx, "ProductionRepository.SaveTasks", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("tasks", len(stages)),
	))
	defer span.End()

	order.UpdatedAt = time.Now().UTC()
	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(order).Column("updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		for _, stage := range stages {
			task := order.Task(stage)
			if task == nil {
				continue
			}
			if _, err := tx.NewUpdate().Model(task).WherePK().Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDelete().Model((*entity.Detail)(nil)).Where("task_id = ?", task.ID).Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDelete().Model((*entity.Package)(nil)).Where("task_id = ?", task.ID).Exec(ctx); err != nil {
				return err
			}
			if err := insertChildren(ctx, tx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
	}
	return err
}

// List returns orders without their tasks, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "ProductionRepository.List")
	defer span.End()

	var orders []*entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Order("o.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

func (r *Repository) load(ctx context.Context, where func(*bun.SelectQuery) *bun.SelectQuery) (*entity.Order, error) {
	order := new(entity.Order)
	q := r.reader.NewSelect().Model(order).
		Relation("Tasks").
		Relation("Tasks.Details", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position")
		}).
		Relation("Tasks.Packages", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position")
		})
	err := where(q).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(order.Tasks, func(i, j int) bool {
		return order.Tasks[i].Stage.Index() < order.Tasks[j].Stage.Index()
	})
	for _, task := range order.Tasks {
		if task.Details == nil {
			task.Details = []*entity.Detail{}
		}
		if task.Packages == nil {
			task.Packages = []*entity.Package{}
		}
		for _, p := range task.Packages {
			if p.Codes == nil {
				p.Codes = []string{}
			}
		}
	}
	return order, nil
}

func insertChildren(ctx context.Context, tx bun.Tx, task *entity.Task) error {
	for i, d := range task.Details {
		d.TaskID = task.ID
		d.Position = i
	}
	for i, p := range task.Packages {
		p.TaskID = task.ID
		p.Position = i
	}
	if len(task.Details) > 0 {
		if _, err := tx.NewInsert().Model(&task.Details).Exec(ctx); err != nil {
			return err
		}
	}
	if len(task.Packages) > 0 {
		if _, err := tx.NewInsert().Model(&task.Packages).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func recordLoadErr(span trace.Span, err error) {
	if errors.Is(err, ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "select failed")
}
