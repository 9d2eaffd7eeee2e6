package seeder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/service/production"
	"github.com/Additional-Code/millflow/internal/tracking"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

// Module provides the Seeder.
var Module = fx.Provide(New)

const seedActor = "seeder"

// OrderService is the slice of the production service the seeder drives.
type OrderService interface {
	CreateOrder(ctx context.Context, in production.CreateOrderInput) (*entity.Order, error)
	RecordScan(ctx context.Context, orderID string, stage entity.Stage, code, actor string) (tracking.Result, error)
	MarkReturnAfterEdge(ctx context.Context, orderID, detailID string, flag bool, actor string) (tracking.Result, error)
}

// Seeder loads demo production data for local setups.
type Seeder struct {
	svc    OrderService
	logger *zap.Logger
}

// New constructs a Seeder on top of the production service.
func New(svc *production.Service, logger *zap.Logger) *Seeder {
	return newSeeder(svc, logger)
}

func newSeeder(svc OrderService, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{svc: svc, logger: logger.Named("seeder")}
}

type demoScan struct {
	code  string
	count int
}

var demoCutting = []demoScan{
	{code: "A1", count: 2},
	{code: "B1", count: 4},
	{code: "C1", count: 1},
}

// Orders opens a demo order with a scanned cutting stage. Existing demo
// orders are left alone.
func (s *Seeder) Orders(ctx context.Context) error {
	order, err := s.svc.CreateOrder(ctx, production.CreateOrderInput{Number: "DEMO-1000", Customer: "Demo Kitchens"})
	if errorbank.CodeOf(err) == production.CodeOrderExists {
		s.logger.Info("demo order already present", zap.String("order.number", "DEMO-1000"))
		return nil
	}
	if err != nil {
		return err
	}

	var splitCandidate string
	for _, scan := range demoCutting {
		for i := 0; i < scan.count; i++ {
			res, err := s.svc.RecordScan(ctx, order.ID, entity.StageCutting, scan.code, seedActor)
			if err != nil {
				return err
			}
			if scan.code == "C1" {
				splitCandidate = res.Detail.ID
			}
		}
	}
	if splitCandidate != "" {
		if _, err := s.svc.MarkReturnAfterEdge(ctx, order.ID, splitCandidate, true, seedActor); err != nil {
			return err
		}
	}

	s.logger.Info("seeded demo order", zap.String("order.id", order.ID), zap.Int("details", len(demoCutting)))
	return nil
}
