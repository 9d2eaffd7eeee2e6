package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/millflow/internal/cache"
	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/messaging"
	"github.com/Additional-Code/millflow/internal/observability"
	repo "github.com/Additional-Code/millflow/internal/repository/production"
	"github.com/Additional-Code/millflow/internal/tracking"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/millflow/service/production")

const (
	CodeOrderNotFound errorbank.Code = "order_not_found"
	CodeOrderExists   errorbank.Code = "order_exists"
)

// EventTypeHeader carries the event type on every published message.
const EventTypeHeader = "event_type"

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, order *entity.Order) error
	Get(ctx context.Context, id string) (*entity.Order, error)
	GetByNumber(ctx context.Context, number string) (*entity.Order, error)
	SaveTasks(ctx context.Context, order *entity.Order, stages []entity.Stage) error
}

// Service loads orders, runs tracking engine operations against them and
// persists, caches and publishes the outcome.
type Service struct {
	repo      Repository
	engine    *tracking.Engine
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	metrics   *observability.ProductionMetrics
	unitRates map[entity.Stage]float64
	locks     *stageLocks
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository Repository
	Engine     *tracking.Engine
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
	Metrics    *observability.ProductionMetrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      p.Repository,
		engine:    p.Engine,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger.Named("production"),
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		metrics:   p.Metrics,
		unitRates: p.Config.Production.UnitRates,
		locks:     newStageLocks(),
	}
}

// CreateOrderInput describes a new order.
type CreateOrderInput struct {
	Number    string
	Customer  string
	CRMTaskID string
}

// CreateOrder opens an order with one pending task per stage.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductionService.CreateOrder", trace.WithAttributes(attribute.String("order.number", in.Number)))
	defer span.End()

	order, err := s.engine.NewOrder(tracking.OrderDraft{
		Number:    in.Number,
		Customer:  in.Customer,
		CRMTaskID: in.CRMTaskID,
		UnitRates: s.unitRates,
	})
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock("number/" + order.Number)
	defer unlock()

	if _, err := s.repo.GetByNumber(ctx, order.Number); err == nil {
		return nil, errorbank.Conflict("order number already exists",
			errorbank.WithCode(CodeOrderExists),
			errorbank.WithDetail("number", order.Number),
		)
	} else if !errors.Is(err, repo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to check order number", errorbank.WithCause(err))
	}

	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("order.id", order.ID), zap.Error(err))
	}
	s.logger.Info("order created", zap.String("order.id", order.ID), zap.String("order.number", order.Number))

	return order, nil
}

// GetOrder retrieves an order aggregate, consulting cache when available.
func (s *Service) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductionService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("order.id", id), zap.Error(err))
	}

	order, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("order.id", id), zap.Error(err))
	}
	return order, nil
}

// StageView is what a worker sees when opening a stage.
type StageView struct {
	OrderID     string                 `json:"order_id"`
	OrderNumber string                 `json:"order_number"`
	Task        *entity.Task           `json:"task"`
	Expected    []entity.Detail        `json:"expected"`
	Progress    tracking.StageProgress `json:"progress"`
}

// Stage returns the task at stage together with its projected units.
func (s *Service) Stage(ctx context.Context, orderID string, stage entity.Stage) (*StageView, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	expected, err := tracking.Project(order, stage)
	if err != nil {
		return nil, err
	}
	view := &StageView{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Task:        order.Task(stage).Clone(),
		Expected:    expected,
	}
	for _, p := range tracking.Progress(order) {
		if p.Stage == stage {
			view.Progress = p
		}
	}
	return view, nil
}

// Progress reports every stage of the order.
func (s *Service) Progress(ctx context.Context, orderID string) ([]tracking.StageProgress, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return tracking.Progress(order), nil
}

// Shipment lists the packages the shipment stage must load.
func (s *Service) Shipment(ctx context.Context, orderID string) ([]tracking.ManifestEntry, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return tracking.ShipmentManifest(order), nil
}

// RecordScan registers one scanned code at stage.
func (s *Service) RecordScan(ctx context.Context, orderID string, stage entity.Stage, code, actor string) (tracking.Result, error) {
	res, err := s.mutate(ctx, "scan", orderID, stage, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.RecordScan(order, stage, code, actor)
	})
	if err == nil {
		s.metrics.Scan(ctx, string(stage))
	}
	return res, err
}

// RemoveDetail deletes a detail record at stage.
func (s *Service) RemoveDetail(ctx context.Context, orderID string, stage entity.Stage, detailID, actor string) (tracking.Result, error) {
	return s.mutateStages(ctx, "remove_detail", orderID, shipmentBound(stage), func(order *entity.Order) (tracking.Result, error) {
		return s.engine.RemoveDetail(order, stage, detailID, actor)
	})
}

// MarkReturnAfterEdge flags or unflags a cutting detail for splitting.
func (s *Service) MarkReturnAfterEdge(ctx context.Context, orderID, detailID string, flag bool, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "return_after_edge", orderID, entity.StageCutting, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.MarkReturnAfterEdge(order, detailID, flag, actor)
	})
}

// Split replaces a cutting detail with childCount single-unit children.
func (s *Service) Split(ctx context.Context, orderID, detailID string, childCount int, prefix, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "split", orderID, entity.StageCutting, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.Split(order, detailID, childCount, prefix, actor)
	})
}

// ReturnToStage sends a defective unit from source back to target.
func (s *Service) ReturnToStage(ctx context.Context, orderID, code string, source, target entity.Stage, reason, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "rework", orderID, target, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.ReturnToStage(order, code, source, target, reason, actor)
	})
}

// CreatePackage opens a package at stage.
func (s *Service) CreatePackage(ctx context.Context, orderID string, stage entity.Stage, name string, typ entity.PackageType, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "create_package", orderID, stage, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.CreatePackage(order, stage, name, typ, actor)
	})
}

// DeletePackage dissolves an unshipped package at stage.
func (s *Service) DeletePackage(ctx context.Context, orderID string, stage entity.Stage, packageID, actor string) (tracking.Result, error) {
	return s.mutateStages(ctx, "delete_package", orderID, shipmentBound(stage), func(order *entity.Order) (tracking.Result, error) {
		return s.engine.DeletePackage(order, stage, packageID, actor)
	})
}

// AddDetailToPackage scans code into a package at stage.
func (s *Service) AddDetailToPackage(ctx context.Context, orderID string, stage entity.Stage, packageID, code, actor string) (tracking.Result, error) {
	res, err := s.mutate(ctx, "package_detail", orderID, stage, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.AddDetailToPackage(order, stage, packageID, code, actor)
	})
	if err == nil {
		s.metrics.Scan(ctx, string(stage))
	}
	return res, err
}

// RequestCompletion finishes the task at stage.
func (s *Service) RequestCompletion(ctx context.Context, orderID string, stage entity.Stage, confirmShortage bool, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "complete", orderID, stage, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.RequestCompletion(order, stage, confirmShortage, actor)
	})
}

// UpdateStatus starts, pauses or resumes the task at stage.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, stage entity.Stage, status entity.TaskStatus, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "update_status", orderID, stage, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.UpdateStatus(order, stage, status, actor)
	})
}

// Assign sets the responsible worker, helpers and planned date at stage.
func (s *Service) Assign(ctx context.Context, orderID string, stage entity.Stage, a tracking.Assignment, actor string) (tracking.Result, error) {
	return s.mutate(ctx, "assign", orderID, stage, func(order *entity.Order) (tracking.Result, error) {
		return s.engine.Assign(order, stage, a, actor)
	})
}

// mutate runs fn against a freshly loaded order while holding the lock for
// (order, stage), then saves the touched tasks and publishes the events.
func (s *Service) mutate(ctx context.Context, op, orderID string, stage entity.Stage, fn func(*entity.Order) (tracking.Result, error)) (tracking.Result, error) {
	return s.mutateStages(ctx, op, orderID, []entity.Stage{stage}, fn)
}

// mutateStages is mutate for operations that read or guard more than one
// stage. The first stage is the one the operation acts on.
func (s *Service) mutateStages(ctx context.Context, op, orderID string, stages []entity.Stage, fn func(*entity.Order) (tracking.Result, error)) (tracking.Result, error) {
	stage := stages[0]
	ctx, span := serviceTracer.Start(ctx, "ProductionService."+op, trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("stage", string(stage)),
	))
	defer span.End()

	unlock := s.locks.lockStages(orderID, stages...)
	defer unlock()

	order, err := s.load(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return tracking.Result{}, err
	}

	res, err := fn(order)
	if err != nil {
		code := string(errorbank.CodeOf(err))
		s.metrics.Rejection(ctx, op, code)
		span.SetStatus(codes.Error, code)
		s.logger.Debug("operation rejected",
			zap.String("op", op),
			zap.String("order.id", orderID),
			zap.String("stage", string(stage)),
			zap.String("code", code),
			zap.Error(err),
		)
		return tracking.Result{}, err
	}

	if len(res.Touched) > 0 {
		if err := s.repo.SaveTasks(ctx, order, res.Touched); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return tracking.Result{}, errorbank.Internal("failed to save order", errorbank.WithCause(err))
		}
		s.invalidate(ctx, orderID)
	}

	s.emit(ctx, res.Events)
	return res, nil
}

// shipmentBound adds the shipment stage to package-holding stages. Their
// package changes check what shipment has loaded and must not race it.
func shipmentBound(stage entity.Stage) []entity.Stage {
	if stage == entity.StagePackaging || stage == entity.StageKitAssembly {
		return []entity.Stage{stage, entity.StageShipment}
	}
	return []entity.Stage{stage}
}

func (s *Service) load(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found",
			errorbank.WithCode(CodeOrderNotFound),
			errorbank.WithDetail("order_id", id),
		)
	}
	if err != nil {
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

func (s *Service) emit(ctx context.Context, events []tracking.Event) {
	for _, ev := range events {
		if ev.Type == tracking.EventTaskCompleted {
			s.metrics.Completion(ctx, string(ev.Stage))
		}
		s.logger.Info("production event",
			zap.String("type", string(ev.Type)),
			zap.String("order.id", ev.OrderID),
			zap.String("stage", string(ev.Stage)),
			zap.String("code", ev.Code),
			zap.String("actor", ev.Actor),
		)
		s.publish(ctx, ev)
	}
}

func (s *Service) publish(ctx context.Context, ev tracking.Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("marshal production event", zap.Error(err))
		return
	}
	header := messaging.Header{Key: EventTypeHeader, Value: string(ev.Type)}
	if err := s.publisher.Publish(ctx, []byte(ev.OrderID), payload, header); err != nil {
		s.logger.Error("publish production event",
			zap.String("type", string(ev.Type)),
			zap.String("topic", s.messaging.topic),
			zap.Error(err),
		)
	}
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("orders:%s", strings.TrimSpace(id))
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache invalidate failed", zap.String("order.id", id), zap.Error(err))
	}
}
