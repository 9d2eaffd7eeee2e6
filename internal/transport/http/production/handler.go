package production

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/millflow/internal/dto"
	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/presentation/http/response"
	service "github.com/Additional-Code/millflow/internal/service/production"
	"github.com/Additional-Code/millflow/internal/tracking"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/millflow/transport/http/production")

// ActorHeader names the header carrying the acting user's id.
const ActorHeader = "X-Actor-ID"

// Handler exposes production endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a production Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	orders := e.Group("/orders")
	orders.POST("", h.createOrder)
	orders.GET("/:id", h.getOrder)
	orders.GET("/:id/shipment", h.shipment)
	orders.PATCH("/:id/details/:detailID/return-after-edge", h.returnAfterEdge)
	orders.POST("/:id/details/:detailID/split", h.split)

	stages := orders.Group("/:id/stages/:stage")
	stages.GET("", h.stage)
	stages.POST("/scans", h.scan)
	stages.DELETE("/details/:detailID", h.removeDetail)
	stages.POST("/rework", h.rework)
	stages.POST("/packages", h.createPackage)
	stages.DELETE("/packages/:packageID", h.deletePackage)
	stages.POST("/packages/:packageID/details", h.addToPackage)
	stages.POST("/complete", h.complete)
	stages.PATCH("/status", h.updateStatus)
	stages.PUT("/assignment", h.assign)
}

func (h *Handler) createOrder(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(invalidPayload(err)).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.String("order.number", payload.Number)))
	defer span.End()

	order, err := h.svc.CreateOrder(ctx, service.CreateOrderInput{
		Number:    payload.Number,
		Customer:  payload.Customer,
		CRMTaskID: payload.CRMTaskID,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.OrderResponse{Order: order, Progress: tracking.Progress(order)}).Build()
}

func (h *Handler) getOrder(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.OrderResponse{Order: order, Progress: tracking.Progress(order)}).Build()
}

func (h *Handler) shipment(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.shipment", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	manifest, err := h.svc.Shipment(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := dto.ShipmentResponse{OrderID: id, Packages: manifest, Total: len(manifest)}
	if out.Packages == nil {
		out.Packages = []tracking.ManifestEntry{}
	}
	for _, entry := range manifest {
		if entry.Shipped {
			out.Loaded++
		}
	}
	return b.WithData(out).Build()
}

func (h *Handler) stage(c echo.Context) error {
	b := response.New(c)
	stage, err := tracking.ParseStage(c.Param("stage"))
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := h.start(c, "orders.stage", stage)
	defer span.End()

	view, err := h.svc.Stage(ctx, c.Param("id"), stage)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(view).Build()
}

func (h *Handler) scan(c echo.Context) error {
	var payload dto.ScanRequest
	return h.stageMutation(c, "orders.scan", &payload, func(r stageRequest) (tracking.Result, error) {
		return h.svc.RecordScan(r.ctx, r.orderID, r.stage, payload.Code, r.actor)
	})
}

func (h *Handler) removeDetail(c echo.Context) error {
	return h.stageMutation(c, "orders.removeDetail", nil, func(r stageRequest) (tracking.Result, error) {
		return h.svc.RemoveDetail(r.ctx, r.orderID, r.stage, c.Param("detailID"), r.actor)
	})
}

func (h *Handler) rework(c echo.Context) error {
	var payload dto.ReworkRequest
	return h.stageMutation(c, "orders.rework", &payload, func(r stageRequest) (tracking.Result, error) {
		target, err := tracking.ParseStage(payload.TargetStage)
		if err != nil {
			return tracking.Result{}, err
		}
		return h.svc.ReturnToStage(r.ctx, r.orderID, payload.Code, r.stage, target, payload.Reason, r.actor)
	})
}

func (h *Handler) createPackage(c echo.Context) error {
	var payload dto.CreatePackageRequest
	return h.stageMutationStatus(c, "orders.createPackage", http.StatusCreated, &payload, func(r stageRequest) (tracking.Result, error) {
		typ := entity.PackageType(strings.ToUpper(strings.TrimSpace(payload.Type)))
		return h.svc.CreatePackage(r.ctx, r.orderID, r.stage, payload.Name, typ, r.actor)
	})
}

func (h *Handler) deletePackage(c echo.Context) error {
	return h.stageMutation(c, "orders.deletePackage", nil, func(r stageRequest) (tracking.Result, error) {
		return h.svc.DeletePackage(r.ctx, r.orderID, r.stage, c.Param("packageID"), r.actor)
	})
}

func (h *Handler) addToPackage(c echo.Context) error {
	var payload dto.ScanRequest
	return h.stageMutation(c, "orders.addToPackage", &payload, func(r stageRequest) (tracking.Result, error) {
		return h.svc.AddDetailToPackage(r.ctx, r.orderID, r.stage, c.Param("packageID"), payload.Code, r.actor)
	})
}

func (h *Handler) complete(c echo.Context) error {
	var payload dto.CompleteRequest
	return h.stageMutation(c, "orders.complete", &payload, func(r stageRequest) (tracking.Result, error) {
		return h.svc.RequestCompletion(r.ctx, r.orderID, r.stage, payload.ConfirmShortage, r.actor)
	})
}

func (h *Handler) updateStatus(c echo.Context) error {
	var payload dto.StatusRequest
	return h.stageMutation(c, "orders.updateStatus", &payload, func(r stageRequest) (tracking.Result, error) {
		status := entity.TaskStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		return h.svc.UpdateStatus(r.ctx, r.orderID, r.stage, status, r.actor)
	})
}

func (h *Handler) assign(c echo.Context) error {
	var payload dto.AssignmentRequest
	return h.stageMutation(c, "orders.assign", &payload, func(r stageRequest) (tracking.Result, error) {
		return h.svc.Assign(r.ctx, r.orderID, r.stage, tracking.Assignment{
			Assignee:    payload.Assignee,
			Helpers:     payload.Helpers,
			PlannedDate: payload.PlannedDate,
		}, r.actor)
	})
}

func (h *Handler) returnAfterEdge(c echo.Context) error {
	b := response.New(c)
	actor, err := actorFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.ReturnAfterEdgeRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(invalidPayload(err)).Build()
	}
	if payload.ReturnAfterEdge == nil {
		return b.WithError(errorbank.BadRequest("return_after_edge is required", errorbank.WithCode(tracking.CodeInvalidArgument))).Build()
	}

	ctx, span := h.start(c, "orders.returnAfterEdge", entity.StageCutting)
	defer span.End()

	res, err := h.svc.MarkReturnAfterEdge(ctx, c.Param("id"), c.Param("detailID"), *payload.ReturnAfterEdge, actor)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromResult(res)).Build()
}

func (h *Handler) split(c echo.Context) error {
	b := response.New(c)
	actor, err := actorFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.SplitRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(invalidPayload(err)).Build()
	}

	ctx, span := h.start(c, "orders.split", entity.StageCutting)
	defer span.End()

	res, err := h.svc.Split(ctx, c.Param("id"), c.Param("detailID"), payload.ChildCount, payload.Prefix, actor)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromResult(res)).Build()
}
