package production

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/millflow/internal/dto"
	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/internal/presentation/http/response"
	"github.com/Additional-Code/millflow/internal/tracking"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

type stageRequest struct {
	ctx     context.Context
	orderID string
	stage   entity.Stage
	actor   string
}

func (h *Handler) stageMutation(c echo.Context, name string, payload any, fn func(stageRequest) (tracking.Result, error)) error {
	return h.stageMutationStatus(c, name, http.StatusOK, payload, fn)
}

// stageMutationStatus resolves actor, stage and payload for a
// /orders/:id/stages/:stage mutation and renders its result.
func (h *Handler) stageMutationStatus(c echo.Context, name string, status int, payload any, fn func(stageRequest) (tracking.Result, error)) error {
	b := response.New(c)

	actor, err := actorFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	stage, err := tracking.ParseStage(c.Param("stage"))
	if err != nil {
		return b.WithError(err).Build()
	}
	if payload != nil {
		if err := c.Bind(payload); err != nil {
			return b.WithError(invalidPayload(err)).Build()
		}
	}

	ctx, span := h.start(c, name, stage)
	defer span.End()

	res, err := fn(stageRequest{ctx: ctx, orderID: c.Param("id"), stage: stage, actor: actor})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(status).WithData(dto.FromResult(res)).Build()
}

func (h *Handler) start(c echo.Context, name string, stage entity.Stage) (context.Context, trace.Span) {
	return httpTracer.Start(c.Request().Context(), name, trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
		attribute.String("stage", string(stage)),
	))
}

func actorFrom(c echo.Context) (string, error) {
	actor := strings.TrimSpace(c.Request().Header.Get(ActorHeader))
	if actor == "" {
		return "", errorbank.BadRequest(ActorHeader+" header is required", errorbank.WithCode(tracking.CodeInvalidArgument))
	}
	return actor, nil
}

func invalidPayload(err error) error {
	return errorbank.BadRequest("invalid payload", errorbank.WithCode(tracking.CodeInvalidArgument), errorbank.WithCause(err))
}
