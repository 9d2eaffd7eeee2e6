package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Additional-Code/millflow/production"

// ProductionMetrics counts shop-floor activity. A nil receiver records nothing.
type ProductionMetrics struct {
	scans       metric.Int64Counter
	rejections  metric.Int64Counter
	completions metric.Int64Counter
}

// NewProductionMetrics registers the production counters on the manager's
// meter provider.
func NewProductionMetrics(m *Manager) (*ProductionMetrics, error) {
	return newProductionMetrics(m.Meter(meterName))
}

func newProductionMetrics(meter metric.Meter) (*ProductionMetrics, error) {
	scans, err := meter.Int64Counter("millflow.scans",
		metric.WithDescription("Accepted unit and package scans"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, err
	}
	rejections, err := meter.Int64Counter("millflow.scan_rejections",
		metric.WithDescription("Operations rejected by the tracking engine"),
	)
	if err != nil {
		return nil, err
	}
	completions, err := meter.Int64Counter("millflow.completions",
		metric.WithDescription("Tasks moved to COMPLETED"),
	)
	if err != nil {
		return nil, err
	}
	return &ProductionMetrics{scans: scans, rejections: rejections, completions: completions}, nil
}

// Scan records one accepted scan at stage.
func (m *ProductionMetrics) Scan(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.scans.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// Rejection records an operation refused with code.
func (m *ProductionMetrics) Rejection(ctx context.Context, operation, code string) {
	if m == nil {
		return
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("code", code),
	))
}

// Completion records a task completing at stage.
func (m *ProductionMetrics) Completion(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
