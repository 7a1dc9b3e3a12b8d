package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics records authentication operation outcomes
type AuthMetrics struct {
	operations metric.Int64Counter
}

// NewAuthMetrics creates auth metrics on the global meter provider
func NewAuthMetrics(serviceName string) (*AuthMetrics, error) {
	meter := otel.Meter(serviceName)

	operations, err := meter.Int64Counter(
		"auth_operations_total",
		metric.WithDescription("Authentication operations by operation and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth operations counter: %w", err)
	}

	return &AuthMetrics{operations: operations}, nil
}

// Record counts one authentication operation outcome
func (m *AuthMetrics) Record(ctx context.Context, operation, result string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
