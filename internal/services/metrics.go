package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "directoryhub/backend/internal/services"

type serviceMetrics struct {
	generations metric.Int64Counter
	reviews     metric.Int64Counter
	submissions metric.Int64Counter
}

func newServiceMetrics() *serviceMetrics {
	meter := otel.Meter(instrumentationName)
	return &serviceMetrics{
		generations: counter(meter, "schema_generations_total", "Completed schema generation cycles"),
		reviews:     counter(meter, "listing_reviews_total", "Listing review decisions"),
		submissions: counter(meter, "listing_submissions_total", "Listings submitted for review"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func (m *serviceMetrics) generation(ctx context.Context, outcome string, mockMode bool) {
	m.generations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("mock_mode", mockMode),
	))
}

func (m *serviceMetrics) review(ctx context.Context, decision string) {
	m.reviews.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}

func (m *serviceMetrics) submission(ctx context.Context) {
	m.submissions.Add(ctx, 1)
}
