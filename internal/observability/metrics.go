package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/propfolio/propfolio/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	authLoginCounter      metric.Int64Counter
	sessionEventCounter   metric.Int64Counter
	paymentEventCounter   metric.Int64Counter
	repositoryOpCounter   metric.Int64Counter
	processorCallCounter  metric.Int64Counter
	accessTokenValidation metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		registerAppMetrics(mp)
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)
	if err := registerAppMetrics(mp); err != nil {
		return nil, err
	}

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func registerAppMetrics(mp *sdkmetric.MeterProvider) error {
	meter := mp.Meter("propfolio")
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return err
	}
	sessionCounter, err := meter.Int64Counter("session.events")
	if err != nil {
		return err
	}
	paymentCounter, err := meter.Int64Counter("payment.events")
	if err != nil {
		return err
	}
	repoCounter, err := meter.Int64Counter("repository.operations")
	if err != nil {
		return err
	}
	processorCounter, err := meter.Int64Counter("payment_processor.calls")
	if err != nil {
		return err
	}
	tokenCounter, err := meter.Int64Counter("auth.access_token.validations")
	if err != nil {
		return err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authLoginCounter:      loginCounter,
		sessionEventCounter:   sessionCounter,
		paymentEventCounter:   paymentCounter,
		repositoryOpCounter:   repoCounter,
		processorCallCounter:  processorCounter,
		accessTokenValidation: tokenCounter,
	}
	metricsMu.Unlock()
	return nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", status)))
}

func RecordSessionEvent(ctx context.Context, event, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

func RecordPaymentEvent(ctx context.Context, event, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.paymentEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordProcessorCall(ctx context.Context, operation, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.processorCallCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	m := current()
	if m == nil {
		return
	}
	m.accessTokenValidation.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}
