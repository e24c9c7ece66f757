package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/propfolio/propfolio/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitLogging builds the process logger. With OTLP log export enabled
// the slog handler is bridged onto the OTel logger provider; otherwise
// records go to stdout as JSON.
func InitLogging(ctx context.Context, cfg *config.Config) (*slog.Logger, *sdklog.LoggerProvider, error) {
	if !cfg.OTELLogsEnabled {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)
		return logger, nil, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create otlp log exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create log resource: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	logger := slog.New(otelslog.NewHandler("propfolio", otelslog.WithLoggerProvider(lp)))
	slog.SetDefault(logger)
	return logger, lp, nil
}
