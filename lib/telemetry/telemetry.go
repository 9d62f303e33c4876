package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"tcgwatch/lib/configutil"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// InitSlog sets the default slog logger, verbose enables debug logs.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	errlist := []error{}
	if t.TracerProvider != nil {
		err := t.TracerProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if t.MeterProvider != nil {
		err := t.MeterProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

// SetupFromEnv reads the nearest telemetry.json5 (the working directory or one
// of its parents) and calls Setup with it. A config without any endpoint
// leaves the global providers untouched.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, err
	}
	if !config.Enabled() {
		return Telemetry{}, nil
	}
	return Setup(ctx, serviceName, config)
}

// Setup installs the global tracer and meter providers for every signal that
// has an endpoint configured.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName, config)
	if err != nil {
		return Telemetry{}, err
	}

	var t Telemetry
	t.TracerProvider, err = newTraceProvider(ctx, r, config)
	if err != nil {
		return Telemetry{}, err
	}
	t.MeterProvider, err = newMetricProvider(ctx, r, config)
	if err != nil {
		return Telemetry{}, errors.Join(err, t.Shutdown(ctx))
	}

	if t.TracerProvider != nil {
		otel.SetTracerProvider(t.TracerProvider)
	}
	if t.MeterProvider != nil {
		otel.SetMeterProvider(t.MeterProvider)
	}
	return t, nil
}
