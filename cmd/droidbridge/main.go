package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mobilemcp/droidbridge/configs"
	"github.com/mobilemcp/droidbridge/internal/adapter/inbound/httpserver"
	"github.com/mobilemcp/droidbridge/internal/adapter/inbound/mcpserver"
	"github.com/mobilemcp/droidbridge/internal/adapter/inbound/stdio"
	"github.com/mobilemcp/droidbridge/internal/adapter/outbound/devicecloud"
	"github.com/mobilemcp/droidbridge/internal/adapter/outbound/studio"
	"github.com/mobilemcp/droidbridge/internal/usecase"
)

const (
	serverName    = "droidbridge"
	serverVersion = "0.2.0"
)

func main() {
	// === Command Line Flags ===
	var transport string
	flag.StringVar(&transport, "transport", "stdio", "Transport mode: stdio, http, or cloud")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// === Logging ===
	logLevel := cfg.ParsedLogLevel()
	var logger *slog.Logger

	if transport == "stdio" || transport == "cloud" {
		// Both stdio transports own stdout; log to a file to keep the
		// protocol stream clean.
		logFile, err := os.OpenFile("/tmp/droidbridge.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel}))
		} else {
			logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel}))
		}
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}

	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", logLevel.String()), slog.String("transport", transport))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === Transport Mode Selection ===
	switch transport {
	case "stdio":
		controller := studio.NewClient(cfg.StudioBaseURL, cfg.HTTPClientTimeout, logger)
		lifecycle := usecase.NewLifecycleUseCase(controller, cfg.RestartGrace, logger)
		registry := usecase.NewLifecycleRegistry(lifecycle)

		loop := stdio.NewLoop(os.Stdin, os.Stdout, registry, serverName, serverVersion, logger)
		go func() {
			<-ctx.Done()
			loop.Stop()
		}()
		if err := loop.Run(ctx); err != nil {
			logger.Error("Stdio loop failed.", slog.Any("error", err))
			os.Exit(1)
		}

	case "http":
		controller := studio.NewClient(cfg.StudioBaseURL, cfg.HTTPClientTimeout, logger)
		lifecycle := usecase.NewLifecycleUseCase(controller, cfg.RestartGrace, logger)

		srv := httpserver.New(cfg.HTTPAddr, serverVersion, lifecycle, logger)
		if err := srv.Start(); err != nil {
			logger.Error("Failed to start control server.", slog.Any("error", err))
			os.Exit(1)
		}

		<-ctx.Done()
		if err := srv.Stop(); err != nil {
			logger.Error("Failed to stop control server.", slog.Any("error", err))
		}

	case "cloud":
		if cfg.DeviceCloudKey == "" {
			logger.Error("Cloud transport requires DROIDBRIDGE_DEVICE_CLOUD_API_KEY.")
			os.Exit(1)
		}
		client := devicecloud.NewClient(cfg.DeviceCloudURL, cfg.DeviceCloudKey, cfg.HTTPClientTimeout, logger)
		registry := devicecloud.NewRegistry(client)

		srv := mcpserver.New(serverName, serverVersion, registry, logger)
		if err := mcpserver.ServeStdio(ctx, srv); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("MCP stdio server failed.", slog.Any("error", err))
			os.Exit(1)
		}

	default:
		logger.Error("Invalid transport mode", slog.String("transport", transport))
		os.Exit(1)
	}
}

// initOtelProvider initializes the OpenTelemetry SDK and the OTLP trace
// exporter. Tracing is disabled when no endpoint is configured. The returned
// shutdown function must be called on exit.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	grpcOpts := []grpc.DialOption{}
	if cfg.OtelExporterOtlpInsecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		slog.Warn("Using insecure connection for OTLP exporter.")
	}

	conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serverName),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
