package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mobilemcp/droidbridge/internal/domain"
)

const tracerName = "github.com/mobilemcp/droidbridge/internal/usecase"

// LifecycleUseCase orchestrates app lifecycle operations against the
// controller. Controller errors never escape: every operation yields an
// ExecutionResult whose Success flag carries the outcome.
type LifecycleUseCase struct {
	controller   AppController
	restartGrace time.Duration
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewLifecycleUseCase creates a new LifecycleUseCase. restartGrace is the
// pause between the stop and start halves of a rerun.
func NewLifecycleUseCase(controller AppController, restartGrace time.Duration, logger *slog.Logger) *LifecycleUseCase {
	return &LifecycleUseCase{
		controller:   controller,
		restartGrace: restartGrace,
		tracer:       otel.Tracer(tracerName),
		logger:       logger.With("usecase", "Lifecycle"),
	}
}

// Start launches the app.
func (uc *LifecycleUseCase) Start(ctx context.Context, projectPath string) domain.ExecutionResult {
	return uc.run(ctx, "start", projectPath, uc.controller.Start)
}

// Stop terminates the running app.
func (uc *LifecycleUseCase) Stop(ctx context.Context, projectPath string) domain.ExecutionResult {
	return uc.run(ctx, "stop", projectPath, uc.controller.Stop)
}

// Debug launches the app under the debugger.
func (uc *LifecycleUseCase) Debug(ctx context.Context, projectPath string) domain.ExecutionResult {
	return uc.run(ctx, "debug", projectPath, uc.controller.Debug)
}

// Rerun stops the app, waits for process teardown to settle, then starts it
// again. Start is always attempted, even when stop fails: a stale or already
// dead process must not prevent a fresh launch. The overall result is start's
// result; only when both halves fail does the message carry both failure
// texts so the caller can tell which half broke.
func (uc *LifecycleUseCase) Rerun(ctx context.Context, projectPath string) domain.ExecutionResult {
	ctx, span := uc.tracer.Start(ctx, "lifecycle.rerun",
		trace.WithAttributes(attribute.String("project_path", projectPath)))
	defer span.End()

	stopRes := uc.Stop(ctx, projectPath)
	if !stopRes.Success {
		uc.logger.Warn("Stop half of rerun failed, attempting start anyway.",
			slog.String("message", stopRes.Message))
	}

	time.Sleep(uc.restartGrace)

	startRes := uc.Start(ctx, projectPath)
	if startRes.Success {
		return startRes
	}
	if !stopRes.Success {
		return domain.Failure(fmt.Sprintf("rerun failed: stop: %s; start: %s", stopRes.Message, startRes.Message))
	}
	return startRes
}

// Configurations lists the project's run configuration names.
func (uc *LifecycleUseCase) Configurations(ctx context.Context, projectPath string) ([]string, error) {
	ctx, span := uc.tracer.Start(ctx, "lifecycle.configurations")
	defer span.End()

	configs, err := uc.controller.ListConfigurations(ctx, projectPath)
	if err != nil {
		uc.logger.Error("Failed to list run configurations.", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list run configurations: %w", err)
	}
	return configs, nil
}

// SelectConfiguration makes the named run configuration active. An empty
// name is rejected before the controller is invoked.
func (uc *LifecycleUseCase) SelectConfiguration(ctx context.Context, name, projectPath string) domain.ExecutionResult {
	if name == "" {
		return domain.Failure("configurationName is required")
	}

	ctx, span := uc.tracer.Start(ctx, "lifecycle.select_configuration",
		trace.WithAttributes(attribute.String("configuration", name)))
	defer span.End()

	res, err := uc.controller.SelectConfiguration(ctx, name, projectPath)
	if err != nil {
		uc.logger.Error("Controller call failed.", slog.String("op", "select_configuration"), slog.Any("error", err))
		return domain.Failure(err.Error())
	}
	return res
}

// run wraps a simple lifecycle call with tracing, logging, and error
// normalization.
func (uc *LifecycleUseCase) run(
	ctx context.Context,
	op, projectPath string,
	call func(context.Context, string) (domain.ExecutionResult, error),
) domain.ExecutionResult {
	ctx, span := uc.tracer.Start(ctx, "lifecycle."+op,
		trace.WithAttributes(attribute.String("project_path", projectPath)))
	defer span.End()

	log := uc.logger.With(slog.String("op", op))
	log.Info("Invoking controller.")

	res, err := call(ctx, projectPath)
	if err != nil {
		log.Error("Controller call failed.", slog.Any("error", err))
		return domain.Failure(err.Error())
	}
	if !res.Success {
		log.Warn("Controller reported failure.", slog.String("message", res.Message))
	}
	return res
}
