package usecase

import (
	"context"
	"errors"

	"github.com/mobilemcp/droidbridge/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	// ErrUnknownTool is returned when a tools/call names a tool that is not
	// registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingArgument is returned when a required tool argument is absent
	// or empty. Validation happens before the backend is invoked.
	ErrMissingArgument = errors.New("missing required argument")
)

// AppController is the contract of the IDE-side run-configuration manager.
// Its operations are internally asynchronous in the IDE; implementations
// must not return until the operation has fully completed.
type AppController interface {
	// Start launches the app for the given project (empty means the default
	// project).
	Start(ctx context.Context, projectPath string) (domain.ExecutionResult, error)

	// Stop terminates the running app.
	Stop(ctx context.Context, projectPath string) (domain.ExecutionResult, error)

	// Debug launches the app under the debugger.
	Debug(ctx context.Context, projectPath string) (domain.ExecutionResult, error)

	// ListConfigurations returns the names of the project's run
	// configurations.
	ListConfigurations(ctx context.Context, projectPath string) ([]string, error)

	// SelectConfiguration makes the named run configuration the active one.
	SelectConfiguration(ctx context.Context, name, projectPath string) (domain.ExecutionResult, error)
}
