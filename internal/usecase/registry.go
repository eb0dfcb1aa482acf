package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mobilemcp/droidbridge/internal/domain"
)

// ToolHandler executes a tool call and returns a single line of
// human-readable text. An error return signals an invalid-argument failure;
// backend failures are reported in the text itself, not as errors.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (string, error)

// RegisteredTool pairs a tool descriptor with its handler.
type RegisteredTool struct {
	Tool    domain.Tool
	Handler ToolHandler
}

// Registry is the static tool table consumed by the stdio loop
// (tools/list, tools/call) and by the MCP server adapter. It is populated
// once at construction and never mutated.
type Registry struct {
	tools  []RegisteredTool
	byName map[string]RegisteredTool
}

// NewRegistry builds a registry from the given tools. Order is preserved for
// tools/list.
func NewRegistry(tools ...RegisteredTool) *Registry {
	byName := make(map[string]RegisteredTool, len(tools))
	for _, t := range tools {
		byName[t.Tool.Name] = t
	}
	return &Registry{tools: tools, byName: byName}
}

// Tools returns the descriptors in registration order.
func (r *Registry) Tools() []domain.Tool {
	out := make([]domain.Tool, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Tool
	}
	return out
}

// Entries returns the registered tools in registration order.
func (r *Registry) Entries() []RegisteredTool {
	return r.tools
}

// Call dispatches to the named tool's handler.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	t, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Handler(ctx, args)
}

// NewLifecycleRegistry builds the six android_* tools backed by the
// lifecycle use case.
func NewLifecycleRegistry(lc *LifecycleUseCase) *Registry {
	projectPathProp := domain.StringProp("Absolute path to the project root. Omit to target the currently open project.")

	simple := func(name, description string, call func(context.Context, string) domain.ExecutionResult) RegisteredTool {
		return RegisteredTool{
			Tool: domain.Tool{
				Name:        name,
				Description: description,
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"projectPath": projectPathProp,
				}),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				return formatResult(call(ctx, stringArg(args, "projectPath"))), nil
			},
		}
	}

	return NewRegistry(
		simple("android_start_app", "Start the Android app using the active run configuration.", lc.Start),
		simple("android_stop_app", "Stop the running Android app.", lc.Stop),
		simple("android_rerun_app", "Stop the Android app, then start it again.", lc.Rerun),
		simple("android_debug_app", "Start the Android app under the debugger.", lc.Debug),
		RegisteredTool{
			Tool: domain.Tool{
				Name:        "android_get_configurations",
				Description: "List the names of the project's run configurations.",
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"projectPath": projectPathProp,
				}),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				configs, err := lc.Configurations(ctx, stringArg(args, "projectPath"))
				if err != nil {
					return fmt.Sprintf("✗ %s", err.Error()), nil
				}
				if len(configs) == 0 {
					return "✓ No run configurations found", nil
				}
				return fmt.Sprintf("✓ Run configurations: %s", strings.Join(configs, ", ")), nil
			},
		},
		RegisteredTool{
			Tool: domain.Tool{
				Name:        "android_select_configuration",
				Description: "Select the active run configuration by name.",
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"configurationName": domain.StringProp("Name of the run configuration to activate."),
					"projectPath":       projectPathProp,
				}, "configurationName"),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				name := stringArg(args, "configurationName")
				if name == "" {
					return "", fmt.Errorf("%w: configurationName", ErrMissingArgument)
				}
				return formatResult(lc.SelectConfiguration(ctx, name, stringArg(args, "projectPath"))), nil
			},
		},
	)
}

// formatResult renders an ExecutionResult as the glyph-prefixed single-line
// text block returned to the agent.
func formatResult(res domain.ExecutionResult) string {
	glyph := "✓"
	if !res.Success {
		glyph = "✗"
	}
	if res.ConfigurationName != "" {
		return fmt.Sprintf("%s %s (configuration: %s)", glyph, res.Message, res.ConfigurationName)
	}
	return fmt.Sprintf("%s %s", glyph, res.Message)
}

func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}
