package devicecloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/mobilemcp/droidbridge/internal/domain"
	"github.com/mobilemcp/droidbridge/internal/usecase"
)

// NewRegistry builds the device-automation tool table backed by the client.
// The registry is served through the generic MCP server adapter.
func NewRegistry(client *Client) *usecase.Registry {
	boxIDProp := domain.StringProp("Identifier of the target box.")

	return usecase.NewRegistry(
		usecase.RegisteredTool{
			Tool: domain.Tool{
				Name:        "box_create",
				Description: "Provision a new virtual Android device.",
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"deviceType": domain.StringProp("Device profile, e.g. pixel-8. Omit for the default profile."),
				}),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				box, err := client.CreateBox(ctx, CreateBoxRequest{DeviceType: stringArg(args, "deviceType")})
				if err != nil {
					return fmt.Sprintf("✗ %s", err.Error()), nil
				}
				return fmt.Sprintf("✓ Created box %s (%s, %s)", box.ID, box.DeviceType, box.Status), nil
			},
		},
		usecase.RegisteredTool{
			Tool: domain.Tool{
				Name:        "box_list",
				Description: "List provisioned virtual devices.",
				InputSchema: domain.ObjectSchema(nil),
			},
			Handler: func(ctx context.Context, _ map[string]interface{}) (string, error) {
				boxes, err := client.ListBoxes(ctx)
				if err != nil {
					return fmt.Sprintf("✗ %s", err.Error()), nil
				}
				if len(boxes) == 0 {
					return "✓ No boxes provisioned", nil
				}
				lines := make([]string, len(boxes))
				for i, b := range boxes {
					lines[i] = fmt.Sprintf("%s (%s, %s)", b.ID, b.DeviceType, b.Status)
				}
				return fmt.Sprintf("✓ Boxes: %s", strings.Join(lines, "; ")), nil
			},
		},
		usecase.RegisteredTool{
			Tool: domain.Tool{
				Name:        "box_terminate",
				Description: "Terminate a virtual device and release its resources.",
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"boxId": boxIDProp,
				}, "boxId"),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				boxID := stringArg(args, "boxId")
				if boxID == "" {
					return "", fmt.Errorf("%w: boxId", usecase.ErrMissingArgument)
				}
				if err := client.TerminateBox(ctx, boxID); err != nil {
					return fmt.Sprintf("✗ %s", err.Error()), nil
				}
				return fmt.Sprintf("✓ Terminated box %s", boxID), nil
			},
		},
		usecase.RegisteredTool{
			Tool: domain.Tool{
				Name:        "box_screenshot",
				Description: "Capture the current screen of a virtual device.",
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"boxId": boxIDProp,
				}, "boxId"),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				boxID := stringArg(args, "boxId")
				if boxID == "" {
					return "", fmt.Errorf("%w: boxId", usecase.ErrMissingArgument)
				}
				shot, err := client.TakeScreenshot(ctx, boxID)
				if err != nil {
					return fmt.Sprintf("✗ %s", err.Error()), nil
				}
				if shot.URL != "" {
					return fmt.Sprintf("✓ Screenshot of box %s: %s", boxID, shot.URL), nil
				}
				return fmt.Sprintf("✓ Screenshot of box %s captured (%s, %d bytes base64)", boxID, shot.MimeType, len(shot.Data)), nil
			},
		},
		usecase.RegisteredTool{
			Tool: domain.Tool{
				Name:        "box_ai_action",
				Description: "Perform a natural-language UI action on a virtual device, e.g. 'tap the login button'.",
				InputSchema: domain.ObjectSchema(map[string]domain.JSONSchemaProps{
					"boxId":       boxIDProp,
					"instruction": domain.StringProp("What to do on screen, in natural language."),
				}, "boxId", "instruction"),
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				boxID := stringArg(args, "boxId")
				instruction := stringArg(args, "instruction")
				if boxID == "" {
					return "", fmt.Errorf("%w: boxId", usecase.ErrMissingArgument)
				}
				if instruction == "" {
					return "", fmt.Errorf("%w: instruction", usecase.ErrMissingArgument)
				}
				res, err := client.AIAction(ctx, boxID, instruction)
				if err != nil {
					return fmt.Sprintf("✗ %s", err.Error()), nil
				}
				if !res.Success {
					return fmt.Sprintf("✗ %s", res.Description), nil
				}
				return fmt.Sprintf("✓ %s", res.Description), nil
			},
		},
	)
}

func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}
