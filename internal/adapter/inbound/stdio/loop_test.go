package stdio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemcp/droidbridge/internal/adapter/inbound/stdio"
	"github.com/mobilemcp/droidbridge/internal/domain"
	"github.com/mobilemcp/droidbridge/internal/usecase"
	"github.com/mobilemcp/droidbridge/pkg/shared/mcpjsonrpc"
)

// stubController returns canned results; the stdio tests only care about how
// the loop frames them.
type stubController struct {
	startRes   domain.ExecutionResult
	stopRes    domain.ExecutionResult
	configs    []string
	selectRes  domain.ExecutionResult
	selectName string
}

func (s *stubController) Start(_ context.Context, _ string) (domain.ExecutionResult, error) {
	return s.startRes, nil
}

func (s *stubController) Stop(_ context.Context, _ string) (domain.ExecutionResult, error) {
	return s.stopRes, nil
}

func (s *stubController) Debug(_ context.Context, _ string) (domain.ExecutionResult, error) {
	return s.startRes, nil
}

func (s *stubController) ListConfigurations(_ context.Context, _ string) ([]string, error) {
	return s.configs, nil
}

func (s *stubController) SelectConfiguration(_ context.Context, name, _ string) (domain.ExecutionResult, error) {
	s.selectName = name
	return s.selectRes, nil
}

// runLoop feeds the input lines through a fresh loop and returns the decoded
// response lines.
func runLoop(t *testing.T, ctrl usecase.AppController, input string) []mcpjsonrpc.Response {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	lc := usecase.NewLifecycleUseCase(ctrl, 0, logger)
	registry := usecase.NewLifecycleRegistry(lc)

	var out bytes.Buffer
	loop := stdio.NewLoop(strings.NewReader(input), &out, registry, "droidbridge", "0.2.0", logger)
	require.NoError(t, loop.Run(context.Background()))

	var responses []mcpjsonrpc.Response
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		var resp mcpjsonrpc.Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "line: %q", line)
		responses = append(responses, resp)
	}
	return responses
}

func TestLoop_MalformedJSON(t *testing.T) {
	assert := assert.New(t)

	responses := runLoop(t, &stubController{}, "this is not json\n")

	require.Len(t, responses, 1)
	assert.Nil(responses[0].ID)
	require.NotNil(t, responses[0].Error)
	assert.Equal(mcpjsonrpc.CodeInternalError, responses[0].Error.Code)
	assert.Contains(responses[0].Error.Message, "internal error")
}

func TestLoop_UnknownMethod(t *testing.T) {
	assert := assert.New(t)

	responses := runLoop(t, &stubController{},
		`{"jsonrpc":"2.0","id":42,"method":"nope"}`+"\n")

	require.Len(t, responses, 1)
	assert.Equal(float64(42), responses[0].ID)
	require.NotNil(t, responses[0].Error)
	assert.Equal(mcpjsonrpc.CodeInvalidParams, responses[0].Error.Code)
	assert.Contains(responses[0].Error.Message, "nope")
}

func TestLoop_Initialize(t *testing.T) {
	assert := assert.New(t)

	responses := runLoop(t, &stubController{},
		`{"jsonrpc":"2.0","id":"init-1","method":"initialize"}`+"\n")

	require.Len(t, responses, 1)
	assert.Equal("init-1", responses[0].ID)
	assert.Nil(responses[0].Error)

	result := responses[0].Result.(map[string]interface{})
	assert.Equal("2024-11-05", result["protocolVersion"])
	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal("droidbridge", serverInfo["name"])
}

func TestLoop_ToolsList(t *testing.T) {
	assert := assert.New(t)

	responses := runLoop(t, &stubController{},
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`+"\n")

	require.Len(t, responses, 1)
	result := responses[0].Result.(map[string]interface{})
	tools := result["tools"].([]interface{})
	assert.Len(tools, 6)

	first := tools[0].(map[string]interface{})
	assert.Equal("android_start_app", first["name"])
	assert.NotEmpty(first["description"])
	assert.NotNil(first["inputSchema"])
}

func TestLoop_ToolsCall(t *testing.T) {
	assert := assert.New(t)
	ctrl := &stubController{
		startRes: domain.ExecutionResult{Success: true, Message: "App started", ConfigurationName: "app"},
	}

	responses := runLoop(t, ctrl,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"android_start_app","arguments":{}}}`+"\n")

	require.Len(t, responses, 1)
	assert.Nil(responses[0].Error)

	result := responses[0].Result.(map[string]interface{})
	content := result["content"].([]interface{})
	require.Len(t, content, 1)
	block := content[0].(map[string]interface{})
	assert.Equal("text", block["type"])
	assert.Equal("✓ App started (configuration: app)", block["text"])
}

func TestLoop_ToolsCallMissingName(t *testing.T) {
	assert := assert.New(t)

	responses := runLoop(t, &stubController{},
		`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{}}`+"\n")

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(mcpjsonrpc.CodeInvalidParams, responses[0].Error.Code)
}

func TestLoop_ToolsCallMissingRequiredArgument(t *testing.T) {
	assert := assert.New(t)
	ctrl := &stubController{}

	responses := runLoop(t, ctrl,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"android_select_configuration","arguments":{}}}`+"\n")

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(mcpjsonrpc.CodeInvalidParams, responses[0].Error.Code)
	assert.Contains(responses[0].Error.Message, "configurationName")
	assert.Empty(ctrl.selectName, "backend must not be called")
}

func TestLoop_ToolsCallUnknownTool(t *testing.T) {
	assert := assert.New(t)

	responses := runLoop(t, &stubController{},
		`{"jsonrpc":"2.0","id":10,"method":"tools/call","params":{"name":"android_make_coffee"}}`+"\n")

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(mcpjsonrpc.CodeInvalidParams, responses[0].Error.Code)
	assert.Contains(responses[0].Error.Message, "android_make_coffee")
}

func TestLoop_BlankLinesSkippedAndSequential(t *testing.T) {
	assert := assert.New(t)

	input := "\n" +
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n" +
		"\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	responses := runLoop(t, &stubController{}, input)

	require.Len(t, responses, 2)
	assert.Equal(float64(1), responses[0].ID)
	assert.Equal(float64(2), responses[1].ID)
}

func TestLoop_Stop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	lc := usecase.NewLifecycleUseCase(&stubController{}, 0, logger)
	registry := usecase.NewLifecycleRegistry(lc)

	var out bytes.Buffer
	loop := stdio.NewLoop(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`+"\n"), &out, registry, "droidbridge", "0.2.0", logger)
	loop.Stop()

	require.NoError(t, loop.Run(context.Background()))
	assert.Empty(t, out.String(), "a stopped loop must not read further input")
}
