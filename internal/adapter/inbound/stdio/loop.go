// Package stdio implements the newline-delimited JSON-RPC 2.0 transport used
// by MCP clients that spawn the bridge as a subprocess.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/mobilemcp/droidbridge/internal/usecase"
	"github.com/mobilemcp/droidbridge/pkg/shared/mcpjsonrpc"
)

// protocolVersion is the MCP protocol revision reported by initialize.
const protocolVersion = "2024-11-05"

// Handler processes the params of one JSON-RPC method.
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Loop reads one JSON-RPC request per line from in and writes one response
// per line to out. It is strictly sequential: a request is fully handled
// before the next line is read.
type Loop struct {
	scanner  *bufio.Scanner
	out      *bufio.Writer
	handlers map[string]Handler
	registry *usecase.Registry
	stopped  atomic.Bool
	logger   *slog.Logger

	serverName    string
	serverVersion string
}

// NewLoop creates a Loop serving the registry's tools over in/out.
func NewLoop(in io.Reader, out io.Writer, registry *usecase.Registry, serverName, serverVersion string, logger *slog.Logger) *Loop {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	l := &Loop{
		scanner:       scanner,
		out:           bufio.NewWriter(out),
		registry:      registry,
		logger:        logger.With("component", "stdio"),
		serverName:    serverName,
		serverVersion: serverVersion,
	}
	l.handlers = map[string]Handler{
		"initialize": l.handleInitialize,
		"tools/list": l.handleToolsList,
		"tools/call": l.handleToolsCall,
	}
	return l
}

// Run processes requests until end of input or Stop. Blank lines are
// skipped. Every line that is read produces exactly one response line,
// flushed immediately.
func (l *Loop) Run(ctx context.Context) error {
	for !l.stopped.Load() {
		if !l.scanner.Scan() {
			if err := l.scanner.Err(); err != nil {
				return fmt.Errorf("failed to read request line: %w", err)
			}
			l.logger.Info("Input stream closed, exiting loop.")
			return nil
		}

		line := l.scanner.Text()
		if line == "" {
			continue
		}

		var req mcpjsonrpc.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			l.write(mcpjsonrpc.NewErrorResponse(nil, mcpjsonrpc.CodeInternalError,
				fmt.Sprintf("internal error: %v", err)))
			continue
		}

		l.write(l.handle(ctx, req))
	}
	return nil
}

// Stop ends the loop after the in-flight line, if any, completes. A read
// already blocked on input is only unblocked by closing the input stream.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

// handle dispatches one parsed request to its method handler.
func (l *Loop) handle(ctx context.Context, req mcpjsonrpc.Request) mcpjsonrpc.Response {
	handler, ok := l.handlers[req.Method]
	if !ok {
		return mcpjsonrpc.NewErrorResponse(req.ID, mcpjsonrpc.CodeInvalidParams,
			fmt.Sprintf("unknown method: %s", req.Method))
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		return mcpjsonrpc.NewErrorResponse(req.ID, mcpjsonrpc.CodeInvalidParams, err.Error())
	}
	return mcpjsonrpc.NewResponse(req.ID, result)
}

// write emits one response line and flushes it so the client never waits on
// a buffered reply.
func (l *Loop) write(resp mcpjsonrpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		l.logger.Error("Failed to encode response.", slog.Any("error", err))
		return
	}
	l.out.Write(data)
	l.out.WriteByte('\n')
	if err := l.out.Flush(); err != nil {
		l.logger.Error("Failed to flush response.", slog.Any("error", err))
	}
}

func (l *Loop) handleInitialize(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    l.serverName,
			"version": l.serverVersion,
		},
	}, nil
}

func (l *Loop) handleToolsList(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"tools": l.registry.Tools()}, nil
}

func (l *Loop) handleToolsCall(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("%w: name", usecase.ErrMissingArgument)
	}
	args, _ := params["arguments"].(map[string]interface{})

	l.logger.Info("Calling tool.", slog.String("tool", name))
	text, err := l.registry.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return toolResult(text), nil
}

// toolResult wraps the handler's text as an MCP content block list.
func toolResult(text string) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}
}
