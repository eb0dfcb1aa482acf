package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mobilemcp/droidbridge/internal/domain"
)

// lifecycleRequest is the JSON body accepted by every lifecycle endpoint.
type lifecycleRequest struct {
	ProjectPath       string `json:"projectPath"`
	ConfigurationName string `json:"configurationName"`
}

// statusInfo is the payload of GET /api/status.
type statusInfo struct {
	Port      int      `json:"port"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// dispatch routes a parsed request by its exact (method, path) pair. Every
// outcome, including unknown endpoints and backend failures, is an HTTP 200
// whose JSON body carries the success flag.
func (s *Server) dispatch(ctx context.Context, req *request) domain.APIResponse {
	params, ok := decodeBody(req.Body)
	if !ok {
		return domain.APIResponse{Success: false, Message: "Invalid request body"}
	}

	switch req.Method + " " + req.Path {
	case "POST /api/start":
		return wrapExecution(s.lifecycle.Start(ctx, params.ProjectPath), true)

	case "POST /api/stop":
		return wrapExecution(s.lifecycle.Stop(ctx, params.ProjectPath), false)

	case "POST /api/rerun":
		return wrapExecution(s.lifecycle.Rerun(ctx, params.ProjectPath), true)

	case "POST /api/debug":
		return wrapExecution(s.lifecycle.Debug(ctx, params.ProjectPath), true)

	case "GET /api/configurations":
		configs, err := s.lifecycle.Configurations(ctx, params.ProjectPath)
		if err != nil {
			return domain.APIResponse{Success: false, Message: err.Error()}
		}
		return domain.APIResponse{
			Success: true,
			Message: fmt.Sprintf("Found %d run configurations", len(configs)),
			Data:    map[string]interface{}{"configurations": configs},
		}

	case "POST /api/select-configuration":
		// The use case rejects an empty configurationName before touching
		// the controller.
		res := s.lifecycle.SelectConfiguration(ctx, params.ConfigurationName, params.ProjectPath)
		return wrapExecution(res, false)

	case "GET /api/status":
		return domain.APIResponse{
			Success: true,
			Message: "Server is running",
			Data: statusInfo{
				Port:      s.Port(),
				Version:   s.version,
				Endpoints: endpoints(),
			},
		}

	default:
		return domain.APIResponse{Success: false, Message: "Endpoint not found"}
	}
}

// decodeBody parses the optional JSON body. An empty body yields zero-valued
// params; a non-empty body that is not valid JSON is reported to the caller.
func decodeBody(body string) (lifecycleRequest, bool) {
	var params lifecycleRequest
	if body == "" {
		return params, true
	}
	if err := json.Unmarshal([]byte(body), &params); err != nil {
		return params, false
	}
	return params, true
}

// wrapExecution converts an ExecutionResult into the API envelope.
// withConfig controls whether the selected configuration name is exposed
// under data.
func wrapExecution(res domain.ExecutionResult, withConfig bool) domain.APIResponse {
	resp := domain.APIResponse{Success: res.Success, Message: res.Message}
	if withConfig && res.ConfigurationName != "" {
		resp.Data = map[string]interface{}{"configurationName": res.ConfigurationName}
	}
	return resp
}

// writeResponse serializes the envelope and writes a minimal HTTP/1.1
// response: always 200, JSON content type, explicit length, permissive CORS.
func writeResponse(w io.Writer, resp domain.APIResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		body = []byte(`{"success":false,"message":"Internal serialization error"}`)
	}

	head := fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"Content-Type: application/json\r\n"+
		"Content-Length: %d\r\n"+
		"Access-Control-Allow-Origin: *\r\n"+
		"Access-Control-Allow-Methods: GET, POST, OPTIONS\r\n"+
		"Access-Control-Allow-Headers: Content-Type, Authorization\r\n"+
		"\r\n", len(body))

	if _, err := io.WriteString(w, head); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
