package domain

// ExecutionResult is the canonical outcome of every app lifecycle operation.
// Both front ends (HTTP and stdio) normalize backend responses into this
// shape before re-serializing.
type ExecutionResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	ConfigurationName string `json:"configurationName,omitempty"`
}

// Failure builds a failed ExecutionResult with the given message.
func Failure(message string) ExecutionResult {
	return ExecutionResult{Success: false, Message: message}
}

// APIResponse is the envelope for every HTTP endpoint. Failure is carried in
// the Success flag, never in the HTTP status code.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
