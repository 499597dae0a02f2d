package core

// ExecutionResult wraps the output of the final node in a workflow chain.
// One is created per execute call and owned by the caller afterwards.
type ExecutionResult struct {
	Data any `json:"data"`
}

func NewExecutionResult(data any) *ExecutionResult {
	return &ExecutionResult{Data: data}
}
