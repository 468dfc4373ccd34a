package tools

// ToolError defines a structured error format for model consumption.
// It allows tools to report specific failure types that the model can
// understand and work around with another call or a reworded answer.
type ToolError struct {
	ErrorType string `json:"error_type"` // e.g. "InvalidArguments", "UpstreamError"
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return "<nil ToolError>"
	}
	if e.ErrorType == "" && e.Message == "" {
		return "<empty ToolError>"
	}
	if e.ErrorType == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.ErrorType
	}
	return e.ErrorType + ": " + e.Message
}

// Error type constants used by the built-in tools.
const (
	ErrTypeInvalidArguments = "InvalidArguments"
	ErrTypeUpstreamError    = "UpstreamError"
)
