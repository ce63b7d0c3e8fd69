package models

// ErrorDetail provides a structured way to represent an error.
// It is only used for faults; expected outcomes such as a missing file are
// reported through ReadLinesResponse.Outcome.
type ErrorDetail struct {
	// Code is an application-specific error code.
	Code int `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Data holds additional context about the error, like filename or operation.
	Data interface{} `json:"data,omitempty"`
}

// Error implements the error interface so a fault can travel up to the CLI boundary.
func (e *ErrorDetail) Error() string {
	return e.Message
}

// ErrorResponse is a generic structure for returning errors, often used in HTTP responses.
type ErrorResponse struct {
	// Error contains the details of the error.
	Error ErrorDetail `json:"error"`
}
