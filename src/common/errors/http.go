package errors

import "errors"

// Response represents a standard error response for HTTP APIs
type Response struct {
	// Error contains the error code (domain.code format)
	Error string `json:"error"`

	// Message contains a human-readable error message
	Message string `json:"message"`

	// Details contains optional additional error details
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an Error to an HTTP response structure
func (e *Error) ToResponse() Response {
	return Response{
		Error:   string(e.Domain) + "." + string(e.Code),
		Message: e.Message,
	}
}

// ToResponseWithDetails converts an Error to an HTTP response with additional details
func (e *Error) ToResponseWithDetails(details map[string]any) Response {
	resp := e.ToResponse()
	resp.Details = details
	return resp
}

// NewResponse creates a new error response from an error.
// If err wraps an *Error, its domain and code are used.
// Otherwise, a generic internal error response is returned.
func NewResponse(err error) Response {
	var e *Error
	if errors.As(err, &e) {
		return e.ToResponse()
	}

	return Response{
		Error:   string(DomainInternal) + "." + string(CodeInternal),
		Message: "Internal server error",
	}
}
