package wizard

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func validationFailed(v *ValidationError) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: v.Message,
		Details: map[string]any{"step": string(v.Step)},
	}
}
