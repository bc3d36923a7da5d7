package engine

import "fmt"

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Granted []string      `json:"granted,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

// PermissionDeniedError is the wire form of an authorization denial. It
// carries the caller's own grants for the module so the UI can explain the
// denial, and deliberately nothing else.
func PermissionDeniedError(module string, granted []string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Status:  403,
		Message: "Permission denied",
		Granted: granted,
	}
}

func NotFoundError(module, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", module, id),
	}
}

func UnknownModuleError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_MODULE",
		Status:  404,
		Message: fmt.Sprintf("Unknown module: %s", name),
	}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: 400, Message: msg}
}

func ConflictError(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

// UnsupportedVerbError indicates a routing misconfiguration, not a security
// decision: a verb reached the guard that the action resolver does not know.
func UnsupportedVerbError(verb string) *AppError {
	return &AppError{
		Code:    "UNSUPPORTED_VERB",
		Status:  500,
		Message: fmt.Sprintf("Unsupported verb: %s", verb),
	}
}
