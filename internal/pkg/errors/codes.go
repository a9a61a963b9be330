package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007

	// User errors (2000-2999)
	ErrUserNotFound = 2000
	ErrUserExists   = 2001

	// Model registry errors (3000-3999)
	ErrModelNotFound = 3000
	ErrModelInUse    = 3001

	// Template errors (4000-4999)
	ErrTemplateNotFound      = 4000
	ErrAssistantTypeNotFound = 4001
	ErrInvalidAssistantType  = 4002
	ErrDefaultConflict       = 4003

	// Assistant provider errors (5000-5999)
	ErrAssistantProvision = 5000

	// Document AI errors (6000-6999)
	ErrFileInvalid      = 6000
	ErrExtractionFailed = 6001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},

	// User errors
	ErrUserNotFound: {ErrUserNotFound, http.StatusNotFound, "User not found"},
	ErrUserExists:   {ErrUserExists, http.StatusConflict, "User already exists"},

	// Model registry errors
	ErrModelNotFound: {ErrModelNotFound, http.StatusNotFound, "Model not found"},
	ErrModelInUse:    {ErrModelInUse, http.StatusConflict, "Model is in use by templates"},

	// Template errors
	ErrTemplateNotFound:      {ErrTemplateNotFound, http.StatusNotFound, "Template not found"},
	ErrAssistantTypeNotFound: {ErrAssistantTypeNotFound, http.StatusNotFound, "Assistant type not found"},
	ErrInvalidAssistantType:  {ErrInvalidAssistantType, http.StatusBadRequest, "Invalid assistant type"},
	ErrDefaultConflict:       {ErrDefaultConflict, http.StatusConflict, "Default template conflict"},

	// Assistant provider errors
	ErrAssistantProvision: {ErrAssistantProvision, http.StatusBadGateway, "Assistant provider operation failed"},

	// Document AI errors
	ErrFileInvalid:      {ErrFileInvalid, http.StatusBadRequest, "Invalid or unreadable file"},
	ErrExtractionFailed: {ErrExtractionFailed, http.StatusInternalServerError, "Document extraction failed"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return Code{code, http.StatusInternalServerError, fmt.Sprintf("Unknown error (%d)", code)}
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// GetHTTPStatus returns the HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}
