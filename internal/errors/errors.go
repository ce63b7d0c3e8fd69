package errors

import (
	"fmt"
	"net/http"
	"time"

	"read-lines/internal/models"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Application error codes, in the JSON-RPC server error range.
const (
	// CodeFileSystemError covers stat, read and permission failures.
	// The "type" entry of Data narrows it down.
	CodeFileSystemError = -32001

	// CodeOperationLockFailed means the shared read lock could not be acquired in time.
	CodeOperationLockFailed = -32002

	// CodeFileTooLarge means the file exceeds the configured size limit.
	CodeFileTooLarge = -32003

	// CodeInvalidEncoding means the content could not be decoded as text.
	CodeInvalidEncoding = -32004
)

// File system error types stored under Data["type"].
const (
	TypePermissionDenied = "permission_denied"
	TypeIsDirectory      = "is_directory"
	TypeIOError          = "io_error"
)

// NewErrorDetail creates a new ErrorDetail.
func NewErrorDetail(code int, message string, data interface{}) *models.ErrorDetail {
	return &models.ErrorDetail{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewParseError creates an ErrorDetail for JSON parsing errors.
func NewParseError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeParseError, "Parse error", map[string]interface{}{"details": details})
}

// NewInvalidRequestError creates an ErrorDetail for malformed requests.
func NewInvalidRequestError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidRequest, "Invalid Request", map[string]interface{}{"details": details})
}

// NewMethodNotFoundError creates an ErrorDetail for an unknown JSON-RPC method.
func NewMethodNotFoundError(methodName string) *models.ErrorDetail {
	return NewErrorDetail(CodeMethodNotFound, "Method not found", map[string]interface{}{"method": methodName})
}

// NewInvalidParamsError creates an ErrorDetail for invalid request parameters.
// paramIssues may be nil.
func NewInvalidParamsError(summary string, paramIssues map[string]interface{}) *models.ErrorDetail {
	message := "Invalid params"
	if summary != "" {
		message = summary
	}
	data := map[string]interface{}{"details": message}
	if paramIssues != nil {
		data["param_issues"] = paramIssues
		if fn, ok := paramIssues["filename"].(string); ok {
			data["filename"] = fn
		}
	}
	return NewErrorDetail(CodeInvalidParams, message, data)
}

// NewInternalError creates an ErrorDetail for unexpected failures.
func NewInternalError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInternalError, "Internal error", map[string]interface{}{"details": details})
}

// NewFileSystemError creates a generic file system ErrorDetail.
func NewFileSystemError(filename, operation, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("File system error on '%s': %s", filename, details), map[string]interface{}{
		"filename":  filename,
		"operation": operation,
		"details":   details,
		"type":      TypeIOError,
	})
}

// NewPermissionDeniedError creates an ErrorDetail for permission failures.
func NewPermissionDeniedError(filename, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("Permission denied for file '%s'", filename), map[string]interface{}{
		"filename":  filename,
		"operation": operation,
		"type":      TypePermissionDenied,
	})
}

// NewIsDirectoryError creates an ErrorDetail for a path that names a directory.
func NewIsDirectoryError(filename string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("Path '%s' is a directory, not a file", filename), map[string]interface{}{
		"filename":  filename,
		"operation": "stat",
		"type":      TypeIsDirectory,
	})
}

// NewFileTooLargeError creates an ErrorDetail for files exceeding the size limit.
func NewFileTooLargeError(filename string, size int64, maxSizeMB int) *models.ErrorDetail {
	return NewErrorDetail(CodeFileTooLarge,
		fmt.Sprintf("File '%s' exceeds maximum allowed size of %d MB", filename, maxSizeMB),
		map[string]interface{}{
			"filename":    filename,
			"size":        size,
			"max_size_mb": maxSizeMB,
		})
}

// NewOperationLockFailedError creates an ErrorDetail for lock acquisition failures.
func NewOperationLockFailedError(filename, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeOperationLockFailed,
		fmt.Sprintf("Could not acquire read lock on file '%s'", filename),
		map[string]interface{}{
			"filename":  filename,
			"operation": "lock",
			"details":   details,
		})
}

// NewInvalidEncodingError creates an ErrorDetail for content that is not valid text.
func NewInvalidEncodingError(filename, encoding, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidEncoding,
		fmt.Sprintf("File '%s' is not valid %s text", filename, encoding),
		map[string]interface{}{
			"filename":  filename,
			"operation": "decode",
			"encoding":  encoding,
			"details":   details,
		})
}

// ToErrorResponse converts an ErrorDetail to an HTTP models.ErrorResponse.
func ToErrorResponse(errDetail *models.ErrorDetail) *models.ErrorResponse {
	if errDetail == nil {
		return nil
	}
	return &models.ErrorResponse{Error: *errDetail}
}

// ToJSONRPCError converts an ErrorDetail to a models.JSONRPCError, lifting the
// well-known Data entries into JSONRPCErrorData.
func ToJSONRPCError(errDetail *models.ErrorDetail) *models.JSONRPCError {
	if errDetail == nil {
		return nil
	}
	rpcErr := &models.JSONRPCError{
		Code:    errDetail.Code,
		Message: errDetail.Message,
	}
	if errDetail.Data == nil {
		return rpcErr
	}

	data := &models.JSONRPCErrorData{Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if dataMap, ok := errDetail.Data.(map[string]interface{}); ok {
		if val, ok := dataMap["filename"].(string); ok {
			data.Filename = val
		}
		if val, ok := dataMap["operation"].(string); ok {
			data.Operation = val
		}
		if pi, ok := dataMap["param_issues"]; ok {
			data.Details = fmt.Sprintf("Parameter issues: %v. Summary: %v", pi, dataMap["details"])
		} else if val, ok := dataMap["details"].(string); ok {
			data.Details = val
		}
	} else {
		data.Details = fmt.Sprintf("%v", errDetail.Data)
	}
	rpcErr.Data = data
	return rpcErr
}

// MapErrorToHTTPStatus maps an ErrorDetail to an HTTP status code.
func MapErrorToHTTPStatus(errDetail *models.ErrorDetail) int {
	if errDetail == nil {
		return http.StatusInternalServerError
	}
	switch errDetail.Code {
	case CodeParseError, CodeInvalidRequest, CodeInvalidParams:
		return http.StatusBadRequest
	case CodeMethodNotFound:
		return http.StatusNotFound
	case CodeFileSystemError:
		if dataMap, ok := errDetail.Data.(map[string]interface{}); ok {
			switch dataMap["type"] {
			case TypePermissionDenied:
				return http.StatusForbidden
			case TypeIsDirectory:
				return http.StatusBadRequest
			}
		}
		return http.StatusInternalServerError
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeOperationLockFailed:
		return http.StatusConflict
	case CodeInvalidEncoding:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
