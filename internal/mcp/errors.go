package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/syncteam/internal/loop"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
)

var (
	// ErrUnknownTool is returned for a tool name outside the catalog.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidParams is returned when tool arguments fail to decode or miss a field.
	ErrInvalidParams = errors.New("invalid params")
	// ErrNotFound is returned when a read targets an entity not in the store.
	ErrNotFound = errors.New("not found")
	// ErrNotReady is returned while the initial load is still running.
	ErrNotReady = errors.New("workspace still loading")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps client core errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var (
		apiErr *APIError
		denied perm.DeniedError
	)
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrUnknownTool):
		return &APIError{Code: "UNKNOWN_TOOL", Message: err.Error(), RecoveryHint: "List tools to see what is available"}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check the tool input schema"}
	case errors.Is(err, ErrNotReady):
		return &APIError{Code: "NOT_READY", Message: "workspace still loading", RecoveryHint: "Retry in a moment"}
	case errors.Is(err, mutate.ErrPermissionDenied), errors.As(err, &denied):
		return &APIError{Code: "PERMISSION_DENIED", Message: err.Error(), RecoveryHint: "Ask an admin to change your role"}
	case errors.Is(err, mutate.ErrValidation):
		return &APIError{Code: "VALIDATION_FAILED", Message: err.Error(), RecoveryHint: "Fix the highlighted field and retry"}
	case errors.Is(err, mutate.ErrInFlight):
		return &APIError{Code: "IN_FLIGHT", Message: err.Error(), RecoveryHint: "Wait for the previous change to settle"}
	case errors.Is(err, mutate.ErrNotFoundLocally), errors.Is(err, ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: err.Error(), RecoveryHint: "List the collection to find a valid id"}
	case errors.Is(err, mutate.ErrNothingSelected):
		return &APIError{Code: "NOTHING_SELECTED", Message: "nothing selected", RecoveryHint: "Pass ids to delete"}
	case errors.Is(err, mutate.ErrRemote):
		detail := &APIError{Code: "REMOTE_FAILED", Message: err.Error(), RecoveryHint: "The change was rolled back; retry later"}
		var se *remote.StatusError
		if errors.As(err, &se) {
			detail.Details = map[string]any{"status": se.Status}
		}
		return detail
	case errors.Is(err, loop.ErrStopped):
		return &APIError{Code: "UNAVAILABLE", Message: "client is shutting down"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
