package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"

	"github.com/usestring/fieldscope-mcp/internal/ingest"
	"github.com/usestring/fieldscope-mcp/internal/settings"
	"github.com/usestring/fieldscope-mcp/internal/workspace"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeFetchError   = "FETCH_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeSuperseded   = "SUPERSEDED"
	ErrCodeNoDataset    = "NO_DATASET"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapLoadError converts a dataset load failure to a coded error.
func WrapLoadError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	var httpErr *ingest.HTTPError
	var netErr net.Error

	switch {
	case errors.Is(err, workspace.ErrSuperseded):
		coded = &CodedError{Code: ErrCodeSuperseded, Message: "a newer load replaced this one", Cause: err}
	case errors.Is(err, workspace.ErrNoSource), errors.Is(err, workspace.ErrAmbiguousSource):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: err.Error()}
	case ingest.IsInputError(err):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: "dataset could not be parsed", Cause: err}
	case errors.As(err, &httpErr):
		code := ErrCodeFetchError
		if httpErr.StatusCode == http.StatusNotFound {
			code = ErrCodeNotFound
		}
		coded = &CodedError{Code: code, Message: "fetching dataset failed", Cause: err}
	case errors.Is(err, fs.ErrNotExist):
		coded = &CodedError{Code: ErrCodeNotFound, Message: "dataset file not found", Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeFetchError, Message: "loading dataset failed", Cause: err}
	}

	slog.Warn("dataset load error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// WrapSettingsError converts a settings failure to a coded error. Schema
// violations become INVALID_INPUT listing each problem.
func WrapSettingsError(err error) error {
	if err == nil {
		return nil
	}
	var vErr *settings.ValidationError
	if errors.As(err, &vErr) {
		return &CodedError{Code: ErrCodeInvalidInput, Message: "settings rejected", Cause: err}
	}
	return err
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrNoDataset reports that nothing has been loaded yet.
func ErrNoDataset() error {
	return &CodedError{
		Code:    ErrCodeNoDataset,
		Message: "no dataset loaded; call fieldscope_dataset_load first",
	}
}
