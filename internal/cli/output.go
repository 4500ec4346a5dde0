package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The file or archive was read but is not valid
	ExitCommandError = 2 // Bad arguments, missing files
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// response is the JSON envelope of every --format json output.
type response struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// formatter writes command results as text or JSON.
type formatter struct {
	format string
	w      io.Writer
}

// success writes data. Text output uses the text callback.
func (f formatter) success(data any, text func(io.Writer) error) error {
	if f.format == "json" {
		return json.NewEncoder(f.w).Encode(response{Status: "ok", Data: data})
	}
	return text(f.w)
}

// failure reports err in JSON mode and returns it for the exit code. Text
// mode leaves printing to main.
func (f formatter) failure(err *ExitError) error {
	if f.format == "json" {
		_ = json.NewEncoder(f.w).Encode(response{
			Status: "error",
			Error:  &apiError{Message: err.Error(), Code: err.Code},
		})
	}
	return err
}
