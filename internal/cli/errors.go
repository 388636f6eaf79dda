package cli

import (
	"errors"
	"fmt"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/graph"
)

const (
	ExitCodeUnknown = 1
	ExitCodeConfig  = 2
	ExitCodeAuth    = 3
	ExitCodeInput   = 4
	ExitCodeAPI     = 5
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("command failed with exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func WrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCodeFor maps the error taxonomy onto process exit codes so scripts can
// tell auth failures from bad input without parsing messages.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var authErr *graph.AuthError
	if errors.As(err, &authErr) {
		return ExitCodeAuth
	}
	var validationErr *ads.ValidationError
	if errors.As(err, &validationErr) {
		return ExitCodeInput
	}
	var rateErr *graph.RateLimitError
	if errors.As(err, &rateErr) {
		return ExitCodeAPI
	}
	var protoErr *graph.ProtocolError
	if errors.As(err, &protoErr) {
		return ExitCodeAPI
	}
	var fetchErr *graph.FetchError
	if errors.As(err, &fetchErr) {
		return ExitCodeAPI
	}
	return ExitCodeUnknown
}
