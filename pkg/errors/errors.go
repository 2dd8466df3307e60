package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceRead     = errors.New("source read error")
	ErrStore          = errors.New("store error")
	ErrRowProcessing  = errors.New("row processing error")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Process exit codes returned by the commands.
const (
	ExitOK             = 0
	ExitInvalidConfig  = 1
	ExitSourceNotFound = 2
	ExitSourceRead     = 3
	ExitStore          = 4
	ExitRowProcessing  = 5
	ExitUnknown        = 70
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// Wrap attaches a sentinel to an underlying cause so that both errors.Is
// checks succeed.
func Wrap(sentinel error, cause error, message string) *AppError {
	return &AppError{
		Err:      fmt.Errorf("%w: %w", sentinel, cause),
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitInvalidConfig
	case errors.Is(err, ErrSourceNotFound):
		return ExitSourceNotFound
	case errors.Is(err, ErrSourceRead):
		return ExitSourceRead
	case errors.Is(err, ErrStore):
		return ExitStore
	case errors.Is(err, ErrRowProcessing):
		return ExitRowProcessing
	default:
		return ExitUnknown
	}
}
