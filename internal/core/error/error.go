package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// GenerationErrorMessage describes language-model backend failures.
	GenerationErrorMessage = "language model generation failed"
	// ParseErrorMessage describes malformed structured model output.
	ParseErrorMessage = "model output did not match the expected shape"
	// ToolTransportErrorMessage describes tool proxy transport failures.
	ToolTransportErrorMessage = "tool invocation failed"
	// ValidationErrorMessage describes malformed inbound requests.
	ValidationErrorMessage = "invalid request"
	// StateRetrievalErrorMessage describes conversation-state lookup failures.
	StateRetrievalErrorMessage = "conversation state retrieval failed"
)

// Sentinel classes for the pipeline failure taxonomy. Stages match on these
// with errors.Is to pick their fallback path.
var (
	ErrGeneration     = errors.New("generation failure")
	ErrParse          = errors.New("parse failure")
	ErrToolTransport  = errors.New("tool transport failure")
	ErrValidation     = errors.New("validation failure")
	ErrStateRetrieval = errors.New("state retrieval failure")
)

// AppError wraps an underlying error with a failure class, an HTTP status
// and a safe user-facing message.
type AppError struct {
	Err     error
	Class   error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the class, the underlying error or
// the AppError itself.
func (e *AppError) Is(target error) bool {
	if e.Class != nil && errors.Is(e.Class, target) {
		return true
	}
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// WrapGeneration marks a language-model backend failure.
func WrapGeneration(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Err: err, Class: ErrGeneration, Status: http.StatusBadGateway, Message: GenerationErrorMessage}
}

// WrapParse marks structured model output that failed to decode. The raw
// model output is preserved on the ParseError for diagnostics.
func WrapParse(err error, raw string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err:     &ParseError{Err: err, Raw: raw},
		Class:   ErrParse,
		Status:  http.StatusBadGateway,
		Message: ParseErrorMessage,
	}
}

// WrapToolTransport marks a tool proxy transport failure.
func WrapToolTransport(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Err: err, Class: ErrToolTransport, Status: http.StatusBadGateway, Message: ToolTransportErrorMessage}
}

// WrapValidation marks a malformed inbound request; surfaced as a client error.
func WrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Err: err, Class: ErrValidation, Status: http.StatusBadRequest, Message: ValidationErrorMessage}
}

// WrapStateRetrieval marks a conversation-state lookup failure.
func WrapStateRetrieval(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Err: err, Class: ErrStateRetrieval, Status: http.StatusInternalServerError, Message: StateRetrievalErrorMessage}
}

// ParseError carries the raw model output that failed to decode, so callers
// can log it when falling back.
type ParseError struct {
	Err error
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
