package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Kind classifies an error for the alert pipeline. Only KindValidation
// aborts an alert; every other kind is recorded and degraded around.
type Kind string

const (
	KindUnknown                  Kind = ""
	KindValidation               Kind = "validation"
	KindProviderUnavailable      Kind = "provider_unavailable"
	KindProviderRejected         Kind = "provider_rejected"
	KindTranscriptionUnavailable Kind = "transcription_unavailable"
	KindTranslationUnavailable   Kind = "translation_unavailable"
	KindPersistence              Kind = "persistence_failure"
	KindNotFound                 Kind = "not_found"
	KindUnauthorized             Kind = "unauthorized"
)

// Error represents a custom error with stack trace
type Error struct {
	Code    int        `json:"code"`
	Kind    Kind       `json:"kind,omitempty"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
	Stack   string     `json:"-"`
	Context []KeyValue `json:"context,omitempty"`
}

// KeyValue represents a key-value pair for context
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(),
	}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(),
	}
}

// OfKind creates a classified error.
func OfKind(kind Kind, message string) *Error {
	return &Error{
		Code:    kindCode(kind),
		Kind:    kind,
		Message: message,
		Stack:   captureStack(),
	}
}

// OfKindf creates a classified error with a formatted message.
func OfKindf(kind Kind, format string, args ...interface{}) *Error {
	return OfKind(kind, fmt.Sprintf(format, args...))
}

// Validation is shorthand for OfKind(KindValidation, message).
func Validation(message string) *Error {
	return OfKind(KindValidation, message)
}

// Wrap wraps an error with message
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Kind:    KindOf(err),
		Code:    GetCode(err),
		Message: message,
		Err:     err,
		Stack:   captureStack(),
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}

	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapKind wraps err and reclassifies it.
func WrapKind(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    kindCode(kind),
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   captureStack(),
	}
}

// New creates a new error
func New(message string) *Error {
	return &Error{
		Message: message,
		Stack:   captureStack(),
	}
}

// Errorf creates a new formatted error
func Errorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(),
	}
}

// WithContext adds context to an error
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}

	newErr := e.clone()
	newErr.Context = append(newErr.Context, KeyValue{Key: key, Value: value})
	return newErr
}

// WithContexts adds multiple contexts to an error
func (e *Error) WithContexts(kv map[string]string) *Error {
	if e == nil || len(kv) == 0 {
		return e
	}

	newErr := e.clone()
	for k, v := range kv {
		newErr.Context = append(newErr.Context, KeyValue{Key: k, Value: v})
	}
	return newErr
}

func (e *Error) clone() *Error {
	c := &Error{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Err:     e.Err,
		Stack:   e.Stack,
		Context: make([]KeyValue, len(e.Context)),
	}
	copy(c.Context, e.Context)
	return c
}

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}

	return strings.TrimSpace(stack)
}

// GetCode returns the error code
func GetCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// KindOf returns the first classified kind found in the chain.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind != KindUnknown {
			return e.Kind
		}
		err = stderrors.Unwrap(err)
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// GetStack returns the error stack trace
func GetStack(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Stack
	}
	return ""
}

// Is checks if the error chain contains the target error
func Is(err, target error) bool {
	if e, ok := err.(*Error); ok {
		return e.Message == target.Error() || (e.Err != nil && Is(e.Err, target))
	}
	return stderrors.Is(err, target)
}

// Cause returns the underlying error
func Cause(err error) error {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Err != nil {
			err = e.Err
		} else {
			return err
		}
	}
	return err
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindProviderUnavailable, KindTranscriptionUnavailable, KindTranslationUnavailable:
		return http.StatusBadGateway
	}
	if c := GetCode(err); c >= 400 && c < 600 {
		return c
	}
	return http.StatusInternalServerError
}

func kindCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindProviderUnavailable, KindTranscriptionUnavailable, KindTranslationUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Format implements fmt.Formatter
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Stack != "" {
				fmt.Fprintf(s, "\n%s", e.Stack)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%s", e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
