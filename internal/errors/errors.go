// Package errors provides the error types used across grimchat.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrConcurrentStream      = errors.New("a generation is already in flight")
	ErrInvalidState          = errors.New("invalid message state")
	ErrNotFound              = errors.New("message not found")
	ErrAttachmentTooLarge    = errors.New("attachment exceeds size limit")
	ErrAttachmentUnsupported = errors.New("attachment type not supported")
	ErrInvalidResponse       = errors.New("invalid response format")
	ErrAborted               = errors.New("generation aborted")
)

// ConcurrentStreamError is returned when a send is attempted while another
// generation is still streaming. It is recoverable: the caller simply waits.
type ConcurrentStreamError struct {
	ActiveID string
}

func (e *ConcurrentStreamError) Error() string {
	if e.ActiveID == "" {
		return "a generation is already in flight"
	}
	return fmt.Sprintf("a generation is already in flight (message %s)", e.ActiveID)
}

func (e *ConcurrentStreamError) Is(target error) bool {
	if target == ErrConcurrentStream {
		return true
	}
	_, ok := target.(*ConcurrentStreamError)
	return ok
}

// NewConcurrentStreamError creates a new ConcurrentStreamError
func NewConcurrentStreamError(activeID string) *ConcurrentStreamError {
	return &ConcurrentStreamError{ActiveID: activeID}
}

// InvalidStateError indicates a transcript operation was applied to a message
// in the wrong status. This is a programmer-error class: correct wiring never
// produces it.
type InvalidStateError struct {
	ID     string
	Status string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s message %s in status %q", e.Op, e.ID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	if target == ErrInvalidState {
		return true
	}
	_, ok := target.(*InvalidStateError)
	return ok
}

// NewInvalidStateError creates a new InvalidStateError
func NewInvalidStateError(op, id, status string) *InvalidStateError {
	return &InvalidStateError{Op: op, ID: id, Status: status}
}

// NotFoundError indicates an unknown message id
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("message %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*NotFoundError)
	return ok
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// RemoteCallError represents a network or service failure during a request
// or mid-stream. StatusCode is zero for transport-level failures.
type RemoteCallError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote call failed [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote call failed at %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("remote call failed at %s: %s", e.Endpoint, e.Message)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// NewRemoteCallError creates a RemoteCallError for an HTTP-level failure
func NewRemoteCallError(statusCode int, endpoint, message string) *RemoteCallError {
	return &RemoteCallError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// WrapRemoteCallError wraps a transport error
func WrapRemoteCallError(endpoint string, err error) *RemoteCallError {
	return &RemoteCallError{Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request that exceeded its deadline
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// AttachmentError represents a rejected attachment. The attachment never
// reaches the transcript; the user is notified immediately.
type AttachmentError struct {
	Name   string
	Reason string
	kind   error // ErrAttachmentTooLarge or ErrAttachmentUnsupported
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q rejected: %s", e.Name, e.Reason)
}

func (e *AttachmentError) Is(target error) bool {
	return target == e.kind
}

// NewAttachmentTooLargeError creates an AttachmentError for oversized files
func NewAttachmentTooLargeError(name string, size, limit int64) *AttachmentError {
	return &AttachmentError{
		Name:   name,
		Reason: fmt.Sprintf("%d bytes exceeds the %d byte limit", size, limit),
		kind:   ErrAttachmentTooLarge,
	}
}

// NewAttachmentUnsupportedError creates an AttachmentError for unsupported types
func NewAttachmentUnsupportedError(name, mime string) *AttachmentError {
	return &AttachmentError{
		Name:   name,
		Reason: fmt.Sprintf("type %q is not supported", mime),
		kind:   ErrAttachmentUnsupported,
	}
}

// ParseError represents a response parsing failure
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// IsConcurrentStream reports whether err is a single-flight rejection
func IsConcurrentStream(err error) bool {
	return errors.Is(err, ErrConcurrentStream)
}

// IsRemote reports whether err originated in the remote call
func IsRemote(err error) bool {
	var rc *RemoteCallError
	return errors.As(err, &rc)
}

// IsTimeout reports whether err is a deadline expiry
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsAttachmentRejected reports whether err is an attachment rejection
func IsAttachmentRejected(err error) bool {
	return errors.Is(err, ErrAttachmentTooLarge) || errors.Is(err, ErrAttachmentUnsupported)
}

// IsFatalWiring reports whether err belongs to the programmer-error class
// (transcript misuse). These abort the current send and surface a generic
// failure rather than being silently ignored.
func IsFatalWiring(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotFound)
}
