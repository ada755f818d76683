package milvus

import (
	"errors"
	"fmt"
)

// Error categories returned by this package. Every typed error below matches
// exactly one of them through errors.Is.
var (
	// ErrConnection is returned when the client cannot be connected.
	ErrConnection = errors.New("connection failed")

	// ErrNotInitialized is returned for operations attempted before Connect
	// or after Close.
	ErrNotInitialized = errors.New("client not initialized")

	// ErrEncoding is returned when a dynamic value cannot be converted.
	ErrEncoding = errors.New("encoding failed")

	// ErrValidation is returned when a request is missing required input.
	ErrValidation = errors.New("invalid request")

	// ErrRemoteOperation is returned when Milvus rejected or failed a request.
	ErrRemoteOperation = errors.New("remote operation failed")
)

// Operation names used in errors, spans, logs and observer events.
const (
	OpConnect          = "connect"
	OpCreateCollection = "create_collection"
	OpLoadCollection   = "load_collection"
	OpListCollections  = "list_collections"
	OpCreateIndex      = "create_index"
	OpUpsert           = "upsert"
	OpDelete           = "delete"
	OpSearch           = "search"
)

var operationMessages = map[string]string{
	OpConnect:          "failed to initiate Milvus client",
	OpCreateCollection: "failed to create the collection",
	OpLoadCollection:   "failed to load the collection",
	OpListCollections:  "failed to list collections",
	OpCreateIndex:      "failed to create index",
	OpUpsert:           "failed to upsert data",
	OpDelete:           "failed to delete data",
	OpSearch:           "failed to search data",
}

// ConnectionError reports a failure to establish the client connection:
// a malformed URI, rejected credentials or an unreachable server.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (uri=%s)", operationMessages[OpConnect], e.URI)
	}
	return fmt.Sprintf("%s (uri=%s): %v", operationMessages[OpConnect], e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// NotInitializedError is returned when an operation runs without a
// connected handle. No request is sent in that case.
type NotInitializedError struct {
	Operation string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("milvus client is not initialized, cannot %s", e.Operation)
}

func (e *NotInitializedError) Is(target error) bool { return target == ErrNotInitialized }

// EncodingError reports a dynamic value that could not be converted. Path
// locates the value inside the row, e.g. "meta.tags[2]".
type EncodingError struct {
	Path   string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return "cannot encode value: " + e.Reason
	}
	return fmt.Sprintf("cannot encode field %q: %s", e.Path, e.Reason)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RemoteOperationError wraps an error returned by Milvus for one operation.
// The original cause is kept and reachable through errors.Unwrap, so checks
// such as errors.Is(err, context.DeadlineExceeded) keep working.
type RemoteOperationError struct {
	Operation string
	Message   string
	Err       error
}

func (e *RemoteOperationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

func (e *RemoteOperationError) Is(target error) bool { return target == ErrRemoteOperation }

func newRemoteError(operation string, err error) *RemoteOperationError {
	msg, ok := operationMessages[operation]
	if !ok {
		msg = "failed to " + operation
	}
	return &RemoteOperationError{Operation: operation, Message: msg, Err: err}
}

// remoteOrLocal wraps err as a RemoteOperationError unless the database
// client rejected the request locally with an encoding or validation error.
func remoteOrLocal(operation string, err error) error {
	if IsEncodingError(err) || IsValidationError(err) {
		return err
	}
	return newRemoteError(operation, err)
}

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "must not be empty"}
}

// IsConnectionError reports whether err is a connection failure.
func IsConnectionError(err error) bool { return errors.Is(err, ErrConnection) }

// IsNotInitializedError reports whether err was caused by a missing handle.
func IsNotInitializedError(err error) bool { return errors.Is(err, ErrNotInitialized) }

// IsEncodingError reports whether err is a dynamic value conversion failure.
func IsEncodingError(err error) bool { return errors.Is(err, ErrEncoding) }

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }

// IsRemoteOperationError reports whether err came back from Milvus.
func IsRemoteOperationError(err error) bool { return errors.Is(err, ErrRemoteOperation) }
