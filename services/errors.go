package services

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
)

// ErrKind classifies a failure for retry and propagation decisions.
type ErrKind int

const (
	// ErrTransient covers connectivity, timeout and throttling failures.
	// Transient failures are retryable.
	ErrTransient ErrKind = iota
	// ErrPermanent covers validation, authorization and not-found failures.
	// Retrying cannot help; the failure is surfaced immediately.
	ErrPermanent
	// ErrInvariant covers malformed data: a record missing its id, an
	// unparseable remote row. Never retried, never stored.
	ErrInvariant
	// ErrCancelled marks caller-initiated abandonment. Not an error in the
	// operational sense; work just stops.
	ErrCancelled
)

// ClassifiedError tags an underlying error with its kind.
type ClassifiedError struct {
	Kind ErrKind
	Err  error
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// TransientError wraps err as retryable.
func TransientError(format string, args ...interface{}) error {
	return &ClassifiedError{Kind: ErrTransient, Err: fmt.Errorf(format, args...)}
}

// PermanentError wraps err as non-retryable.
func PermanentError(format string, args ...interface{}) error {
	return &ClassifiedError{Kind: ErrPermanent, Err: fmt.Errorf(format, args...)}
}

// InvariantError wraps a malformed-data failure.
func InvariantError(format string, args ...interface{}) error {
	return &ClassifiedError{Kind: ErrInvariant, Err: fmt.Errorf(format, args...)}
}

// throttling and server-fault codes DynamoDB reports for conditions that
// clear on their own.
var transientAWSCodes = map[string]bool{
	"ThrottlingException":                    true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"LimitExceededException":                 true,
	"TransactionConflictException":           true,
}

// Classify maps an arbitrary error onto the taxonomy. Explicitly tagged
// errors keep their kind; AWS API errors are split by fault and code; plain
// network errors are transient.
func Classify(err error) ErrKind {
	if err == nil {
		return ErrPermanent
	}
	var tagged *ClassifiedError
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if transientAWSCodes[apiErr.ErrorCode()] {
			return ErrTransient
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return ErrTransient
		}
		return ErrPermanent
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}
	// Unclassified failures default to transient so a retry gets a chance.
	return ErrTransient
}

// IsRetryable reports whether err should be retried under the default sync
// policy: transient only.
func IsRetryable(err error) bool {
	return Classify(err) == ErrTransient
}
