package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QueryErrorKind buckets log-store failures. The kinds exist for diagnostics
// only; callers treat every kind the same way (empty results plus a note).
type QueryErrorKind string

const (
	QueryErrAPI            QueryErrorKind = "api"
	QueryErrAuth           QueryErrorKind = "auth"
	QueryErrRetryExhausted QueryErrorKind = "retry_exhausted"
	QueryErrValue          QueryErrorKind = "value"
	QueryErrUnknown        QueryErrorKind = "unknown"
)

// QueryError wraps a failed log-store query with its classification and an
// optional human hint for the operator.
type QueryError struct {
	Kind QueryErrorKind
	Op   string
	Err  error
	Hint string
}

func (e *QueryError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s: %v (%s)", e.Op, e.Kind, e.Err, e.Hint)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Summary returns the short human-readable form carried in webhook acks.
func (e *QueryError) Summary() string {
	msg := TruncateText(e.Err.Error(), 300)
	if e.Hint != "" {
		return fmt.Sprintf("%s query failed (%s): %s; %s", e.Op, e.Kind, msg, e.Hint)
	}
	return fmt.Sprintf("%s query failed (%s): %s", e.Op, e.Kind, msg)
}

const (
	hintPermission  = "grant roles/logging.viewer to the runtime service account"
	hintCredentials = "set GOOGLE_APPLICATION_CREDENTIALS or attach a workload identity"
)

// ClassifyQueryError maps a log-store failure onto the query error taxonomy.
// The unknown arm is the deliberate last resort; callers log it in full.
func ClassifyQueryError(op string, err error) *QueryError {
	if err == nil {
		return nil
	}

	if isMissingCredentials(err) {
		return &QueryError{Kind: QueryErrAuth, Op: op, Err: err, Hint: hintCredentials}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 401 || gerr.Code == 403 {
			return &QueryError{Kind: QueryErrAuth, Op: op, Err: err, Hint: hintPermission}
		}
		return &QueryError{Kind: QueryErrAPI, Op: op, Err: err}
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.PermissionDenied, codes.Unauthenticated:
			return &QueryError{Kind: QueryErrAuth, Op: op, Err: err, Hint: hintPermission}
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return &QueryError{Kind: QueryErrRetryExhausted, Op: op, Err: err}
		case codes.InvalidArgument, codes.OutOfRange:
			return &QueryError{Kind: QueryErrValue, Op: op, Err: err}
		case codes.Unknown:
			// status.FromError wraps non-gRPC errors as Unknown; fall through
			// to the generic arms below.
		default:
			return &QueryError{Kind: QueryErrAPI, Op: op, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &QueryError{Kind: QueryErrRetryExhausted, Op: op, Err: err}
	}

	return &QueryError{Kind: QueryErrUnknown, Op: op, Err: err}
}

func isMissingCredentials(err error) bool {
	return strings.Contains(err.Error(), "could not find default credentials")
}

// TruncateText caps a string at max bytes.
func TruncateText(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
