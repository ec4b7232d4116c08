package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the normalized failure class used by the session resolver to pick
// a failure branch. Every storage/provider error maps onto exactly one Kind.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindAlreadyExists    Kind = "already_exists"
	KindPermissionDenied Kind = "permission_denied"
	KindUnavailable      Kind = "unavailable"
	KindDeadlineExceeded Kind = "deadline_exceeded"
	KindUnknown          Kind = "unknown"
)

// Sentinel errors adapters may return directly when no richer driver error
// is available.
var (
	ErrNotFound         = goerrors.New("not found")
	ErrAlreadyExists    = goerrors.New("already exists")
	ErrPermissionDenied = goerrors.New("permission denied")
	ErrUnavailable      = goerrors.New("unavailable")
)

// KindOf maps an error onto its Kind. Sentinels take precedence, then driver
// error codes, then transport-level signals.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, ErrNotFound):
		return KindNotFound
	case goerrors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case goerrors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case goerrors.Is(err, ErrUnavailable):
		return KindUnavailable
	case goerrors.Is(err, context.DeadlineExceeded):
		return KindDeadlineExceeded
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return KindAlreadyExists
		case pgErr.Code == pgerrcode.InsufficientPrivilege:
			return KindPermissionDenied
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return KindUnavailable
		}
		return KindUnknown
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindDeadlineExceeded
		}
		return KindUnavailable
	}

	return KindUnknown
}

// Transient reports whether the error class permits the one-shot cache
// fallback during profile resolution. Permission errors are deliberately
// excluded: retrying cannot help and could mask a security-rule
// misconfiguration.
func Transient(err error) bool {
	k := KindOf(err)
	return k == KindUnavailable || k == KindDeadlineExceeded
}

// Classify returns a normalized error type name suitable for tagging metrics/logs.
// It unwraps errors until the innermost concrete type is found and converts it to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
