package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "net failure" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

func TestKindOf_Sentinels(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrNotFound))
	assert.Equal(t, KindAlreadyExists, KindOf(ErrAlreadyExists))
	assert.Equal(t, KindPermissionDenied, KindOf(ErrPermissionDenied))
	assert.Equal(t, KindUnavailable, KindOf(ErrUnavailable))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindOf_WrappedSentinels(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("profile u1: %w", ErrNotFound)))
	assert.Equal(t, KindPermissionDenied, KindOf(fmt.Errorf("get: %w", ErrPermissionDenied)))
}

func TestKindOf_PostgresCodes(t *testing.T) {
	cases := []struct {
		code string
		want Kind
	}{
		{pgerrcode.UniqueViolation, KindAlreadyExists},
		{pgerrcode.InsufficientPrivilege, KindPermissionDenied},
		{pgerrcode.ConnectionFailure, KindUnavailable},
		{pgerrcode.AdminShutdown, KindUnavailable},
		{pgerrcode.SyntaxError, KindUnknown},
	}
	for _, tc := range cases {
		err := fmt.Errorf("query: %w", &pgconn.PgError{Code: tc.code})
		assert.Equal(t, tc.want, KindOf(err), "code=%s", tc.code)
	}
}

func TestKindOf_ContextDeadline(t *testing.T) {
	assert.Equal(t, KindDeadlineExceeded, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindDeadlineExceeded, KindOf(fmt.Errorf("get: %w", context.DeadlineExceeded)))
}

func TestKindOf_NetErrors(t *testing.T) {
	assert.Equal(t, KindDeadlineExceeded, KindOf(&fakeNetError{timeout: true}))
	assert.Equal(t, KindUnavailable, KindOf(&fakeNetError{}))
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(goerrors.New("boom")))
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(ErrUnavailable))
	assert.True(t, Transient(context.DeadlineExceeded))
	assert.True(t, Transient(&fakeNetError{timeout: true}))

	assert.False(t, Transient(ErrPermissionDenied))
	assert.False(t, Transient(ErrNotFound))
	assert.False(t, Transient(goerrors.New("boom")))
	assert.False(t, Transient(nil))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, "pgconn_pgerror", Classify(fmt.Errorf("q: %w", &pgconn.PgError{Code: pgerrcode.SyntaxError})))
	assert.Equal(t, "errors_errorstring", Classify(goerrors.New("x")))
}
