package lock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getLockQuery     = `SELECT GET_LOCK\(\?, \?\)`
	releaseLockQuery = `SELECT RELEASE_LOCK\(\?\)`
)

func newMock(t *testing.T) (*AdvisoryLock, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStoreLock(db, "pealscope_"), mock
}

func TestStoreLockName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "Default prefix", prefix: "pealscope_", want: "pealscope:store:pealscope_"},
		{name: "Empty prefix", prefix: "", want: "pealscope:store:"},
		{name: "Unsafe characters", prefix: "a b;c", want: "pealscope:store:a_b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StoreLockName(tt.prefix))
		})
	}

	long := StoreLockName(strings.Repeat("x", 100))
	assert.Len(t, long, maxLockNameLen)
}

func TestAcquireRelease(t *testing.T) {
	l, mock := newMock(t)

	mock.ExpectQuery(getLockQuery).
		WithArgs("pealscope:store:pealscope_", TimeoutShort).
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))
	mock.ExpectQuery(releaseLockQuery).
		WithArgs("pealscope:store:pealscope_").
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))

	assert.Equal(t, "pealscope:store:pealscope_", l.LockName())
	ok, err := l.Acquire(context.Background(), TimeoutShort)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.IsHeld())

	// A second acquire on a held lock does not hit the database
	ok, err = l.Acquire(context.Background(), TimeoutShort)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Release(context.Background()))
	assert.False(t, l.IsHeld())
	assert.NoError(t, l.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_Results(t *testing.T) {
	tests := []struct {
		name    string
		row     interface{}
		wantOK  bool
		wantErr string
	}{
		{name: "Timeout", row: 0, wantOK: false},
		{name: "Null", row: nil, wantErr: "returned NULL"},
		{name: "Unexpected", row: 7, wantErr: "unexpected GET_LOCK return value: 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, mock := newMock(t)
			mock.ExpectQuery(getLockQuery).
				WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(tt.row))

			ok, err := l.Acquire(context.Background(), TimeoutImmediate)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)
			assert.False(t, l.IsHeld())
		})
	}
}

func TestAcquire_QueryError(t *testing.T) {
	l, mock := newMock(t)
	mock.ExpectQuery(getLockQuery).WillReturnError(errors.New("gone away"))

	_, err := l.Acquire(context.Background(), TimeoutShort)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute GET_LOCK")
}

func TestWithLock(t *testing.T) {
	t.Run("Runs function and releases", func(t *testing.T) {
		l, mock := newMock(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))

		called := false
		err := l.WithLock(context.Background(), TimeoutShort, func() error {
			called = true
			assert.True(t, l.IsHeld())
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.False(t, l.IsHeld())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Returns function error", func(t *testing.T) {
		l, mock := newMock(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))

		boom := errors.New("boom")
		err := l.WithLock(context.Background(), TimeoutShort, func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Held elsewhere", func(t *testing.T) {
		l, mock := newMock(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(0))

		err := l.WithLock(context.Background(), TimeoutShort, func() error {
			t.Fatal("function must not run without the lock")
			return nil
		})
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("Release failure surfaces", func(t *testing.T) {
		l, mock := newMock(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(0))

		err := l.WithLock(context.Background(), TimeoutShort, func() error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "was not held")
	})
}
