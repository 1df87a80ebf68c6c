package run

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
)

// stubDB returns a fixed error from every read.
type stubDB struct {
	getErr error
}

func (s *stubDB) BeginTxx(context.Context, *sql.TxOptions) (*sqlx.Tx, error) { return nil, nil }
func (s *stubDB) Close() error                                               { return nil }
func (s *stubDB) Connx(context.Context) (*sqlx.Conn, error)                  { return nil, nil }
func (s *stubDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}
func (s *stubDB) GetContext(context.Context, any, string, ...any) error { return s.getErr }
func (s *stubDB) PingContext(context.Context) error                     { return nil }
func (s *stubDB) SelectContext(context.Context, any, string, ...any) error {
	return s.getErr
}
func (s *stubDB) Unsafe() *sqlx.DB { return nil }

var _ database.DB = (*stubDB)(nil)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestGetLatestNoRunsYet(t *testing.T) {
	repo := NewRepository(&stubDB{getErr: sql.ErrNoRows}, newTestLogger())

	latest, err := repo.GetLatest(context.Background())

	require.NoError(t, err)
	assert.Nil(t, latest, "an empty run table is not an error")
}

func TestGetLatestWrappedNoRows(t *testing.T) {
	wrapped := fmt.Errorf("get latest: %w", sql.ErrNoRows)
	repo := NewRepository(&stubDB{getErr: wrapped}, newTestLogger())

	latest, err := repo.GetLatest(context.Background())

	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestGetLatestQueryFailure(t *testing.T) {
	repo := NewRepository(&stubDB{getErr: context.DeadlineExceeded}, newTestLogger())

	latest, err := repo.GetLatest(context.Background())

	require.Error(t, err)
	assert.Nil(t, latest)
}

func TestListMapsFailure(t *testing.T) {
	repo := NewRepository(&stubDB{getErr: fmt.Errorf("connection reset at %v", time.Now())}, newTestLogger())

	runs, err := repo.List(context.Background(), 5)

	require.Error(t, err)
	assert.Nil(t, runs)
}
