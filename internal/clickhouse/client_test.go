package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

func init() {
	logger.Init("error")
}

func TestFetchPowers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(db)

	rows := sqlmock.NewRows([]string{"player_name", "power"}).
		AddRow("ann", int64(2100)).
		AddRow("ben", int64(1900)).
		AddRow("broken", int64(-1))
	mock.ExpectQuery(`SELECT\s+player_name`).
		WithArgs(int64(DefaultLookback / time.Second)).
		WillReturnRows(rows)

	powers, err := c.FetchPowers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ann": 2100, "ben": 1900}, powers)

	mock.ExpectClose()
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPowersLookback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	c := NewClientFromDB(db)
	c.SetLookback(time.Hour)
	c.SetLookback(0)

	mock.ExpectQuery(`FROM player_power_ratings`).
		WithArgs(int64(3600)).
		WillReturnRows(sqlmock.NewRows([]string{"player_name", "power"}))

	powers, err := c.FetchPowers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, powers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPowersQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	_, err = NewClientFromDB(db).FetchPowers(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

type staticSource struct {
	powers map[string]int
	err    error
}

func (s staticSource) FetchPowers(context.Context) (map[string]int, error) { return s.powers, s.err }
func (s staticSource) Close() error { return nil }

func TestSyncOnce(t *testing.T) {
	var got map[string]int
	apply := func(p map[string]int) (int, error) {
		got = p
		return len(p), nil
	}

	n, err := SyncOnce(context.Background(), staticSource{powers: map[string]int{"a": 1}}, apply)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[string]int{"a": 1}, got)

	got = nil
	_, err = SyncOnce(context.Background(), staticSource{err: errors.New("down")}, apply)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestRunSyncStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	apply := func(map[string]int) (int, error) {
		calls <- struct{}{}
		return 0, nil
	}

	done := make(chan struct{})
	go func() {
		RunSync(ctx, staticSource{powers: map[string]int{}}, 10*time.Millisecond, apply)
		close(done)
	}()

	<-calls
	<-calls
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSync did not stop")
	}
}
