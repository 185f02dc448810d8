package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficlab/roadbench/internal/common/database"
	"github.com/trafficlab/roadbench/internal/common/roaderrors"
)

func TestPostgres_InsertFiveMinute(t *testing.T) {
	err := database.WithTestDb(func(db *pgxpool.Pool) error {
		s := &Postgres{db: db, metrics: testMetrics, config: testConfig()}
		path := writeDataFile(t, "5min.tsv", fiveMinuteData)

		require.NoError(t, s.Insert5Min(context.Background(), path))
		assert.Equal(t, 2, countRows(t, db, TableCongestion))
		assert.Equal(t, 2, countRows(t, db, TableRoad))
		assert.Equal(t, 2, countRows(t, db, TableRegulation))

		degree := getCongestionDegree(t, db, 1)
		require.NotNil(t, degree)
		assert.Equal(t, 1.5, *degree)

		// Inserting the same file again must not duplicate or overwrite.
		require.NoError(t, s.Insert5Min(context.Background(), path))
		assert.Equal(t, 2, countRows(t, db, TableCongestion))

		count, err := s.Read5Min(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)
		return nil
	})
	assert.NoError(t, err)
}

func TestPostgres_InsertHourly(t *testing.T) {
	err := database.WithTestDb(func(db *pgxpool.Pool) error {
		s := &Postgres{db: db, metrics: testMetrics, config: testConfig()}
		path := writeDataFile(t, "1hour.csv", hourlyData)

		require.NoError(t, s.Insert1Hour(context.Background(), path))
		assert.Equal(t, 2, countRows(t, db, TableCongestionHour))
		assert.Equal(t, 2, countRows(t, db, TableRoadHour))

		require.NoError(t, s.Insert1Hour(context.Background(), path))
		count, err := s.Read1Hour(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
		return nil
	})
	assert.NoError(t, err)
}

func TestPostgres_ReadBeforeAnyInsert(t *testing.T) {
	err := database.WithTestDb(func(db *pgxpool.Pool) error {
		s := &Postgres{db: db, metrics: testMetrics, config: testConfig()}

		// No tables exist yet; reads count them as empty.
		count, err := s.Read5Min(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		count, err = s.Read1Hour(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
		return nil
	})
	assert.NoError(t, err)
}

func TestPostgres_DeleteScope(t *testing.T) {
	err := database.WithTestDb(func(db *pgxpool.Pool) error {
		s := &Postgres{db: db, metrics: testMetrics, config: testConfig()}
		require.NoError(t, s.Insert5Min(context.Background(), writeDataFile(t, "5min.tsv", fiveMinuteData)))
		require.NoError(t, s.Insert1Hour(context.Background(), writeDataFile(t, "1hour.csv", hourlyData)))

		require.NoError(t, s.Delete(context.Background(), ScopeFiveMinute))
		count, err := s.Read5Min(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		count, err = s.Read1Hour(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)

		require.NoError(t, s.Delete(context.Background(), ScopeAll))
		count, err = s.Read1Hour(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
		return nil
	})
	assert.NoError(t, err)
}

func TestPostgres_DeleteRow(t *testing.T) {
	err := database.WithTestDb(func(db *pgxpool.Pool) error {
		s := &Postgres{db: db, metrics: testMetrics, config: testConfig()}
		require.NoError(t, s.Insert5Min(context.Background(), writeDataFile(t, "5min.tsv", fiveMinuteData)))

		require.NoError(t, s.Delete(context.Background(), "row:congestion:1"))
		assert.Equal(t, 1, countRows(t, db, TableCongestion))
		assert.Equal(t, 2, countRows(t, db, TableRoad))

		// Absent rows and absent tables are silent no-ops.
		require.NoError(t, s.Delete(context.Background(), "row:congestion:999"))
		require.NoError(t, s.Delete(context.Background(), "row:congestion_1hour:1"))
		assert.Equal(t, 1, countRows(t, db, TableCongestion))
		return nil
	})
	assert.NoError(t, err)
}

func TestPostgres_OperationsAfterClose(t *testing.T) {
	s := &Postgres{metrics: testMetrics, config: testConfig(), closed: true}

	var closed *roaderrors.ErrClosed
	assert.ErrorAs(t, s.Insert5Min(context.Background(), "ignored"), &closed)
	assert.ErrorAs(t, s.Insert1Hour(context.Background(), "ignored"), &closed)
	assert.ErrorAs(t, s.Delete(context.Background(), ScopeAll), &closed)
	_, err := s.Read5Min(context.Background())
	assert.ErrorAs(t, err, &closed)
	_, err = s.Read1Hour(context.Background())
	assert.ErrorAs(t, err, &closed)
}

func countRows(t *testing.T, db *pgxpool.Pool, table string) int {
	t.Helper()
	var count int
	r := db.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table)
	err := r.Scan(&count)
	require.NoError(t, err)
	return count
}

func getCongestionDegree(t *testing.T, db *pgxpool.Pool, id int64) *float64 {
	t.Helper()
	var degree *float64
	r := db.QueryRow(context.Background(), "SELECT congestion_degree FROM congestion WHERE id = $1", id)
	err := r.Scan(&degree)
	require.NoError(t, err)
	return degree
}
