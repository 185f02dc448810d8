package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trafficlab/roadbench/internal/chunk"
	"github.com/trafficlab/roadbench/internal/common/database"
	"github.com/trafficlab/roadbench/internal/common/ingest"
	"github.com/trafficlab/roadbench/internal/common/ingest/metrics"
	"github.com/trafficlab/roadbench/internal/common/roaderrors"
	"github.com/trafficlab/roadbench/internal/mapper"
	"github.com/trafficlab/roadbench/internal/model"
	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
)

var psql = goqu.Dialect("postgres")

// Postgres loads the datasets into postgres. Each sub-batch is merged through
// a throwaway staging table: COPY into the staging table, then insert-select
// with ON CONFLICT (id) DO NOTHING so already loaded ids are skipped rather
// than overwritten. The staging table is dropped with the transaction on
// every exit path.
type Postgres struct {
	db      *pgxpool.Pool
	metrics *metrics.Metrics
	config  *configuration.RoadbenchConfiguration
	closed  bool
}

func NewPostgres(config *configuration.RoadbenchConfiguration, m *metrics.Metrics) (*Postgres, error) {
	db, err := database.OpenPgxPool(config.Postgres)
	if err != nil {
		return nil, errors.WithMessage(err, "Error opening connection to postgres")
	}
	return &Postgres{db: db, metrics: m, config: config}, nil
}

func (s *Postgres) Name() string {
	return "postgres"
}

func (s *Postgres) Insert5Min(ctx context.Context, path string) error {
	if s.closed {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	for _, table := range FiveMinuteTables {
		if err := s.createTable(ctx, table); err != nil {
			return err
		}
	}
	source, err := chunk.NewReader(path, '\t', s.config.ChunkSize)
	if err != nil {
		return err
	}
	defer source.Close()
	return ingest.NewIngestionPipeline[*model.RecordSet](source, mapper.FiveMinute{}, s, s.metrics).Run(ctx)
}

func (s *Postgres) Insert1Hour(ctx context.Context, path string) error {
	if s.closed {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	for _, table := range HourlyTables {
		if err := s.createTable(ctx, table); err != nil {
			return err
		}
	}
	source, err := chunk.NewReader(path, ',', s.config.ChunkSize)
	if err != nil {
		return err
	}
	defer source.Close()
	return ingest.NewIngestionPipeline[*model.RecordSet](source, mapper.Hourly{}, s, s.metrics).Run(ctx)
}

// Store merges one converted chunk into the destination tables, batchSize
// rows per staged merge transaction.
func (s *Postgres) Store(ctx context.Context, set *model.RecordSet) error {
	if err := mergeRows(ctx, s, TableCongestion, set.Congestion, congestionValues); err != nil {
		return err
	}
	if err := mergeRows(ctx, s, TableRoad, set.Road, roadValues); err != nil {
		return err
	}
	if err := mergeRows(ctx, s, TableRegulation, set.Regulation, regulationValues); err != nil {
		return err
	}
	if err := mergeRows(ctx, s, TableCongestionHour, set.CongestionHour, congestionHourValues); err != nil {
		return err
	}
	return mergeRows(ctx, s, TableRoadHour, set.RoadHour, roadHourValues)
}

func (s *Postgres) Read5Min(ctx context.Context) (int64, error) {
	return s.countTables(ctx, FiveMinuteTables)
}

func (s *Postgres) Read1Hour(ctx context.Context) (int64, error) {
	return s.countTables(ctx, HourlyTables)
}

func (s *Postgres) Delete(ctx context.Context, scope string) error {
	if s.closed {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	tables, row, err := parseScope(scope)
	if err != nil {
		return err
	}
	if row != nil {
		return s.deleteRow(ctx, row)
	}
	for _, table := range tables {
		if _, err := s.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			s.metrics.RecordDBError(metrics.DBOperationDelete)
			return errors.WithStack(err)
		}
	}
	return nil
}

func (s *Postgres) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.db.Close()
	return nil
}

func (s *Postgres) createTable(ctx context.Context, table string) error {
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.db.Exec(ctx, destinationDDL(table)); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationCreateTable)
		return errors.WithStack(err)
	}
	if s.config.Postgres.Distributed {
		// Citus shards on the primary key so conflict detection stays shard local
		if _, err := s.db.Exec(ctx, fmt.Sprintf("SELECT create_distributed_table('%s', 'id')", table)); err != nil {
			s.metrics.RecordDBError(metrics.DBOperationCreateTable)
			return errors.WithStack(err)
		}
	}
	return nil
}

func (s *Postgres) tableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// countTables sums a full-scan count over each of the shape's tables. Tables
// that were never created count as zero so reads work on a fresh store.
func (s *Postgres) countTables(ctx context.Context, tables []string) (int64, error) {
	if s.closed {
		return 0, errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	var total int64
	for _, table := range tables {
		exists, err := s.tableExists(ctx, table)
		if err != nil {
			return 0, err
		}
		if !exists {
			continue
		}
		query, _, err := psql.From(goqu.T(table)).Select(goqu.COUNT("*")).ToSQL()
		if err != nil {
			return 0, errors.WithStack(err)
		}
		var count int64
		if err := s.db.QueryRow(ctx, query).Scan(&count); err != nil {
			s.metrics.RecordDBError(metrics.DBOperationRead)
			return 0, errors.WithStack(err)
		}
		total += count
	}
	return total, nil
}

// deleteRow removes one identified record and is a silent no-op when the
// table or the row does not exist.
func (s *Postgres) deleteRow(ctx context.Context, row *rowTarget) error {
	exists, err := s.tableExists(ctx, row.Table)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	query, args, err := psql.Delete(goqu.T(row.Table)).Where(goqu.I("id").Eq(row.Id)).Prepared(true).ToSQL()
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationDelete)
		return errors.WithStack(err)
	}
	return nil
}

// mergeRows feeds rows to the staged merge in sub-batches of at most
// batchSize. Partial success is at sub-batch granularity: every completed
// sub-batch has committed even if a later one fails.
func mergeRows[T any](ctx context.Context, s *Postgres, table string, rows []T, values func(T) []interface{}) error {
	for start := 0; start < len(rows); start += s.config.BatchSize {
		batch := rows[start:min(start+s.config.BatchSize, len(rows))]
		err := s.mergeBatch(ctx, table, len(batch), func(i int) ([]interface{}, error) {
			return values(batch[i]), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Postgres) mergeBatch(ctx context.Context, table string, n int, values func(i int) ([]interface{}, error)) error {
	tmpTable := database.UniqueTableName(table)

	createTmp := func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stagingDDL(tmpTable, table))
		if err != nil {
			s.metrics.RecordDBError(metrics.DBOperationCreateTempTable)
		}
		return err
	}

	insertTmp := func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{tmpTable},
			tableColumns[table],
			pgx.CopyFromSlice(n, values),
		)
		return err
	}

	copyToDest := func(tx pgx.Tx) error {
		ct, err := tx.Exec(
			ctx,
			fmt.Sprintf(`
				INSERT INTO %s (%s) SELECT * from %s
				ON CONFLICT (id) DO NOTHING`, table, strings.Join(tableColumns[table], ", "), tmpTable),
		)
		if err != nil {
			s.metrics.RecordDBError(metrics.DBOperationInsert)
			return err
		}
		inserted := int(ct.RowsAffected())
		if skipped := n - inserted; skipped > 0 {
			s.metrics.RecordRowsSkipped(table, skipped)
			log.Debugf("Skipped %d duplicate rows merging into %s", skipped, table)
		}
		s.metrics.RecordRowsLoaded(table, inserted)
		return nil
	}

	return batchInsert(ctx, s.db, createTmp, insertTmp, copyToDest)
}

func batchInsert(ctx context.Context, db *pgxpool.Pool, createTmp func(pgx.Tx) error,
	insertTmp func(pgx.Tx) error, copyToDest func(pgx.Tx) error,
) error {
	return pgx.BeginTxFunc(ctx, db, pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.Deferrable,
	}, func(tx pgx.Tx) error {
		// Create a temporary table to hold the staging data
		err := createTmp(tx)
		if err != nil {
			return err
		}

		err = insertTmp(tx)
		if err != nil {
			return err
		}

		err = copyToDest(tx)
		if err != nil {
			return err
		}
		return nil
	})
}

func congestionValues(r *model.CongestionRow) []interface{} {
	return []interface{}{r.Id, r.OfferDate, r.OfferDay, r.OfferHour, r.EventNo, r.CongestionDegree, r.CongestionLength}
}

func roadValues(r *model.RoadRow) []interface{} {
	return []interface{}{
		r.Id, r.PrefNo, r.CourseNo, r.CourseName, r.DirName,
		r.LowKp, r.LowLatitude, r.LowLongitude, r.LowAltitude, r.LowSpotName, r.LowCitynameCode,
		r.UpKp, r.UpLatitude, r.UpLongitude, r.UpAltitude, r.UpSpotName, r.UpCitynameCode,
	}
}

func regulationValues(r *model.RegulationRow) []interface{} {
	return []interface{}{r.Id, r.Time, r.EventNo, r.EventSeq, r.Regulation, r.LinkDistance, r.Reason}
}

func congestionHourValues(r *model.CongestionHourRow) []interface{} {
	return []interface{}{
		r.Id, r.Time, r.AllCount, r.LightCongestion, r.HeavyCongestion,
		r.AverageLength, r.MaxLength, r.CongestionTime, r.CongestionAmount, r.LinkLength,
	}
}

func roadHourValues(r *model.RoadHourRow) []interface{} {
	return []interface{}{
		r.Id, r.RoadName, r.Direction, r.DwLocation, r.DwLatitude, r.DwLongitude,
		r.UpLocation, r.UpLatitude, r.UpLongitude,
	}
}

func min(a int, b int) int {
	if a < b {
		return a
	}
	return b
}
