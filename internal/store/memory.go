package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trafficlab/roadbench/internal/chunk"
	"github.com/trafficlab/roadbench/internal/common/ingest"
	"github.com/trafficlab/roadbench/internal/common/ingest/metrics"
	"github.com/trafficlab/roadbench/internal/common/roaderrors"
	"github.com/trafficlab/roadbench/internal/mapper"
	"github.com/trafficlab/roadbench/internal/model"
	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
)

// Memory keeps every target as an id-keyed map. It exists so the loading and
// measuring machinery can be exercised without a database; the first write
// for an id wins, matching the conflict behaviour of the real backends.
type Memory struct {
	metrics *metrics.Metrics
	config  *configuration.RoadbenchConfiguration

	mu     sync.Mutex
	tables map[string]map[int64]interface{}
	closed bool
}

func NewMemory(config *configuration.RoadbenchConfiguration, m *metrics.Metrics) *Memory {
	return &Memory{
		metrics: m,
		config:  config,
		tables:  map[string]map[int64]interface{}{},
	}
}

func (s *Memory) Name() string {
	return "memory"
}

func (s *Memory) Insert5Min(ctx context.Context, path string) error {
	if s.isClosed() {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	source, err := chunk.NewReader(path, '\t', s.config.ChunkSize)
	if err != nil {
		return err
	}
	defer source.Close()
	return ingest.NewIngestionPipeline[*model.RecordSet](source, mapper.FiveMinute{}, s, s.metrics).Run(ctx)
}

func (s *Memory) Insert1Hour(ctx context.Context, path string) error {
	if s.isClosed() {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	source, err := chunk.NewReader(path, ',', s.config.ChunkSize)
	if err != nil {
		return err
	}
	defer source.Close()
	return ingest.NewIngestionPipeline[*model.RecordSet](source, mapper.Hourly{}, s, s.metrics).Run(ctx)
}

func (s *Memory) Store(_ context.Context, set *model.RecordSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsertRows(s, TableCongestion, set.Congestion, func(r *model.CongestionRow) int64 { return r.Id })
	upsertRows(s, TableRoad, set.Road, func(r *model.RoadRow) int64 { return r.Id })
	upsertRows(s, TableRegulation, set.Regulation, func(r *model.RegulationRow) int64 { return r.Id })
	upsertRows(s, TableCongestionHour, set.CongestionHour, func(r *model.CongestionHourRow) int64 { return r.Id })
	upsertRows(s, TableRoadHour, set.RoadHour, func(r *model.RoadHourRow) int64 { return r.Id })
	return nil
}

func (s *Memory) Read5Min(_ context.Context) (int64, error) {
	return s.countTables(FiveMinuteTables)
}

func (s *Memory) Read1Hour(_ context.Context) (int64, error) {
	return s.countTables(HourlyTables)
}

func (s *Memory) Delete(_ context.Context, scope string) error {
	if s.isClosed() {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	tables, row, err := parseScope(scope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row != nil {
		if rows, ok := s.tables[row.Table]; ok {
			delete(rows, row.Id)
		}
		return nil
	}
	for _, table := range tables {
		delete(s.tables, table)
	}
	return nil
}

func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Memory) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Memory) countTables(tables []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	var total int64
	for _, table := range tables {
		total += int64(len(s.tables[table]))
	}
	return total, nil
}

// upsertRows expects the caller to hold s.mu.
func upsertRows[T any](s *Memory, table string, rows []T, id func(T) int64) {
	if len(rows) == 0 {
		return
	}
	target, ok := s.tables[table]
	if !ok {
		target = map[int64]interface{}{}
		s.tables[table] = target
	}
	skipped := 0
	for _, row := range rows {
		key := id(row)
		if _, exists := target[key]; exists {
			skipped++
			continue
		}
		target[key] = row
	}
	s.metrics.RecordRowsLoaded(table, len(rows)-skipped)
	if skipped > 0 {
		s.metrics.RecordRowsSkipped(table, skipped)
	}
}
