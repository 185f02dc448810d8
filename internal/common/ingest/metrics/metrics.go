package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBOperation string

const (
	DBOperationRead            DBOperation = "read"
	DBOperationInsert          DBOperation = "insert"
	DBOperationDelete          DBOperation = "delete"
	DBOperationCreateTable     DBOperation = "create_table"
	DBOperationCreateTempTable DBOperation = "create_temp_table"
)

const (
	RoadbenchIngesterMetricsPrefix = "roadbench_ingester_"
)

type Metrics struct {
	dbErrorsCounter      *prometheus.CounterVec
	rowsLoadedCounter    *prometheus.CounterVec
	rowsSkippedCounter   *prometheus.CounterVec
	fileReadErrorCounter prometheus.Counter
}

func NewMetrics(prefix string) *Metrics {
	dbErrorsCounterOpts := prometheus.CounterOpts{
		Name: prefix + "db_errors",
		Help: "Number of database errors grouped by database operation",
	}
	rowsLoadedCounterOpts := prometheus.CounterOpts{
		Name: prefix + "rows_loaded",
		Help: "Number of rows merged into their destination grouped by target",
	}
	rowsSkippedCounterOpts := prometheus.CounterOpts{
		Name: prefix + "rows_skipped",
		Help: "Number of duplicate rows discarded by the merge step grouped by target",
	}
	fileReadErrorCounterOpts := prometheus.CounterOpts{
		Name: prefix + "file_read_errors",
		Help: "Number of errors encountered while reading source files",
	}
	return &Metrics{
		dbErrorsCounter:      promauto.NewCounterVec(dbErrorsCounterOpts, []string{"operation"}),
		rowsLoadedCounter:    promauto.NewCounterVec(rowsLoadedCounterOpts, []string{"target"}),
		rowsSkippedCounter:   promauto.NewCounterVec(rowsSkippedCounterOpts, []string{"target"}),
		fileReadErrorCounter: promauto.NewCounter(fileReadErrorCounterOpts),
	}
}

func (m *Metrics) RecordDBError(operation DBOperation) {
	m.dbErrorsCounter.With(map[string]string{"operation": string(operation)}).Inc()
}

func (m *Metrics) RecordRowsLoaded(target string, count int) {
	m.rowsLoadedCounter.With(map[string]string{"target": target}).Add(float64(count))
}

func (m *Metrics) RecordRowsSkipped(target string, count int) {
	m.rowsSkippedCounter.With(map[string]string{"target": target}).Add(float64(count))
}

func (m *Metrics) RecordFileReadError() {
	m.fileReadErrorCounter.Inc()
}
