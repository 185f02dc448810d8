package configuration

import (
	"time"
)

// Report modes.
const (
	ModePrint = "print"
	ModeSave  = "save"
)

type RoadbenchConfiguration struct {
	// Number of data file rows read and converted per pipeline cycle
	ChunkSize int `validate:"required,gt=0"`
	// Number of rows or documents written per database round trip
	BatchSize int `validate:"required,gt=0"`
	// If non-zero, prometheus metrics are exposed on this port for the
	// duration of the run
	MetricsPort uint16
	// print renders the result tables to stdout, save writes them as csv
	// files under OutputDir
	Mode string `validate:"required,oneof=print save"`
	// Directory the csv reports are written to in save mode
	OutputDir string
	// Column label under which externally measured results are reported
	ExternalLabel string
	// Result csv files from external tools, merged into the report before
	// any measurements run
	ExternalResults []string
	// Operations to measure, in execution order
	Operations []string `validate:"required,min=1"`
	// Backends to measure each operation against
	Backends []string `validate:"required,min=1"`
	// Path to the five minute tsv dataset, plain or gzipped. When empty the
	// insert_5min operation is skipped.
	FiveMinuteFile string
	// Path to the hourly csv dataset, plain or gzipped. When empty the
	// insert_1hour operation is skipped.
	HourlyFile string

	Postgres PostgresConfig
	Mongo    MongoConfig
}

type PostgresConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Issue create_distributed_table after creating each table so Citus
	// shards it on the primary key
	Distributed bool
	Connection  map[string]string
}

type MongoConfig struct {
	Url      string
	Database string
}
