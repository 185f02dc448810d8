// Package store contains the storage backends the measured operations run
// against. Every backend manages the same five targets (three for the five
// minute shape, two for the hourly shape) and exposes them through the
// Backend interface, so the harness never needs to know which store it is
// driving.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trafficlab/roadbench/internal/common/ingest/metrics"
	"github.com/trafficlab/roadbench/internal/common/roaderrors"
	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
)

// Backend is the contract between the harness and a store. Inserts are
// idempotent with respect to already loaded ids; reads return the total
// record count across the shape's targets; Delete removes whole shapes or a
// single identified row. No operation is valid after Close.
type Backend interface {
	Name() string
	Delete(ctx context.Context, scope string) error
	Insert5Min(ctx context.Context, path string) error
	Insert1Hour(ctx context.Context, path string) error
	Read5Min(ctx context.Context) (int64, error)
	Read1Hour(ctx context.Context) (int64, error)
	Close() error
}

// NewBackend constructs the named backend from configuration. Construction
// dials the store; an unreachable store fails here rather than on first use.
func NewBackend(ctx context.Context, name string, config *configuration.RoadbenchConfiguration, m *metrics.Metrics) (Backend, error) {
	switch name {
	case "postgres":
		return NewPostgres(config, m)
	case "mongo":
		return NewMongo(ctx, config, m)
	case "memory":
		return NewMemory(config, m), nil
	default:
		return nil, errors.Errorf("unknown backend %q", name)
	}
}

const (
	TableCongestion     = "congestion"
	TableRoad           = "road"
	TableRegulation     = "regulation"
	TableCongestionHour = "congestion_1hour"
	TableRoadHour       = "road_1hour"
)

// FiveMinuteTables and HourlyTables list each shape's targets in creation
// order.
var (
	FiveMinuteTables = []string{TableCongestion, TableRoad, TableRegulation}
	HourlyTables     = []string{TableCongestionHour, TableRoadHour}
)

// Delete scopes shared by every backend.
const (
	ScopeFiveMinute = "5min"
	ScopeHourly     = "1hour"
	ScopeAll        = "all"

	scopeRowPrefix = "row:"
)

// rowTarget identifies a single record for a row scoped delete.
type rowTarget struct {
	Table string
	Id    int64
}

// parseScope resolves a delete scope into either the list of tables the scope
// covers or the single row it names. Anything else, a row scope naming an
// unmanaged table included, is an unsupported scope.
func parseScope(scope string) ([]string, *rowTarget, error) {
	switch scope {
	case ScopeFiveMinute:
		return FiveMinuteTables, nil, nil
	case ScopeHourly:
		return HourlyTables, nil, nil
	case ScopeAll:
		return append(append([]string{}, FiveMinuteTables...), HourlyTables...), nil, nil
	}

	if strings.HasPrefix(scope, scopeRowPrefix) {
		parts := strings.Split(scope, ":")
		if len(parts) != 3 {
			return nil, nil, errors.WithStack(&roaderrors.ErrUnsupportedScope{Scope: scope, Message: "row scope must be row:<table>:<id>"})
		}
		table := parts[1]
		if !isManagedTable(table) {
			return nil, nil, errors.WithStack(&roaderrors.ErrUnsupportedScope{Scope: scope, Message: "unmanaged table " + table})
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, nil, errors.WithStack(&roaderrors.ErrUnsupportedScope{Scope: scope, Message: "id must be an integer"})
		}
		return nil, &rowTarget{Table: table, Id: id}, nil
	}

	return nil, nil, errors.WithStack(&roaderrors.ErrUnsupportedScope{Scope: scope})
}

func isManagedTable(table string) bool {
	switch table {
	case TableCongestion, TableRoad, TableRegulation, TableCongestionHour, TableRoadHour:
		return true
	}
	return false
}
