// Package benchmark measures wall clock time and process memory for the
// storage operations, backend by backend, merges in externally measured
// results and renders the comparison as terminal tables or csv files.
package benchmark

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
	"github.com/trafficlab/roadbench/internal/store"
)

// Operation identifies one measurable backend operation.
type Operation string

const (
	OperationInsert5Min  Operation = "insert_5min"
	OperationInsert1Hour Operation = "insert_1hour"
	OperationRead5Min    Operation = "read_5min"
	OperationRead1Hour   Operation = "read_1hour"
	OperationDelete      Operation = "delete"
)

// AllOperations returns every operation in presentation order.
func AllOperations() []Operation {
	return []Operation{
		OperationInsert5Min,
		OperationInsert1Hour,
		OperationRead5Min,
		OperationRead1Hour,
		OperationDelete,
	}
}

func ParseOperation(s string) (Operation, error) {
	for _, known := range AllOperations() {
		if Operation(s) == known {
			return known, nil
		}
	}
	return "", errors.Errorf("unknown operation %q", s)
}

// handlers dispatches each operation to the Backend method that implements
// it. Inserts take their data file from configuration; delete clears every
// managed target.
var handlers = map[Operation]func(ctx context.Context, backend store.Backend, config *configuration.RoadbenchConfiguration) error{
	OperationInsert5Min: func(ctx context.Context, backend store.Backend, config *configuration.RoadbenchConfiguration) error {
		return backend.Insert5Min(ctx, config.FiveMinuteFile)
	},
	OperationInsert1Hour: func(ctx context.Context, backend store.Backend, config *configuration.RoadbenchConfiguration) error {
		return backend.Insert1Hour(ctx, config.HourlyFile)
	},
	OperationRead5Min: func(ctx context.Context, backend store.Backend, config *configuration.RoadbenchConfiguration) error {
		count, err := backend.Read5Min(ctx)
		if err != nil {
			return err
		}
		log.Debugf("Read %d five minute rows from %s", count, backend.Name())
		return nil
	},
	OperationRead1Hour: func(ctx context.Context, backend store.Backend, config *configuration.RoadbenchConfiguration) error {
		count, err := backend.Read1Hour(ctx)
		if err != nil {
			return err
		}
		log.Debugf("Read %d hourly rows from %s", count, backend.Name())
		return nil
	},
	OperationDelete: func(ctx context.Context, backend store.Backend, config *configuration.RoadbenchConfiguration) error {
		return backend.Delete(ctx, store.ScopeAll)
	},
}

// Harness accumulates one sample per (operation, backend label) pair in
// three parallel maps, one per measured quantity.
type Harness struct {
	config *configuration.RoadbenchConfiguration
	times  map[Operation]map[string]float64
	uss    map[Operation]map[string]float64
	rss    map[Operation]map[string]float64
}

func NewHarness(config *configuration.RoadbenchConfiguration) *Harness {
	return &Harness{
		config: config,
		times:  map[Operation]map[string]float64{},
		uss:    map[Operation]map[string]float64{},
		rss:    map[Operation]map[string]float64{},
	}
}

// Measure runs one operation against one backend, recording elapsed seconds
// and the process rss/uss sampled right after the call returns. The
// operation's own error aborts the measurement and nothing is recorded for
// it.
func (h *Harness) Measure(ctx context.Context, backend store.Backend, op Operation) error {
	run, ok := handlers[op]
	if !ok {
		return errors.Errorf("unknown operation %q", op)
	}
	start := time.Now()
	if err := run(ctx, backend, h.config); err != nil {
		return errors.WithMessagef(err, "measuring %s on %s", op, backend.Name())
	}
	elapsed := time.Since(start).Seconds()

	rssMb, ussMb := processMemory()
	h.record(op, backend.Name(), elapsed, ussMb, rssMb)
	log.Infof("%s on %s took %.3fs (uss %.1f MB, rss %.1f MB)", op, backend.Name(), elapsed, ussMb, rssMb)
	return nil
}

// IntegrateExternal merges precomputed results under the configured external
// label. An existing sample under the same key is overwritten.
func (h *Harness) IntegrateExternal(results map[Operation]ExternalResult) {
	for op, result := range results {
		h.record(op, h.config.ExternalLabel, result.Seconds, result.USSMb, result.RSSMb)
	}
}

func (h *Harness) record(op Operation, label string, seconds float64, ussMb float64, rssMb float64) {
	recordSample(h.times, op, label, seconds)
	recordSample(h.uss, op, label, ussMb)
	recordSample(h.rss, op, label, rssMb)
}

func recordSample(samples map[Operation]map[string]float64, op Operation, label string, value float64) {
	byLabel, ok := samples[op]
	if !ok {
		byLabel = map[string]float64{}
		samples[op] = byLabel
	}
	byLabel[label] = value
}

// labels returns every backend label holding at least one sample, sorted so
// report columns come out in a stable order.
func (h *Harness) labels() []string {
	seen := map[string]bool{}
	for _, byLabel := range h.times {
		for label := range byLabel {
			seen[label] = true
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
