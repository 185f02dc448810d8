// Package roadbench ties configuration, the storage backends and the
// measuring harness together into the entry points behind the cli.
package roadbench

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trafficlab/roadbench/internal/benchmark"
	"github.com/trafficlab/roadbench/internal/common"
	"github.com/trafficlab/roadbench/internal/common/app"
	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
	"github.com/trafficlab/roadbench/internal/roadbench/metrics"
	"github.com/trafficlab/roadbench/internal/store"
)

// Run measures every configured operation against every configured backend,
// merging precomputed external results in first, and reports the outcome.
// A failing operation abandons the rest of that backend's operations; the
// remaining backends still run. It stops early when a SIGINT or SIGTERM is
// received.
func Run(config *configuration.RoadbenchConfiguration) error {
	ctx := app.CreateContextWithShutdown()

	if config.MetricsPort != 0 {
		shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
		defer shutdownMetricServer()
	}

	operations := make([]benchmark.Operation, 0, len(config.Operations))
	for _, name := range config.Operations {
		op, err := benchmark.ParseOperation(name)
		if err != nil {
			return err
		}
		if op == benchmark.OperationInsert5Min && config.FiveMinuteFile == "" {
			log.Warnf("Skipping %s: no five minute dataset configured", op)
			continue
		}
		if op == benchmark.OperationInsert1Hour && config.HourlyFile == "" {
			log.Warnf("Skipping %s: no hourly dataset configured", op)
			continue
		}
		operations = append(operations, op)
	}

	harness := benchmark.NewHarness(config)
	external, err := benchmark.LoadExternalResults(config.ExternalResults)
	if err != nil {
		return err
	}
	harness.IntegrateExternal(external)

	backends := make([]store.Backend, 0, len(config.Backends))
	for _, name := range config.Backends {
		backend, err := store.NewBackend(ctx, name, config, metrics.Get())
		if err != nil {
			closeAll(backends)
			return errors.WithMessagef(err, "constructing backend %s", name)
		}
		backends = append(backends, backend)
	}

	for _, backend := range backends {
		for _, op := range operations {
			if err := harness.Measure(ctx, backend, op); err != nil {
				log.WithError(err).Errorf("Abandoning remaining operations on backend %s", backend.Name())
				break
			}
		}
	}
	closeAll(backends)

	if config.Mode == configuration.ModeSave {
		return harness.SaveCSV(config.OutputDir)
	}
	harness.Summarize(os.Stdout)
	return nil
}

// Load ingests one data file into one backend outside the measured suite.
func Load(config *configuration.RoadbenchConfiguration, backendName string, shape string, path string) error {
	ctx := app.CreateContextWithShutdown()
	backend, err := store.NewBackend(ctx, backendName, config, metrics.Get())
	if err != nil {
		return errors.WithMessagef(err, "constructing backend %s", backendName)
	}
	defer closeAll([]store.Backend{backend})

	switch shape {
	case store.ScopeFiveMinute:
		return backend.Insert5Min(ctx, path)
	case store.ScopeHourly:
		return backend.Insert1Hour(ctx, path)
	default:
		return errors.Errorf("unknown shape %q, expected %s or %s", shape, store.ScopeFiveMinute, store.ScopeHourly)
	}
}

// Delete removes the given scope from one backend.
func Delete(config *configuration.RoadbenchConfiguration, backendName string, scope string) error {
	ctx := app.CreateContextWithShutdown()
	backend, err := store.NewBackend(ctx, backendName, config, metrics.Get())
	if err != nil {
		return errors.WithMessagef(err, "constructing backend %s", backendName)
	}
	defer closeAll([]store.Backend{backend})

	return backend.Delete(ctx, scope)
}

func closeAll(backends []store.Backend) {
	for _, backend := range backends {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warnf("Error closing backend %s", backend.Name())
		}
	}
}
