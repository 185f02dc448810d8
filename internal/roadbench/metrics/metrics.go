package metrics

import (
	"github.com/trafficlab/roadbench/internal/common/ingest/metrics"
)

var m = metrics.NewMetrics(metrics.RoadbenchIngesterMetricsPrefix)

func Get() *metrics.Metrics {
	return m
}
