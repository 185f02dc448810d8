package roadbench

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
)

const appFiveMinuteData = "id\toffer_date\tevent_no\tcongestion_degree\n" +
	"1\t20161005\tE1\t1.5\n" +
	"2\t20161005\tE2\t2\n"

const appHourlyData = "id,time,allCount\n" +
	"1,2016-10-05 00:00,12\n" +
	"2,2016-10-05 01:00,9\n"

func appConfig(t *testing.T) *configuration.RoadbenchConfiguration {
	t.Helper()
	dir := t.TempDir()
	fiveMinute := filepath.Join(dir, "5min.tsv")
	require.NoError(t, os.WriteFile(fiveMinute, []byte(appFiveMinuteData), 0o644))
	hourly := filepath.Join(dir, "1hour.csv")
	require.NoError(t, os.WriteFile(hourly, []byte(appHourlyData), 0o644))
	return &configuration.RoadbenchConfiguration{
		ChunkSize:      10,
		BatchSize:      4,
		Mode:           configuration.ModeSave,
		OutputDir:      filepath.Join(dir, "results"),
		ExternalLabel:  "ignite",
		Operations:     []string{"insert_5min", "insert_1hour"},
		Backends:       []string{"memory"},
		FiveMinuteFile: fiveMinute,
		HourlyFile:     hourly,
	}
}

func TestRun_SaveMode(t *testing.T) {
	config := appConfig(t)
	require.NoError(t, Run(config))

	f, err := os.Open(filepath.Join(config.OutputDir, "execution_times.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, []string{"", "memory"}, rows[0])
	assert.Equal(t, "insert_5min", rows[1][0])
	assert.NotEmpty(t, rows[1][1])
	assert.Equal(t, "insert_1hour", rows[2][0])
	assert.NotEmpty(t, rows[2][1])
	// Operations that were not configured stay blank.
	assert.Equal(t, []string{"delete", ""}, rows[5])

	for _, name := range []string{"memory_uss.csv", "memory_rss.csv"} {
		_, err := os.Stat(filepath.Join(config.OutputDir, name))
		assert.NoError(t, err)
	}
}

func TestRun_IntegratesExternalResults(t *testing.T) {
	config := appConfig(t)
	external := filepath.Join(t.TempDir(), "ignite.csv")
	require.NoError(t, os.WriteFile(external, []byte(
		"Operation,Time (ms),USS (KB),RSS (KB),PeakHeap (KB)\n"+
			"1hour,2000,102400,204800\n"), 0o644))
	config.ExternalResults = []string{external}

	require.NoError(t, Run(config))

	f, err := os.Open(filepath.Join(config.OutputDir, "execution_times.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"", "ignite", "memory"}, rows[0])
	// insert_1hour row carries the converted external time in the ignite column.
	assert.Equal(t, "insert_1hour", rows[2][0])
	assert.Equal(t, "2", rows[2][1])
}

func TestRun_SkipsInsertsWithoutDataset(t *testing.T) {
	config := appConfig(t)
	config.FiveMinuteFile = ""

	require.NoError(t, Run(config))

	f, err := os.Open(filepath.Join(config.OutputDir, "execution_times.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"insert_5min", ""}, rows[1])
	assert.Equal(t, "insert_1hour", rows[2][0])
	assert.NotEmpty(t, rows[2][1])
}

func TestRun_UnknownOperation(t *testing.T) {
	config := appConfig(t)
	config.Operations = []string{"insert_5min", "defragment"}
	err := Run(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestRun_UnknownBackend(t *testing.T) {
	config := appConfig(t)
	config.Backends = []string{"memory", "cassandra"}
	err := Run(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestLoadAndDelete(t *testing.T) {
	config := appConfig(t)

	require.NoError(t, Load(config, "memory", "5min", config.FiveMinuteFile))
	require.NoError(t, Load(config, "memory", "1hour", config.HourlyFile))
	require.NoError(t, Delete(config, "memory", "all"))

	err := Load(config, "memory", "weekly", config.HourlyFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown shape")
}

func TestDelete_UnsupportedScope(t *testing.T) {
	config := appConfig(t)
	err := Delete(config, "memory", "geography")
	assert.Error(t, err)
}
