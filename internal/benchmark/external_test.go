package benchmark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExternalFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// The precomputed files carry a PeakHeap header but no matching value on the
// data rows; the loader must tolerate the short rows.
func TestLoadExternalResults(t *testing.T) {
	path := writeExternalFile(t, "ignite.csv",
		"Operation,Time (ms),USS (KB),RSS (KB),PeakHeap (KB)\n"+
			"1hour,2000,102400,204800\n"+
			"5min_result.csv,500,51200,102400\n")

	results, err := LoadExternalResults([]string{path})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ExternalResult{Seconds: 2.0, USSMb: 100, RSSMb: 200}, results[OperationInsert1Hour])
	assert.Equal(t, ExternalResult{Seconds: 0.5, USSMb: 50, RSSMb: 100}, results[OperationInsert5Min])
}

func TestLoadExternalResults_CanonicalNamePassesThrough(t *testing.T) {
	path := writeExternalFile(t, "results.csv",
		"Operation,Time (ms),USS (KB),RSS (KB)\n"+
			"read_5min,100,1024,2048\n")

	results, err := LoadExternalResults([]string{path})
	require.NoError(t, err)
	assert.Equal(t, ExternalResult{Seconds: 0.1, USSMb: 1, RSSMb: 2}, results[OperationRead5Min])
}

func TestLoadExternalResults_LaterFilesWin(t *testing.T) {
	first := writeExternalFile(t, "first.csv",
		"Operation,Time (ms),USS (KB),RSS (KB)\n"+
			"1hour,1000,1024,1024\n")
	second := writeExternalFile(t, "second.csv",
		"Operation,Time (ms),USS (KB),RSS (KB)\n"+
			"1hour,3000,2048,2048\n")

	results, err := LoadExternalResults([]string{first, second})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ExternalResult{Seconds: 3.0, USSMb: 2, RSSMb: 2}, results[OperationInsert1Hour])
}

func TestLoadExternalResults_SkipsBlankRows(t *testing.T) {
	path := writeExternalFile(t, "results.csv",
		"Operation,Time (ms),USS (KB),RSS (KB)\n"+
			",,,\n"+
			"1hour,1000,1024,1024\n")

	results, err := LoadExternalResults([]string{path})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestLoadExternalResults_MissingOperationColumn(t *testing.T) {
	path := writeExternalFile(t, "results.csv",
		"Op,Time (ms)\n"+
			"1hour,1000\n")

	_, err := LoadExternalResults([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Operation column")
}

func TestLoadExternalResults_BadNumericCell(t *testing.T) {
	path := writeExternalFile(t, "results.csv",
		"Operation,Time (ms),USS (KB),RSS (KB)\n"+
			"1hour,fast,1024,1024\n")

	_, err := LoadExternalResults([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Time (ms)")
}

func TestLoadExternalResults_MissingFile(t *testing.T) {
	_, err := LoadExternalResults([]string{filepath.Join(t.TempDir(), "absent.csv")})
	assert.Error(t, err)
}

func TestLoadExternalResults_NoFiles(t *testing.T) {
	results, err := LoadExternalResults(nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
