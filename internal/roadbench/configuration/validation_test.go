package configuration

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() RoadbenchConfiguration {
	return RoadbenchConfiguration{
		ChunkSize:      1000,
		BatchSize:      500,
		Mode:           "print",
		Operations:     []string{"insert_5min", "read_5min"},
		Backends:       []string{"memory"},
		FiveMinuteFile: "data/5min.tsv",
		HourlyFile:     "data/1hour.csv",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingChunkSize(t *testing.T) {
	config := validConfig()
	config.ChunkSize = 0
	assertInvalidField(t, config, "ChunkSize")
}

func TestValidate_UnknownMode(t *testing.T) {
	config := validConfig()
	config.Mode = "xml"
	assertInvalidField(t, config, "Mode")
}

func TestValidate_NoBackends(t *testing.T) {
	config := validConfig()
	config.Backends = nil
	assertInvalidField(t, config, "Backends")
}

func TestValidate_EmptyDataFilesAreAllowed(t *testing.T) {
	config := validConfig()
	config.FiveMinuteFile = ""
	config.HourlyFile = ""
	assert.NoError(t, config.Validate())
}

func assertInvalidField(t *testing.T, config RoadbenchConfiguration, field string) {
	t.Helper()
	err := config.Validate()
	require.Error(t, err)
	validationErrors, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, validationErrors, 1)
	assert.Equal(t, field, validationErrors[0].Field())
}
