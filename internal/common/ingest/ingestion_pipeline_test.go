package ingest

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trafficlab/roadbench/internal/chunk"
	"github.com/trafficlab/roadbench/internal/common/ingest/metrics"
)

var testMetrics = metrics.NewMetrics("test")

var (
	chunkOne = &chunk.Chunk{
		Columns:   []string{"id", "traffic"},
		FirstLine: 2,
		Rows:      [][]string{{"1", "17"}, {"2", "3"}},
	}
	chunkTwo = &chunk.Chunk{
		Columns:   []string{"id", "traffic"},
		FirstLine: 4,
		Rows:      [][]string{{"3", "0"}},
	}
)

type stubSource struct {
	chunks []*chunk.Chunk
	idx    int
	err    error // returned once the chunks are exhausted, in place of io.EOF
}

func (s *stubSource) Next() (*chunk.Chunk, error) {
	if s.idx < len(s.chunks) {
		c := s.chunks[s.idx]
		s.idx++
		return c, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

func (s *stubSource) Close() error {
	return nil
}

type idConverter struct {
	err error
}

func (c *idConverter) Convert(ctx context.Context, chunk *chunk.Chunk) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	ids := make([]string, 0, len(chunk.Rows))
	for _, row := range chunk.Rows {
		ids = append(ids, row[0])
	}
	return ids, nil
}

type collectingSink struct {
	stored []string
	calls  int
	err    error
}

func (s *collectingSink) Store(ctx context.Context, ids []string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, ids...)
	return nil
}

func TestRun_HappyPath_SingleChunk(t *testing.T) {
	sink := &collectingSink{}
	pipeline := NewIngestionPipeline[[]string](&stubSource{chunks: []*chunk.Chunk{chunkOne}}, &idConverter{}, sink, testMetrics)

	err := pipeline.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, sink.stored)
}

func TestRun_HappyPath_MultipleChunks(t *testing.T) {
	sink := &collectingSink{}
	pipeline := NewIngestionPipeline[[]string](&stubSource{chunks: []*chunk.Chunk{chunkOne, chunkTwo}}, &idConverter{}, sink, testMetrics)

	err := pipeline.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, sink.stored)
	assert.Equal(t, 2, sink.calls)
}

func TestRun_SourceErrorAbortsRun(t *testing.T) {
	sink := &collectingSink{}
	source := &stubSource{chunks: []*chunk.Chunk{chunkOne}, err: errors.New("disk gone")}
	pipeline := NewIngestionPipeline[[]string](source, &idConverter{}, sink, testMetrics)

	err := pipeline.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"1", "2"}, sink.stored)
}

func TestRun_ConverterErrorAbortsRun(t *testing.T) {
	sink := &collectingSink{}
	converter := &idConverter{err: errors.New("bad cell")}
	pipeline := NewIngestionPipeline[[]string](&stubSource{chunks: []*chunk.Chunk{chunkOne}}, converter, sink, testMetrics)

	err := pipeline.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, sink.calls)
}

func TestRun_SinkErrorAbortsRun(t *testing.T) {
	sink := &collectingSink{err: errors.New("connection reset")}
	pipeline := NewIngestionPipeline[[]string](&stubSource{chunks: []*chunk.Chunk{chunkOne, chunkTwo}}, &idConverter{}, sink, testMetrics)

	err := pipeline.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, sink.calls)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &collectingSink{}
	pipeline := NewIngestionPipeline[[]string](&stubSource{chunks: []*chunk.Chunk{chunkOne}}, &idConverter{}, sink, testMetrics)

	err := pipeline.Run(ctx)
	assert.Error(t, err)
	assert.Equal(t, 0, sink.calls)
}
