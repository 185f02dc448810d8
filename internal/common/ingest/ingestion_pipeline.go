package ingest

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trafficlab/roadbench/internal/chunk"
	commonmetrics "github.com/trafficlab/roadbench/internal/common/ingest/metrics"
)

// Source yields chunks of raw rows and reports io.EOF once exhausted.
type Source interface {
	Next() (*chunk.Chunk, error)
	Close() error
}

// InstructionConverter should be implemented by structs that can convert a chunk of raw rows
// into an object suitable for passing to the sink
type InstructionConverter[T any] interface {
	Convert(ctx context.Context, c *chunk.Chunk) (T, error)
}

// Sink should be implemented by the struct responsible for putting the data in its final
// resting place, e.g. a database.
type Sink[T any] interface {
	// Store persists the converted chunk. Failed stores are not retried; the
	// error fails the whole load.
	Store(ctx context.Context, msg T) error
}

// IngestionPipeline reads a delimited file chunk by chunk and inserts each chunk into a
// sink before fetching the next one, so memory usage stays flat regardless of file size.
// Callers must supply two structs, an InstructionConverter for turning raw rows into
// something the sink understands and a Sink capable of storing these objects.
type IngestionPipeline[T any] struct {
	source    Source
	converter InstructionConverter[T]
	sink      Sink[T]
	metrics   *commonmetrics.Metrics
}

func NewIngestionPipeline[T any](
	source Source,
	converter InstructionConverter[T],
	sink Sink[T],
	metrics *commonmetrics.Metrics,
) *IngestionPipeline[T] {
	return &IngestionPipeline[T]{
		source:    source,
		converter: converter,
		sink:      sink,
		metrics:   metrics,
	}
}

// Run drains the source until it is exhausted or the context is cancelled. The
// first error from the source, the converter or the sink aborts the run.
func (ingester *IngestionPipeline[T]) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		c, err := ingester.source.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			ingester.metrics.RecordFileReadError()
			return err
		}

		converted, err := ingester.converter.Convert(ctx, c)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := ingester.sink.Store(ctx, converted); err != nil {
			return err
		}
		log.Debugf("Stored %d rows in %dms", len(c.Rows), time.Since(start).Milliseconds())
	}
}
