package chunk

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/trafficlab/roadbench/internal/common/roaderrors"
)

// Chunk is a consecutive run of data rows from a delimited file. Columns holds
// the header of the source file and is shared by every chunk from one reader.
type Chunk struct {
	Columns   []string
	FirstLine int
	Rows      [][]string
}

// Reader streams a delimited file as fixed size chunks so that an arbitrarily
// large file can be loaded without ever holding more than one chunk of rows in
// memory. Files ending in .gz are decompressed transparently.
type Reader struct {
	path      string
	chunkSize int
	file      *os.File
	gz        *gzip.Reader
	csv       *csv.Reader
	columns   []string
	line      int
}

func NewReader(path string, delimiter rune, chunkSize int) (*Reader, error) {
	if chunkSize < 1 {
		return nil, errors.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	var in io.Reader = f
	var gz *gzip.Reader
	if strings.HasSuffix(path, ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		in = gz
	}

	csvReader := csv.NewReader(in)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	header, err := csvReader.Read()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading header from %s", path)
	}

	return &Reader{
		path:      path,
		chunkSize: chunkSize,
		file:      f,
		gz:        gz,
		csv:       csvReader,
		columns:   header,
		line:      1,
	}, nil
}

// Columns returns the header of the source file.
func (r *Reader) Columns() []string {
	return r.columns
}

// Next returns the next chunk of up to chunkSize rows. It returns io.EOF once
// the file is exhausted. A row whose column count does not match the header
// fails the read with ErrRowFormat.
func (r *Reader) Next() (*Chunk, error) {
	c := &Chunk{
		Columns:   r.columns,
		FirstLine: r.line + 1,
		Rows:      make([][]string, 0, r.chunkSize),
	}
	for len(c.Rows) < r.chunkSize {
		row, err := r.csv.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", r.path)
		}
		r.line++
		if len(row) != len(r.columns) {
			return nil, &roaderrors.ErrRowFormat{Line: r.line, Expected: len(r.columns), Actual: len(row)}
		}
		c.Rows = append(c.Rows, row)
	}
	if len(c.Rows) == 0 {
		return nil, io.EOF
	}
	return c, nil
}

func (r *Reader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			r.file.Close()
			return err
		}
	}
	return r.file.Close()
}
