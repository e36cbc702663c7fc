// Package export writes benchmark output: result rows as Parquet and
// cost-to-go windows as Arrow IPC streams.
package export

import (
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/23skdu/costfield/internal/errors"
)

// ResultRow is one benchmarked map.
type ResultRow struct {
	RunID             string  `parquet:"run_id"`
	Map               string  `parquet:"map"`
	Width             int32   `parquet:"width"`
	Height            int32   `parquet:"height"`
	Tasks             int32   `parquet:"tasks"`
	ChunkSize         int32   `parquet:"chunk_size"`
	Radius            int32   `parquet:"radius"`
	FastBreak         bool    `parquet:"fast_break"`
	Device            string  `parquet:"device"`
	SequentialSeconds float64 `parquet:"sequential_seconds"`
	DeviceSeconds     float64 `parquet:"device_seconds"`
	Speedup           float64 `parquet:"speedup"`
	StartedAt         int64   `parquet:"started_at_ms"`
}

// WriteResults writes rows as one zstd-compressed Parquet file.
func WriteResults(w io.Writer, rows []ResultRow) error {
	pw := parquet.NewGenericWriter[ResultRow](w, parquet.Compression(&parquet.Zstd))
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return errors.WrapStorageError(err, "write_results", "write rows failed")
		}
	}
	if err := pw.Close(); err != nil {
		return errors.WrapStorageError(err, "write_results", "close failed")
	}
	return nil
}

// WriteResultsFile creates path and writes rows to it.
func WriteResultsFile(path string, rows []ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapStorageError(err, "write_results", "create failed").WithContext("path", path)
	}
	if err := WriteResults(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapStorageError(err, "write_results", "close failed").WithContext("path", path)
	}
	return nil
}

// ReadResults reads every row of a results file.
func ReadResults(r io.ReaderAt, size int64) ([]ResultRow, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.WrapStorageError(err, "read_results", "open failed")
	}
	pr := parquet.NewGenericReader[ResultRow](pf)
	defer pr.Close()

	rows := make([]ResultRow, pr.NumRows())
	n, err := pr.Read(rows)
	if err != nil && err != io.EOF {
		return nil, errors.WrapStorageError(err, "read_results", "read rows failed")
	}
	return rows[:n], nil
}

// Millis converts t for ResultRow.StartedAt.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
