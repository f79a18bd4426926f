package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// insertBatch bounds the rows per INSERT statement inside a chunk, keeping
// every dialect under its bind-parameter limit.
const insertBatch = 1000

// WriteResult reports what a Write call committed.
type WriteResult struct {
	HeaderRows int
	LineRows   int
	Chunks     int
}

// Writer persists datasets in committed chunks.
type Writer struct {
	store *Store

	// OnChunk, when set, is called after every committed chunk.
	OnChunk func(table string, rows int)
}

// Writer returns a chunked writer for the output tables.
func (s *Store) Writer() *Writer {
	return &Writer{store: s}
}

// Write inserts all headers, then all lines. Each chunk of rows is
// committed in its own transaction. The first failing chunk stops the
// write; chunks committed before it stay in place.
func (w *Writer) Write(ctx context.Context, ds *types.Dataset) (WriteResult, error) {
	var res WriteResult

	n, chunks, err := writeChunks(ctx, w, w.store.headers, headerRows(ds.Headers))
	res.HeaderRows, res.Chunks = n, chunks
	if err != nil {
		return res, err
	}

	n, chunks, err = writeChunks(ctx, w, w.store.lines, lineRows(ds.Lines))
	res.LineRows, res.Chunks = n, res.Chunks+chunks
	if err != nil {
		return res, err
	}

	w.store.log.Info().
		Int("headers", res.HeaderRows).
		Int("lines", res.LineRows).
		Int("chunks", res.Chunks).
		Msg("dataset written")
	return res, nil
}

func writeChunks[T any](ctx context.Context, w *Writer, table string, rows []T) (written, chunks int, err error) {
	s := w.store
	total := len(rows)

	for start := 0; start < total; start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return written, chunks, fmt.Errorf("write %s: %w", table, err)
		}

		end := min(start+s.chunkSize, total)
		chunk := rows[start:end]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Table(table).CreateInBatches(chunk, insertBatch).Error
		})
		if err != nil {
			return written, chunks, classify(fmt.Sprintf("write %s rows %d-%d", table, start+1, end), err)
		}

		written += len(chunk)
		chunks++
		s.log.Info().
			Str("table", table).
			Int("written", written).
			Int("total", total).
			Msg("chunk committed")
		if w.OnChunk != nil {
			w.OnChunk(table, len(chunk))
		}
	}
	return written, chunks, nil
}
