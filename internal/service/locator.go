package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/streamloc/streamloc"
	"github.com/streamloc/streamloc/internal/checkpoint"
	"github.com/streamloc/streamloc/internal/config"
)

// Locator answers position queries against files on behalf of the CLI,
// warm-starting from and saving back to the checkpoint store when enabled.
type Locator struct {
	cfg   *config.Config
	store checkpoint.Store // nil when checkpoints are disabled
}

// IndexReport summarizes a fully indexed file.
type IndexReport struct {
	Path  string
	Lines int64
	Bytes int64
}

// New creates a new locator service
func New(cfg *config.Config) (*Locator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	l := &Locator{cfg: cfg}

	if cfg.CheckpointEnabled {
		store, err := checkpoint.NewBoltDBStore(cfg.CheckpointPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		l.store = store
	}

	return l, nil
}

// Close releases the checkpoint store.
func (l *Locator) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}

// LineColOf returns the zero-based location of a byte offset in the file at path.
func (l *Locator) LineColOf(ctx context.Context, path string, offset int64) (streamloc.Location, error) {
	queryID := uuid.New().String()
	ctx, span := startSpan(ctx, "locator.line_col_of",
		attribute.String("file.path", path),
		attribute.Int64("query.offset", offset),
		attribute.String("query.id", queryID),
	)

	var loc streamloc.Location
	err := l.withStream(ctx, path, queryID, func(s *streamloc.Stream) error {
		var err error
		loc, err = s.LineColOf(streamloc.NewOffset(offset))
		return err
	})
	endSpan(span, err, "line_col_of")
	if err != nil {
		return streamloc.Location{}, err
	}

	log.Debug().
		Str("query_id", queryID).
		Str("path", path).
		Int64("offset", offset).
		Int64("line", loc.Line).
		Int64("column", loc.Column).
		Msg("Offset located")

	return loc, nil
}

// OffsetOf returns the byte offset of a zero-based location in the file at path.
func (l *Locator) OffsetOf(ctx context.Context, path string, loc streamloc.Location) (int64, error) {
	queryID := uuid.New().String()
	ctx, span := startSpan(ctx, "locator.offset_of",
		attribute.String("file.path", path),
		attribute.Int64("query.line", loc.Line),
		attribute.Int64("query.column", loc.Column),
		attribute.String("query.id", queryID),
	)

	var off streamloc.Offset
	err := l.withStream(ctx, path, queryID, func(s *streamloc.Stream) error {
		var err error
		off, err = s.OffsetOf(loc)
		return err
	})
	endSpan(span, err, "offset_of")
	if err != nil {
		return 0, err
	}

	log.Debug().
		Str("query_id", queryID).
		Str("path", path).
		Int64("line", loc.Line).
		Int64("column", loc.Column).
		Int64("offset", off.Raw()).
		Msg("Location resolved")

	return off.Raw(), nil
}

// Index reads the file to EOF, indexing every line, and reports the totals.
func (l *Locator) Index(ctx context.Context, path string) (*IndexReport, error) {
	queryID := uuid.New().String()
	ctx, span := startSpan(ctx, "locator.index",
		attribute.String("file.path", path),
		attribute.String("query.id", queryID),
	)

	report := &IndexReport{Path: path}
	err := l.withStream(ctx, path, queryID, func(s *streamloc.Stream) error {
		if err := s.Drain(); err != nil {
			return err
		}
		report.Lines = s.Lines()
		report.Bytes = s.BytesRead()
		return nil
	})
	endSpan(span, err, "index")
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("query_id", queryID).
		Str("path", path).
		Int64("lines", report.Lines).
		Int64("bytes", report.Bytes).
		Msg("File indexed")

	return report, nil
}

// Checkpoints returns the indexed high-water mark for every checkpointed file.
func (l *Locator) Checkpoints(ctx context.Context) (map[string]int64, error) {
	if l.store == nil {
		return nil, fmt.Errorf("checkpoints are disabled")
	}
	return l.store.List(ctx)
}

// ClearCheckpoint removes the stored checkpoint for a file.
func (l *Locator) ClearCheckpoint(ctx context.Context, path string) error {
	if l.store == nil {
		return fmt.Errorf("checkpoints are disabled")
	}
	return l.store.Delete(ctx, path)
}

// withStream opens path, runs fn against a stream over it, and saves the
// resulting index state back to the checkpoint store when possible.
func (l *Locator) withStream(ctx context.Context, path, queryID string, fn func(*streamloc.Stream) error) error {
	src, err := streamloc.OpenFile(path)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := []streamloc.Option{
		streamloc.WithChunkSize(l.cfg.ChunkSize),
		streamloc.WithName(queryID),
	}

	s, err := l.restoreStream(ctx, path, src, opts)
	if err != nil {
		return err
	}

	if err := fn(s); err != nil {
		return err
	}

	l.saveCheckpoint(ctx, path, src, s)
	return nil
}

// restoreStream warm-starts from a stored checkpoint when the source is
// seekable (plain files) and the checkpoint still matches the file.
func (l *Locator) restoreStream(ctx context.Context, path string, src io.Reader, opts []streamloc.Option) (*streamloc.Stream, error) {
	if l.store == nil {
		return streamloc.New(src, opts...), nil
	}
	if _, ok := src.(io.Seeker); !ok {
		// Decompressed sources cannot seek to the high-water mark.
		return streamloc.New(src, opts...), nil
	}

	rec, err := l.store.Get(ctx, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read checkpoint, indexing from scratch")
		return streamloc.New(src, opts...), nil
	}
	if rec == nil {
		return streamloc.New(src, opts...), nil
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !rec.Valid(stat.Size()) {
		log.Warn().
			Str("path", path).
			Int64("high_water", rec.HighWater).
			Int64("file_size", stat.Size()).
			Msg("File shrank below checkpoint, discarding it")
		if err := l.store.Delete(ctx, path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to delete stale checkpoint")
		}
		return streamloc.New(src, opts...), nil
	}

	s, err := streamloc.NewFromSnapshot(src, streamloc.Snapshot{
		LineStarts: rec.LineStarts,
		HighWater:  rec.HighWater,
	}, opts...)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to restore checkpoint, indexing from scratch")
		// The failed restore may have moved the cursor.
		if _, serr := src.(io.Seeker).Seek(0, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("rewind %s: %w", path, serr)
		}
		return streamloc.New(src, opts...), nil
	}

	log.Debug().
		Str("path", path).
		Int64("high_water", rec.HighWater).
		Msg("Index restored from checkpoint")

	return s, nil
}

func (l *Locator) saveCheckpoint(ctx context.Context, path string, src io.Reader, s *streamloc.Stream) {
	if l.store == nil {
		return
	}
	if _, ok := src.(io.Seeker); !ok {
		return
	}

	stat, err := os.Stat(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to stat file, checkpoint not saved")
		return
	}

	snap := s.Snapshot()
	rec := &checkpoint.Record{
		LineStarts: snap.LineStarts,
		HighWater:  snap.HighWater,
		FileSize:   stat.Size(),
		FileMod:    stat.ModTime(),
	}
	if err := l.store.Put(ctx, path, rec); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to save checkpoint")
	}
}
