package streamloc

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// DefaultChunkSize is how many bytes each extension step pulls from the
// source. Larger chunks trade memory for fewer reads.
const DefaultChunkSize = 32 * 1024

// Snapshot is a copy of the index state, suitable for persisting and for
// warm-starting a new Stream over the same content.
type Snapshot struct {
	LineStarts []int64
	HighWater  int64
}

// Stream wraps a byte source and answers offset ⇄ (line, column) queries
// against it, reading and indexing the source only as far as queries require.
//
// Every byte pulled from the source through Stream methods is accounted for
// in the index, so the source cursor and the indexed high-water mark never
// diverge. Reading the underlying source directly bypasses that bookkeeping
// and is the caller's own consistency problem.
type Stream struct {
	r         io.Reader
	idx       *lineIndex
	buf       []byte
	name      string
	exhausted bool
}

// New creates a Stream over r. Indexing starts at the reader's current
// position, which is treated as offset 0.
func New(r io.Reader, opts ...Option) *Stream {
	s := &Stream{r: r, idx: newLineIndex()}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.buf) == 0 {
		s.buf = make([]byte, DefaultChunkSize)
	}
	return s
}

// NewFromSnapshot creates a Stream that already knows the line structure up
// to the snapshot's high-water mark. If r is seekable the cursor is moved
// there; otherwise r must already be positioned at exactly that offset or
// every subsequent answer is garbage.
func NewFromSnapshot(r io.Reader, snap Snapshot, opts ...Option) (*Stream, error) {
	idx, err := restoreLineIndex(snap)
	if err != nil {
		return nil, err
	}
	if seeker, ok := r.(io.Seeker); ok {
		if _, err := seeker.Seek(snap.HighWater, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek to high-water mark %d: %w", snap.HighWater, err)
		}
	}
	s := New(r, opts...)
	s.idx = idx
	return s, nil
}

// LineColOf returns the zero-based location of off, extending the index as
// needed. Fails with ErrOffsetOutOfRange once the source is exhausted short
// of off.
func (s *Stream) LineColOf(off Offset) (Location, error) {
	for {
		loc, err := s.idx.locate(off.Raw())
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, errNeedMoreData) {
			return Location{}, err
		}
		if s.exhausted {
			return Location{}, fmt.Errorf("offset %d, stream length %d: %w",
				off.Raw(), s.idx.highWater, ErrOffsetOutOfRange)
		}
		if err := s.fill(); err != nil {
			return Location{}, err
		}
	}
}

// OneBasedLineColOf is LineColOf converted to one-based line and column
// numbers for display.
func (s *Stream) OneBasedLineColOf(off Offset) (int64, int64, error) {
	loc, err := s.LineColOf(off)
	if err != nil {
		return 0, 0, err
	}
	line, col := loc.OneBased()
	return line, col, nil
}

// OffsetOf returns the byte offset of a zero-based location, extending the
// index as needed. The column is not validated against the line's actual
// length. Fails with ErrLineOutOfRange once the source is exhausted with
// fewer lines than loc.Line+1.
func (s *Stream) OffsetOf(loc Location) (Offset, error) {
	for {
		off, err := s.idx.resolve(loc)
		if err == nil {
			return Offset(off), nil
		}
		if !errors.Is(err, errNeedMoreData) {
			return 0, err
		}
		if s.exhausted {
			return 0, fmt.Errorf("line %d, stream has %d line(s): %w",
				loc.Line, s.idx.lines(), ErrLineOutOfRange)
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
}

// LineStart returns the offset at which the given zero-based line begins.
func (s *Stream) LineStart(line int64) (Offset, error) {
	for {
		off, err := s.idx.lineStart(line)
		if err == nil {
			return Offset(off), nil
		}
		if !errors.Is(err, errNeedMoreData) {
			return 0, err
		}
		if s.exhausted {
			return 0, fmt.Errorf("line %d, stream has %d line(s): %w",
				line, s.idx.lines(), ErrLineOutOfRange)
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
}

// Read pulls bytes from the source for the caller while still feeding them
// through the index, so consuming content and querying positions can be
// interleaved on one Stream.
func (s *Stream) Read(p []byte) (int, error) {
	if s.exhausted {
		return 0, io.EOF
	}
	n, err := s.r.Read(p)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		if n > 0 {
			// base == highWater by construction, extend cannot fail.
			if cerr := s.idx.extend(p[:n], s.idx.highWater); cerr != nil {
				return 0, cerr
			}
		}
		if err != nil {
			s.exhausted = true
			return n, io.EOF
		}
		return n, nil
	default:
		return 0, fmt.Errorf("read source: %w", err)
	}
}

// Drain reads and indexes the rest of the source, consuming it.
func (s *Stream) Drain() error {
	for !s.exhausted {
		if err := s.fill(); err != nil {
			return err
		}
	}
	log.Trace().
		Str("stream", s.name).
		Int64("bytes", s.idx.highWater).
		Int64("lines", s.idx.lines()).
		Msg("Stream drained")
	return nil
}

// BytesRead returns the number of bytes consumed from the source so far, the
// high-water mark up to which the line table is complete.
func (s *Stream) BytesRead() int64 {
	return s.idx.highWater
}

// Lines returns the number of line starts observed so far. Only after Drain
// (or an exhausting query) is this the stream's total line count.
func (s *Stream) Lines() int64 {
	return s.idx.lines()
}

// Exhausted reports whether the source has returned end-of-data.
func (s *Stream) Exhausted() bool {
	return s.exhausted
}

// Snapshot copies out the current index state.
func (s *Stream) Snapshot() Snapshot {
	return s.idx.snapshot()
}

// fill pulls one chunk from the source and commits it to the index. A read
// that fails with anything but io.EOF commits nothing, even if it returned
// bytes: a failed call leaves the table and high-water mark untouched. With
// a source that cannot replay those bytes they are lost.
func (s *Stream) fill() error {
	n, err := s.r.Read(s.buf)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		if n > 0 {
			if cerr := s.idx.extend(s.buf[:n], s.idx.highWater); cerr != nil {
				return cerr
			}
			log.Trace().
				Str("stream", s.name).
				Int("chunk", n).
				Int64("high_water", s.idx.highWater).
				Msg("Index extended")
		}
		if err != nil {
			s.exhausted = true
		}
		return nil
	default:
		return fmt.Errorf("read source: %w", err)
	}
}
