package streamloc

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingReader counts Read calls so tests can prove queries against
// indexed regions do not touch the source again.
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

// countingSeekReader is a seekable variant for snapshot warm-start tests.
type countingSeekReader struct {
	r     *bytes.Reader
	reads int
}

func (c *countingSeekReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func (c *countingSeekReader) Seek(offset int64, whence int) (int64, error) {
	return c.r.Seek(offset, whence)
}

// failOnceReader fails the first Read and then delegates.
type failOnceReader struct {
	r      io.Reader
	failed bool
}

var errTransient = errors.New("transient fault")

func (f *failOnceReader) Read(p []byte) (int, error) {
	if !f.failed {
		f.failed = true
		return 0, errTransient
	}
	return f.r.Read(p)
}

func TestStreamLineColOf(t *testing.T) {
	const content = "ab\r\ncd\n"

	tests := []struct {
		name    string
		offset  int64
		want    Location
		wantErr error
	}{
		{name: "start of stream", offset: 0, want: Location{Line: 0, Column: 0}},
		{name: "points at cr", offset: 2, want: Location{Line: 0, Column: 2}},
		{name: "right after crlf", offset: 4, want: Location{Line: 1, Column: 0}},
		{name: "end of stream", offset: 7, want: Location{Line: 2, Column: 0}},
		{name: "past end of stream", offset: 8, wantErr: ErrOffsetOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(strings.NewReader(content))
			got, err := s.LineColOf(NewOffset(tt.offset))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamOffsetOf(t *testing.T) {
	const content = "ab\r\ncd\nef"

	tests := []struct {
		name    string
		loc     Location
		want    int64
		wantErr error
	}{
		{name: "first line", loc: Location{Line: 0, Column: 2}, want: 2},
		{name: "second line start", loc: Location{Line: 1, Column: 0}, want: 4},
		{name: "last line without terminator", loc: Location{Line: 2, Column: 1}, want: 8},
		{name: "line past end of stream", loc: Location{Line: 3, Column: 0}, wantErr: ErrLineOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(strings.NewReader(content))
			got, err := s.OffsetOf(tt.loc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Raw())
		})
	}
}

func TestStreamEmpty(t *testing.T) {
	s := New(strings.NewReader(""))

	loc, err := s.LineColOf(NewOffset(0))
	require.NoError(t, err)
	assert.Equal(t, Location{Line: 0, Column: 0}, loc)

	_, err = s.LineColOf(NewOffset(1))
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)

	_, err = s.OffsetOf(Location{Line: 1, Column: 0})
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestStreamRoundTrip(t *testing.T) {
	const content = "first line\nsecond\r\n\nfourth with a lone \r inside\nlast"

	for _, chunkSize := range []int{1, 3, DefaultChunkSize} {
		s := New(strings.NewReader(content), WithChunkSize(chunkSize))
		for off := int64(0); off <= int64(len(content)); off++ {
			loc, err := s.LineColOf(NewOffset(off))
			require.NoError(t, err, "chunk %d offset %d", chunkSize, off)

			back, err := s.OffsetOf(loc)
			require.NoError(t, err, "chunk %d offset %d", chunkSize, off)
			assert.Equal(t, off, back.Raw(), "chunk %d offset %d", chunkSize, off)
		}
	}
}

func TestStreamOneBasedLineColOf(t *testing.T) {
	s := New(strings.NewReader("ab\ncd"))

	line, col, err := s.OneBasedLineColOf(NewOffset(4))
	require.NoError(t, err)
	assert.Equal(t, int64(2), line)
	assert.Equal(t, int64(2), col)
}

func TestStreamLineStart(t *testing.T) {
	s := New(strings.NewReader("ab\ncd\n"))

	off, err := s.LineStart(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), off.Raw())

	_, err = s.LineStart(7)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestStreamDoesNotRereadIndexedRegions(t *testing.T) {
	src := &countingReader{r: strings.NewReader("ab\ncd\nef\ngh\n")}
	s := New(src, WithChunkSize(4))

	loc, err := s.LineColOf(NewOffset(2))
	require.NoError(t, err)
	readsAfterFirst := src.reads
	assert.Equal(t, int64(4), s.BytesRead(), "should stop after one chunk")

	// Identical query: same answer, zero additional reads.
	again, err := s.LineColOf(NewOffset(2))
	require.NoError(t, err)
	assert.Equal(t, loc, again)
	assert.Equal(t, readsAfterFirst, src.reads)

	// A further query extends, and the table only ever grows.
	linesBefore := s.Lines()
	_, err = s.LineColOf(NewOffset(10))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Lines(), linesBefore)
}

func TestStreamFailedReadLeavesStateUntouched(t *testing.T) {
	s := New(&failOnceReader{r: strings.NewReader("ab\ncd\n")})

	_, err := s.LineColOf(NewOffset(4))
	require.ErrorIs(t, err, errTransient)
	assert.NotErrorIs(t, err, ErrOffsetOutOfRange)

	// Nothing was committed by the failing call.
	assert.Equal(t, int64(0), s.BytesRead())
	assert.Equal(t, int64(1), s.Lines())
	assert.False(t, s.Exhausted())

	// The same query succeeds once the source recovers.
	loc, err := s.LineColOf(NewOffset(4))
	require.NoError(t, err)
	assert.Equal(t, Location{Line: 1, Column: 1}, loc)
}

func TestStreamReadPassthroughFeedsIndex(t *testing.T) {
	src := &countingReader{r: strings.NewReader("ab\ncd\nef")}
	s := New(src)

	buf := make([]byte, 6)
	n, err := io.ReadFull(s, buf)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	assert.Equal(t, "ab\ncd\n", string(buf))

	// The consumed bytes are already indexed: no extra source reads.
	reads := src.reads
	loc, err := s.LineColOf(NewOffset(4))
	require.NoError(t, err)
	assert.Equal(t, Location{Line: 1, Column: 1}, loc)
	assert.Equal(t, reads, src.reads)

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(rest))
	assert.True(t, s.Exhausted())
	assert.Equal(t, int64(8), s.BytesRead())
}

func TestStreamDrain(t *testing.T) {
	s := New(strings.NewReader("ab\ncd\nef"))

	require.NoError(t, s.Drain())
	assert.True(t, s.Exhausted())
	assert.Equal(t, int64(8), s.BytesRead())
	assert.Equal(t, int64(3), s.Lines())

	// Draining an exhausted stream is a no-op.
	require.NoError(t, s.Drain())
}

func TestStreamSnapshotWarmStart(t *testing.T) {
	content := []byte("ab\ncd\nef\ngh\n")

	full := New(bytes.NewReader(content))
	require.NoError(t, full.Drain())
	snap := full.Snapshot()

	src := &countingSeekReader{r: bytes.NewReader(content)}
	warm, err := NewFromSnapshot(src, snap)
	require.NoError(t, err)

	// Everything below the high-water mark answers without touching the source.
	loc, err := warm.LineColOf(NewOffset(7))
	require.NoError(t, err)
	assert.Equal(t, Location{Line: 2, Column: 1}, loc)

	off, err := warm.OffsetOf(Location{Line: 3, Column: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(9), off.Raw())

	assert.Equal(t, 0, src.reads)
}

func TestStreamSnapshotResume(t *testing.T) {
	content := []byte("ab\ncd\nef\ngh\n")

	partial := New(bytes.NewReader(content), WithChunkSize(4))
	_, err := partial.LineColOf(NewOffset(2))
	require.NoError(t, err)
	snap := partial.Snapshot()
	require.Less(t, snap.HighWater, int64(len(content)))

	resumed, err := NewFromSnapshot(bytes.NewReader(content), snap, WithChunkSize(4))
	require.NoError(t, err)

	// Queries past the snapshot read only the unindexed suffix and still
	// line up with a clean full scan.
	loc, err := resumed.LineColOf(NewOffset(10))
	require.NoError(t, err)
	assert.Equal(t, Location{Line: 3, Column: 1}, loc)

	require.NoError(t, resumed.Drain())
	assert.Equal(t, int64(len(content)), resumed.BytesRead())
	assert.Equal(t, drained(t, content).Snapshot(), resumed.Snapshot())
}

func TestNewFromSnapshotRejectsCorruptSnapshot(t *testing.T) {
	_, err := NewFromSnapshot(strings.NewReader("x"), Snapshot{LineStarts: []int64{5}, HighWater: 9})
	assert.Error(t, err)
}

// drained indexes all of content through a fresh stream.
func drained(t *testing.T, content []byte) *Stream {
	t.Helper()
	s := New(bytes.NewReader(content))
	require.NoError(t, s.Drain())
	return s
}
