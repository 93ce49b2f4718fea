package streamloc

import (
	"bytes"
	"fmt"
	"sort"
)

// lineIndex is the growing table of line-start offsets. starts[0] is always 0
// (the first line begins at the start of the stream, even when the stream is
// empty), entries are strictly increasing and only ever appended. The table
// is complete from offset 0 up to highWater and undefined beyond it.
//
// A line terminator is "\n" or "\r\n"; recording a line start after every
// '\n' covers both. A lone '\r' is not a terminator, so it counts toward the
// column like any other byte.
type lineIndex struct {
	starts    []int64
	highWater int64
}

func newLineIndex() *lineIndex {
	return &lineIndex{starts: []int64{0}}
}

// extend scans chunk for line terminators and appends a line start for each,
// then advances the high-water mark by len(chunk). Chunks must arrive in
// stream order with no gaps or overlaps: base must equal the current
// high-water mark, anything else is rejected before it can corrupt the table.
func (x *lineIndex) extend(chunk []byte, base int64) error {
	if base != x.highWater {
		return fmt.Errorf("non-contiguous extend: base %d, high-water mark %d", base, x.highWater)
	}
	for i := 0; ; {
		j := bytes.IndexByte(chunk[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
		x.starts = append(x.starts, base+int64(i))
	}
	x.highWater += int64(len(chunk))
	return nil
}

// locate finds the greatest line start <= off. An offset equal to a line
// start is column 0 of that line, not the trailing position of the previous
// one. Offsets past the high-water mark signal errNeedMoreData.
func (x *lineIndex) locate(off int64) (Location, error) {
	if off < 0 {
		return Location{}, fmt.Errorf("negative offset %d", off)
	}
	if off > x.highWater {
		return Location{}, errNeedMoreData
	}
	line := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > off }) - 1
	return Location{Line: int64(line), Column: off - x.starts[line]}, nil
}

// resolve is the inverse of locate. A column past the end of the line is not
// rejected: line length is only knowable once that line's terminator or EOF
// has been observed, so validation belongs to the caller.
func (x *lineIndex) resolve(loc Location) (int64, error) {
	if loc.Line < 0 || loc.Column < 0 {
		return 0, fmt.Errorf("negative location %s", loc)
	}
	if loc.Line >= int64(len(x.starts)) {
		return 0, errNeedMoreData
	}
	return x.starts[loc.Line] + loc.Column, nil
}

// lineStart returns the offset at which line begins, if that line has been
// indexed.
func (x *lineIndex) lineStart(line int64) (int64, error) {
	if line < 0 {
		return 0, fmt.Errorf("negative line %d", line)
	}
	if line >= int64(len(x.starts)) {
		return 0, errNeedMoreData
	}
	return x.starts[line], nil
}

func (x *lineIndex) lines() int64 {
	return int64(len(x.starts))
}

// snapshot copies the table out so it can outlive the index (checkpointing).
func (x *lineIndex) snapshot() Snapshot {
	starts := make([]int64, len(x.starts))
	copy(starts, x.starts)
	return Snapshot{LineStarts: starts, HighWater: x.highWater}
}

// restoreLineIndex rebuilds an index from a snapshot, validating the table
// invariants so a corrupt checkpoint cannot produce a corrupt index.
func restoreLineIndex(snap Snapshot) (*lineIndex, error) {
	if len(snap.LineStarts) == 0 || snap.LineStarts[0] != 0 {
		return nil, fmt.Errorf("invalid snapshot: first line start must be 0")
	}
	starts := make([]int64, len(snap.LineStarts))
	copy(starts, snap.LineStarts)
	for i := 1; i < len(starts); i++ {
		if starts[i] <= starts[i-1] {
			return nil, fmt.Errorf("invalid snapshot: line starts not strictly increasing at %d", i)
		}
	}
	if snap.HighWater < starts[len(starts)-1] {
		return nil, fmt.Errorf("invalid snapshot: high-water mark %d below last line start %d",
			snap.HighWater, starts[len(starts)-1])
	}
	return &lineIndex{starts: starts, highWater: snap.HighWater}, nil
}
