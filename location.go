package streamloc

import "fmt"

// Offset is a zero-based byte position in a stream.
type Offset int64

// NewOffset creates an Offset from a raw byte count.
func NewOffset(raw int64) Offset {
	return Offset(raw)
}

// Raw returns the offset as a plain byte count.
func (o Offset) Raw() int64 {
	return int64(o)
}

// Location is a zero-based (line, column) position. Column counts bytes
// within the line, not characters.
type Location struct {
	Line   int64
	Column int64
}

// NewLocation creates a Location from zero-based line and column numbers.
func NewLocation(line, column int64) Location {
	return Location{Line: line, Column: column}
}

// Raw returns the zero-based line and column numbers.
func (l Location) Raw() (int64, int64) {
	return l.Line, l.Column
}

// OneBased returns the position as one-based line and column numbers, the
// convention most diagnostic tooling reports.
func (l Location) OneBased() (int64, int64) {
	return l.Line + 1, l.Column + 1
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
