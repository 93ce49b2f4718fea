package streamloc

import "errors"

var (
	// ErrOffsetOutOfRange reports an offset beyond the total length of the
	// stream. It is only returned once the source has been fully exhausted,
	// since stream length is unknowable before that.
	ErrOffsetOutOfRange = errors.New("offset beyond end of stream")

	// ErrLineOutOfRange reports a line number beyond the number of lines in
	// the stream, detected the same way.
	ErrLineOutOfRange = errors.New("line beyond end of stream")
)

// errNeedMoreData is the internal signal from the line index to the Stream
// extension loop. It never escapes the public API.
var errNeedMoreData = errors.New("line index needs more data")
