// Package streamloc converts between absolute byte offsets and (line, column)
// positions in a byte stream, indexing the stream lazily.
//
// A Stream wraps any io.Reader and records line-start offsets as bytes are
// pulled from it. Queries only read as far into the source as they need:
// asking for the location of offset 100 reads at most the first 100 bytes
// (rounded up to a chunk), and repeating a query against an already-indexed
// region reads nothing at all.
//
// Columns are byte counts, not character counts; callers that need grapheme
// columns must post-process with knowledge of the text encoding. Positions
// are zero-based internally, with Location.OneBased for diagnostic display.
//
// A Stream is not safe for concurrent use. Serialize access externally if
// multiple goroutines share one instance.
package streamloc
