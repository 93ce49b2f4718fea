package streamloc

// Option configures a Stream.
type Option func(*Stream)

// WithChunkSize sets how many bytes each extension step reads from the
// source. Values < 1 fall back to DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.buf = make([]byte, n)
		}
	}
}

// WithName attaches a name to the stream for log correlation. Empty by
// default.
func WithName(name string) Option {
	return func(s *Stream) {
		s.name = name
	}
}
