package codec

// Option applies a configuration option to the Decoder.
type Option func(*Decoder)

// WithSortActions controls whether actions are stably re-ordered by
// timestamp after decoding.
func WithSortActions(enabled bool) Option {
	return func(d *Decoder) {
		d.sortActions = enabled
	}
}

// WithMaxBytes bounds the size of a document read from a stream.
func WithMaxBytes(n int64) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}
