package api

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps the size of uploaded documents.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxListLimit caps the limit accepted by GET /scripts.
func WithMaxListLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}
