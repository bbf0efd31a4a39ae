package repository

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithMaxOpenConns bounds the connection pool.
func WithMaxOpenConns(n int) SQLiteOption {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds.
func WithBusyTimeout(ms int) SQLiteOption {
	return func(s *SQLiteStore) {
		if ms >= 0 {
			s.busyTimeoutMS = ms
		}
	}
}
