package service

import (
	"github.com/okian/strokeheat/internal/adapters/render"
	"github.com/okian/strokeheat/internal/adapters/repository"
	"github.com/okian/strokeheat/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the analysis queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of remembered document digests.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore sets the library backend. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.library = store
		}
	}
}

// WithTheme sets the render theme.
func WithTheme(t render.Theme) Option {
	return func(s *Service) {
		if t.Name != "" {
			s.theme = t
		}
	}
}

// WithStripSize sets the default strip size used when a request omits it.
func WithStripSize(width, height int) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.stripWidth = width
			s.stripHeight = height
		}
	}
}

// WithMaxStripHeight caps requested strip heights.
func WithMaxStripHeight(height int) Option {
	return func(s *Service) {
		if height > 0 {
			s.maxStripHeight = height
		}
	}
}

// WithSortActions controls whether out-of-order actions are sorted on decode.
func WithSortActions(sortActions bool) Option {
	return func(s *Service) {
		s.sortActions = sortActions
	}
}

// WithMaxDocumentBytes caps the size of decoded documents.
func WithMaxDocumentBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDocumentBytes = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
