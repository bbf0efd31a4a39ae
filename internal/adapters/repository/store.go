// Package repository stores analyzed scripts and ranks them by average speed.
package repository

import (
	"context"
	"time"

	"github.com/okian/strokeheat/internal/domain/model"
)

// Record is one analyzed script in the library.
type Record struct {
	ID        string
	Digest    string
	Title     string
	Creator   string
	Tags      []string
	Stats     model.Stats
	Actions   []model.Action
	CreatedAt time.Time

	// Rank is filled on reads: 1 plus the number of records with a strictly
	// higher average speed.
	Rank int
}

// Store provides read/write access to the library. Records are ordered by
// average speed descending, then ID ascending.
type Store interface {
	// Put inserts r or replaces the record with the same ID.
	Put(ctx context.Context, r Record) error

	// Get returns the record with its rank, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// TopN returns up to n records in rank order. n must be positive.
	TopN(ctx context.Context, n int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}

// before reports whether a ranks ahead of b.
func before(aSpeed float64, aID string, bSpeed float64, bID string) bool {
	if aSpeed != bSpeed {
		return aSpeed > bSpeed
	}
	return aID < bID
}

// assignRanks sets competition ranks on a rank-ordered prefix of the library:
// equal speeds share a rank and the next distinct speed skips ahead.
func assignRanks(records []Record) {
	for i := range records {
		if i > 0 && records[i].Stats.AverageSpeed == records[i-1].Stats.AverageSpeed {
			records[i].Rank = records[i-1].Rank
			continue
		}
		records[i].Rank = i + 1
	}
}
