// Package history keeps a record of every site a run has built.
package history

import (
	"context"
	"time"
)

// Entry is one site's outcome within a run.
type Entry struct {
	RunID       string
	Domain      string
	Status      string
	Destination string
	Title       string
	HeroWord    string
	Port        int
	PID         int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Store persists history entries.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	ByRun(ctx context.Context, runID string) ([]Entry, error)
	Close() error
}

// NopStore discards entries; used when history is disabled.
type NopStore struct{}

func (NopStore) Record(context.Context, Entry) error            { return nil }
func (NopStore) Recent(context.Context, int) ([]Entry, error)   { return nil, nil }
func (NopStore) ByRun(context.Context, string) ([]Entry, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
