package service

import (
	"context"

	"listing_watcher/internal/domain"
)

// Sinks appends to every sink in order and stops at the first failure.
// Sinks that are not idempotent on retry (the CSV log) belong last.
type Sinks []Sink

func (s Sinks) Append(ctx context.Context, listings []domain.Listing) error {
	for _, sink := range s {
		if err := sink.Append(ctx, listings); err != nil {
			return err
		}
	}
	return nil
}
