package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"listing_watcher/internal/domain"
	"listing_watcher/internal/seen"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Extractor interface {
	Extract(html, category string) []domain.Listing
}

type SeenStore interface {
	Load(ctx context.Context) (seen.Set, error)
	Save(ctx context.Context, set seen.Set) error
}

// Sink receives the new listings of a cycle in discovery order.
type Sink interface {
	Append(ctx context.Context, listings []domain.Listing) error
}

type Publisher interface {
	Publish(ctx context.Context, listing *domain.Listing) error
	Close() error
}

type Reporter interface {
	Report(result *domain.PollResult)
}
