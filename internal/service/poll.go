package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"listing_watcher/internal/config"
	"listing_watcher/internal/domain"
)

type PollService struct {
	categories []domain.Category
	fetcher    Fetcher
	extractor  Extractor
	seenStore  SeenStore
	sink       Sink
	publisher  Publisher
	reporter   Reporter
	logger     *slog.Logger
	config     config.PollConfig
}

// NewPollService wires a poll cycle. publisher and reporter may be nil.
func NewPollService(
	categories []domain.Category,
	fetcher Fetcher,
	extractor Extractor,
	seenStore SeenStore,
	sink Sink,
	publisher Publisher,
	reporter Reporter,
	logger *slog.Logger,
	cfg config.PollConfig,
) *PollService {
	return &PollService{
		categories: categories,
		fetcher:    fetcher,
		extractor:  extractor,
		seenStore:  seenStore,
		sink:       sink,
		publisher:  publisher,
		reporter:   reporter,
		logger:     logger,
		config:     cfg,
	}
}

type page struct {
	html string
	err  error
}

// RunOnce performs one poll cycle over all configured categories.
//
// A failing category is recorded in the result and does not stop the
// cycle. Failing to load the seen-set, append new listings or save the
// seen-set is fatal for the cycle. When the append fails the seen-set is
// left untouched so the same listings are reported again next cycle.
func (s *PollService) RunOnce(ctx context.Context) (*domain.PollResult, error) {
	startTime := time.Now()
	result := &domain.PollResult{
		CycleID:           uuid.NewString(),
		PerCategoryCounts: make(map[string]int, len(s.categories)),
	}
	logger := s.logger.With("cycle_id", result.CycleID)

	logger.Info("starting poll cycle", "categories", len(s.categories))

	set, err := s.seenStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen set: %w", err)
	}

	pages := s.fetchAll(ctx)

	for i, cat := range s.categories {
		if err := pages[i].err; err != nil {
			fetchErr := &domain.FetchError{Category: cat.Name, URL: cat.URL, Err: err}
			logger.Error("category fetch failed", "category", cat.Name, "url", cat.URL, "error", err)

			result.PerCategoryCounts[cat.Name] = 0
			result.Errors = append(result.Errors, domain.CategoryError{
				Category: cat.Name,
				URL:      cat.URL,
				Err:      fetchErr,
			})
			continue
		}

		listings := s.extractor.Extract(pages[i].html, cat.Name)
		result.PerCategoryCounts[cat.Name] = len(listings)

		fresh := 0
		for _, listing := range listings {
			if !set.IsNew(listing.ID) {
				continue
			}
			set.MarkSeen(listing.ID)
			result.NewRecords = append(result.NewRecords, listing)
			fresh++
		}

		logger.Debug("category processed", "category", cat.Name, "found", len(listings), "new", fresh)
	}

	if len(result.NewRecords) > 0 {
		if err := s.sink.Append(ctx, result.NewRecords); err != nil {
			return result, fmt.Errorf("append new listings: %w", err)
		}
	}

	if err := s.seenStore.Save(ctx, set); err != nil {
		return result, fmt.Errorf("save seen set: %w", err)
	}

	if s.publisher != nil {
		for i := range result.NewRecords {
			listing := &result.NewRecords[i]
			if err := s.publisher.Publish(ctx, listing); err != nil {
				logger.Warn("publish failed", "id", listing.ID, "error", err)
				continue
			}
			result.Published++
		}
	}

	result.Duration = time.Since(startTime)

	if s.reporter != nil {
		s.reporter.Report(result)
	}

	logger.Info("poll cycle completed",
		"new", len(result.NewRecords),
		"failed_categories", len(result.Errors),
		"seen", set.Len(),
		"published", result.Published,
		"duration", result.Duration,
	)

	return result, nil
}

// fetchAll downloads every category page. Results are slotted by index
// so processing keeps the configured order regardless of concurrency.
func (s *PollService) fetchAll(ctx context.Context) []page {
	pages := make([]page, len(s.categories))

	if s.config.FetchConcurrency <= 1 {
		for i, cat := range s.categories {
			pages[i].html, pages[i].err = s.fetcher.Fetch(ctx, cat.URL)
		}
		return pages
	}

	// A plain group: one failed category must not cancel the others.
	var g errgroup.Group
	g.SetLimit(s.config.FetchConcurrency)
	for i, cat := range s.categories {
		i, cat := i, cat
		g.Go(func() error {
			pages[i].html, pages[i].err = s.fetcher.Fetch(ctx, cat.URL)
			return nil
		})
	}
	_ = g.Wait()

	return pages
}
