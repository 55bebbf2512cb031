package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"listing_watcher/internal/domain"
)

const (
	listingsTable = "postgres:listings"
	batchSize     = 100
)

// ListingStore archives new listings in the listings table.
type ListingStore struct {
	db        *sqlx.DB
	txManager *TransactionManager
}

func NewListingStore(db *sqlx.DB) *ListingStore {
	return &ListingStore{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// Append inserts all listings in a single transaction, skipping ids that
// are already stored.
func (s *ListingStore) Append(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for start := 0; start < len(listings); start += batchSize {
			end := min(start+batchSize, len(listings))
			if err := s.insertBatch(txCtx, listings[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.StorageWriteError{Path: listingsTable, Err: err}
	}
	return nil
}

func (s *ListingStore) insertBatch(ctx context.Context, batch []domain.Listing) error {
	const cols = 10

	var sb strings.Builder
	sb.WriteString(`INSERT INTO listings (
		id, category, title, price, description, link, image, premium, location, posted_date
	) VALUES `)
	args := make([]interface{}, 0, len(batch)*cols)

	for i, l := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 1; c <= cols; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+c)
		}
		sb.WriteString(")")
		args = append(args,
			l.ID, l.Category, l.Title, l.Price, l.Description,
			l.Link, l.Image, l.Premium, l.Location, l.PostedDate,
		)
	}
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("insert listings: %w", err)
	}
	return nil
}

// GetByCategory returns archived listings of a category, oldest first.
func (s *ListingStore) GetByCategory(ctx context.Context, category string) ([]domain.Listing, error) {
	query := `
		SELECT id, category, title, price, description, link, image, premium, location, posted_date
		FROM listings
		WHERE category = $1
		ORDER BY created_at, id`

	var listings []domain.Listing
	if err := s.db.SelectContext(ctx, &listings, query, category); err != nil {
		return nil, &domain.StorageReadError{Path: listingsTable, Err: err}
	}
	return listings, nil
}
