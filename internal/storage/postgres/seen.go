package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"listing_watcher/internal/domain"
	"listing_watcher/internal/seen"
)

const seenTable = "postgres:seen_listings"

// SeenStore keeps the seen-set in the seen_listings table.
type SeenStore struct {
	db        *sqlx.DB
	txManager *TransactionManager
}

func NewSeenStore(db *sqlx.DB) *SeenStore {
	return &SeenStore{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

func (s *SeenStore) Load(ctx context.Context) (seen.Set, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM seen_listings"); err != nil {
		return nil, &domain.StorageReadError{Path: seenTable, Err: err}
	}

	set := make(seen.Set, len(ids))
	for _, id := range ids {
		set.MarkSeen(id)
	}
	return set, nil
}

// Save inserts every id of the set in one transaction. Rows are never
// deleted, matching the append-only set.
func (s *SeenStore) Save(ctx context.Context, set seen.Set) error {
	ids := set.IDs()
	if len(ids) == 0 {
		return nil
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		query := `
			INSERT INTO seen_listings (id)
			SELECT unnest($1::text[])
			ON CONFLICT (id) DO NOTHING`

		_, err := GetExecutor(txCtx, s.db).ExecContext(txCtx, query, pq.Array(ids))
		return err
	})
	if err != nil {
		return &domain.StorageWriteError{Path: seenTable, Err: err}
	}
	return nil
}
