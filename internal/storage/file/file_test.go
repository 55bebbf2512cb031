package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing_watcher/internal/domain"
	"listing_watcher/internal/seen"
)

func testListings(prefix string, n int) []domain.Listing {
	listings := make([]domain.Listing, 0, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s item %d", prefix, i)
		listings = append(listings, domain.Listing{
			ID:          seen.ID("forSale", fmt.Sprint(1700000000+i), title),
			Category:    "forSale",
			Title:       title,
			Price:       "SAR 1,000",
			Description: title,
			Link:        fmt.Sprintf("https://www.expatriates.com/cls/%d.html", i),
			Image:       domain.NoImage,
			Premium:     i%2 == 0,
			Location:    "Riyadh, Saudi Arabia",
			PostedDate:  "2023-11-14 22:13:20",
		})
	}
	return listings
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func TestCSVLog_HeaderWrittenOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "listings.csv")
	log := NewCSVLog(path)

	require.NoError(t, log.Append(ctx, testListings("first", 3)))
	assert.Equal(t, 4, countLines(t, path))

	require.NoError(t, log.Append(ctx, testListings("second", 2)))
	assert.Equal(t, 6, countLines(t, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, domain.CSVColumns, records[0])
	assert.Equal(t, "True", records[1][7])
	assert.Equal(t, "False", records[2][7])
	for _, r := range records[1:] {
		assert.NotEqual(t, "id", r[0])
	}
}

func TestCSVLog_ExistingFileGetsNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,category\n"), 0o644))

	require.NoError(t, NewCSVLog(path).Append(context.Background(), testListings("x", 1)))

	assert.Equal(t, 2, countLines(t, path))
}

func TestCSVLog_EmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")

	require.NoError(t, NewCSVLog(path).Append(context.Background(), nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCSVLog_WriteError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the open fail.
	path := filepath.Join(dir, "listings.csv")
	require.NoError(t, os.Mkdir(path, 0o755))

	err := NewCSVLog(path).Append(context.Background(), testListings("x", 1))

	var writeErr *domain.StorageWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, path, writeErr.Path)
}

func TestCSVLog_AbsPath(t *testing.T) {
	log := NewCSVLog("listings.csv")
	assert.True(t, filepath.IsAbs(log.AbsPath()))
}

func TestSeenStore_LoadMissingFile(t *testing.T) {
	store := NewSeenStore(filepath.Join(t.TempDir(), "seen_listings.json"))

	set, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestSeenStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "seen_listings.json")
	store := NewSeenStore(path)

	set := seen.New()
	set.MarkSeen("forSale_1_a")
	set.MarkSeen("vehicles_2_b")
	require.NoError(t, store.Save(ctx, set))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"forSale_1_a\": true")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSeenStore_SaveEmptySet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen_listings.json")
	store := NewSeenStore(path)

	require.NoError(t, store.Save(ctx, seen.New()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestSeenStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_listings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewSeenStore(path).Load(context.Background())

	var readErr *domain.StorageReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, path, readErr.Path)
}

func TestSeenStore_SaveFailureKeepsPreviousFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "seen_listings.json")
	store := NewSeenStore(path)

	first := seen.New()
	first.MarkSeen("forSale_1_a")
	require.NoError(t, store.Save(ctx, first))

	// Replacing the target with a non-empty directory makes rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	err := store.Save(ctx, seen.Set{"forSale_2_b": true})

	var writeErr *domain.StorageWriteError
	require.True(t, errors.As(err, &writeErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}
