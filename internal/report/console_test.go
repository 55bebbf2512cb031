package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"listing_watcher/internal/domain"
)

func listings(n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{
			ID:         fmt.Sprintf("forSale_%d_x", i),
			Category:   "forSale",
			Title:      fmt.Sprintf("Listing number %d", i),
			Price:      "SAR 100",
			Link:       fmt.Sprintf("https://www.expatriates.com/cls/%d.html", i),
			Image:      domain.NoImage,
			PostedDate: "2023-11-14 22:13:20",
		}
	}
	return out
}

func TestConsole_ReportsCategoriesAndListings(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "/data/listings.csv", []string{"forSale", "vehicles-cars-trucks"})

	c.Report(&domain.PollResult{
		CycleID:           "cycle-1",
		NewRecords:        listings(7),
		PerCategoryCounts: map[string]int{"forSale": 40, "vehicles-cars-trucks": 0},
		Errors: []domain.CategoryError{{
			Category: "vehicles-cars-trucks",
			Err:      errors.New("status 503"),
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "cycle-1")
	assert.Contains(t, out, "vehicles-cars-trucks")
	assert.Contains(t, out, "status 503")
	assert.Contains(t, out, "Listing number 4")
	assert.NotContains(t, out, "Listing number 5")
	assert.Contains(t, out, "and 2 more")
	assert.Contains(t, out, "Saved 7 new listings to /data/listings.csv")
}

func TestConsole_NoNewListings(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "/data/listings.csv", []string{"forSale"})

	c.Report(&domain.PollResult{
		CycleID:           "cycle-2",
		PerCategoryCounts: map[string]int{"forSale": 40},
	})

	out := buf.String()
	assert.Contains(t, out, "No new listings found.")
	assert.NotContains(t, out, "Saved")
}
