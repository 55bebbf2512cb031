package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing_watcher/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_KeepsCategoryOrder(t *testing.T) {
	path := writeConfig(t, `
categories:
  vehicles-cars-trucks: https://www.expatriates.com/classifieds/riyadh/vehicles-cars-trucks/
  forSale: https://www.expatriates.com/classifieds/riyadh/for-sale/
  jobs: https://www.expatriates.com/classifieds/riyadh/jobs/
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Categories{
		{Name: "vehicles-cars-trucks", URL: "https://www.expatriates.com/classifieds/riyadh/vehicles-cars-trucks/"},
		{Name: "forSale", URL: "https://www.expatriates.com/classifieds/riyadh/for-sale/"},
		{Name: "jobs", URL: "https://www.expatriates.com/classifieds/riyadh/jobs/"},
	}, cfg.Categories)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.Minute, cfg.Poll.Interval)
	assert.Equal(t, 1, cfg.Poll.FetchConcurrency)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "seen_listings.json", cfg.Storage.SeenPath)
	assert.Equal(t, "listings.csv", cfg.Storage.CSVPath)
	assert.Equal(t, "https://www.expatriates.com", cfg.BaseURL)
	assert.Empty(t, cfg.HTTP.UserAgent)
	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, "forSale", cfg.Categories[0].Name)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("WATCHER_DB_PASSWORD", "s3cret")
	path := writeConfig(t, `
storage:
  backend: postgres
database:
  host: db
  dbname: listings
  user: watcher
  password: ${WATCHER_DB_PASSWORD}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "host=db port=5432 user=watcher password=s3cret dbname=listings sslmode=disable", cfg.Database.DSN())
}

func TestLoad_DuplicateCategory(t *testing.T) {
	path := writeConfig(t, `
categories:
  forSale: https://a.example/
  forSale: https://b.example/
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "forSale")
}

func TestLoad_CategoriesMustBeMapping(t *testing.T) {
	path := writeConfig(t, `
categories:
  - https://a.example/
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "mapping")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "unknown storage.backend"},
		{"postgres without host", func(c *Config) { c.Storage.Backend = BackendPostgres }, "database.host"},
		{"empty url", func(c *Config) {
			c.Categories = Categories{{Name: "forSale"}}
		}, "has no url"},
		{"negative cycle timeout", func(c *Config) { c.Poll.CycleTimeout = -time.Second }, "poll.cycle_timeout"},
		{"zero concurrency", func(c *Config) { c.Poll.FetchConcurrency = 0 }, "fetch_concurrency"},
		{"negative rate", func(c *Config) { c.HTTP.RequestsPerSecond = -1 }, "requests_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefault_CategoriesAreDomainCategories(t *testing.T) {
	cats := []domain.Category(Default().Categories)
	assert.NotEmpty(t, cats)
}
