// internal/services/testdb_test.go
package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testSchema mirrors the Postgres tables with sqlite column types. Arrays and
// jsonb columns are stored as text in their driver encoding.
const testSchema = `
CREATE TABLE products (
	id TEXT PRIMARY KEY,
	created_at DATETIME,
	updated_at DATETIME,
	deleted_at DATETIME,
	company_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	short_description TEXT,
	category TEXT,
	brand TEXT,
	price REAL,
	currency TEXT DEFAULT 'EUR',
	tags TEXT,
	ean TEXT,
	sku TEXT,
	model_number TEXT,
	specifications TEXT,
	featured_image TEXT,
	gallery TEXT
);
CREATE TABLE listings (
	id TEXT PRIMARY KEY,
	created_at DATETIME,
	updated_at DATETIME,
	deleted_at DATETIME,
	product_id TEXT NOT NULL,
	company_id TEXT NOT NULL,
	channel TEXT NOT NULL,
	title TEXT,
	description TEXT,
	bullet_points TEXT,
	seo_title TEXT,
	seo_description TEXT,
	search_keywords TEXT,
	hero_image_url TEXT,
	gallery_urls TEXT,
	video_reference_frame_urls TEXT,
	video_url TEXT
);
CREATE UNIQUE INDEX idx_listings_product_channel ON listings (product_id, channel);
CREATE TABLE generation_runs (
	id TEXT PRIMARY KEY,
	created_at DATETIME,
	updated_at DATETIME,
	deleted_at DATETIME,
	product_id TEXT NOT NULL,
	company_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	user_email TEXT,
	channel TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'queued',
	phase TEXT,
	progress INTEGER DEFAULT 0,
	step_label TEXT,
	error TEXT,
	summary TEXT,
	started_at DATETIME,
	finished_at DATETIME
);
CREATE UNIQUE INDEX idx_generation_runs_active_key ON generation_runs (product_id, channel)
	WHERE status IN ('queued', 'running') AND deleted_at IS NULL;
CREATE TABLE generated_contents (
	id TEXT PRIMARY KEY,
	created_at DATETIME,
	updated_at DATETIME,
	deleted_at DATETIME,
	company_id TEXT NOT NULL,
	created_by TEXT,
	product_id TEXT,
	content_type TEXT NOT NULL,
	status TEXT DEFAULT 'completed',
	url TEXT NOT NULL,
	thumbnail_url TEXT,
	name TEXT,
	generation_config TEXT,
	tags TEXT
)`

// newTestDB opens a private in-memory database with the service tables.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
