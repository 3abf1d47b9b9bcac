package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/optimizer/models"
)

// DB wraps the database connection and provides data access methods
type DB struct {
	conn *sql.DB
}

// Config contains database configuration
type Config struct {
	DSN string // PostgreSQL connection string
}

// New creates a new database connection
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	// Run PostgreSQL migrations
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// SavePage inserts or replaces a page. The engine never calls this; it exists
// for the authoring-side ingest path and for seeding test corpora.
func (db *DB) SavePage(page *models.Page) error {
	linksJSON, err := json.Marshal(page.InternalLinks)
	if err != nil {
		return fmt.Errorf("failed to marshal internal links: %w", err)
	}
	blocksJSON, err := json.Marshal(page.ComponentBlocks)
	if err != nil {
		return fmt.Errorf("failed to marshal component blocks: %w", err)
	}

	query := `
		INSERT INTO optimizer_pages (id, path, title, category, template, priority_tier, refresh_interval_days, cluster_key, content, generated_content, internal_links, schema_type, component_blocks, updated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			category = excluded.category,
			template = excluded.template,
			priority_tier = excluded.priority_tier,
			refresh_interval_days = excluded.refresh_interval_days,
			cluster_key = excluded.cluster_key,
			content = excluded.content,
			generated_content = excluded.generated_content,
			internal_links = excluded.internal_links,
			schema_type = excluded.schema_type,
			component_blocks = excluded.component_blocks,
			updated_at = excluded.updated_at
	`

	createdAt := page.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = db.conn.Exec(
		query,
		page.ID,
		page.Path,
		page.Title,
		page.Category,
		page.Template,
		page.PriorityTier,
		page.RefreshIntervalDays,
		page.ClusterKey,
		page.Content,
		page.GeneratedContent,
		string(linksJSON),
		page.SchemaType,
		string(blocksJSON),
		page.UpdatedAt,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

const pageColumns = "id, path, title, category, template, priority_tier, refresh_interval_days, cluster_key, content, generated_content, internal_links, schema_type, component_blocks, updated_at, created_at"

// scanPage scans one page row.
func scanPage(row interface{ Scan(...any) error }) (*models.Page, error) {
	var (
		page       models.Page
		linksJSON  string
		blocksJSON string
	)

	err := row.Scan(
		&page.ID,
		&page.Path,
		&page.Title,
		&page.Category,
		&page.Template,
		&page.PriorityTier,
		&page.RefreshIntervalDays,
		&page.ClusterKey,
		&page.Content,
		&page.GeneratedContent,
		&linksJSON,
		&page.SchemaType,
		&blocksJSON,
		&page.UpdatedAt,
		&page.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if linksJSON != "" && linksJSON != "null" {
		if err := json.Unmarshal([]byte(linksJSON), &page.InternalLinks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal internal links: %w", err)
		}
	}
	if blocksJSON != "" && blocksJSON != "null" {
		if err := json.Unmarshal([]byte(blocksJSON), &page.ComponentBlocks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal component blocks: %w", err)
		}
	}

	return &page, nil
}

// GetPage retrieves a page by id. Returns (nil, nil) when absent.
func (db *DB) GetPage(id string) (*models.Page, error) {
	row := db.conn.QueryRow("SELECT "+pageColumns+" FROM optimizer_pages WHERE id = $1", id)

	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}

	return page, nil
}

// ListPages returns every page in the store.
func (db *DB) ListPages() ([]*models.Page, error) {
	rows, err := db.conn.Query("SELECT " + pageColumns + " FROM optimizer_pages ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var results []*models.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		results = append(results, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// CountInboundLinks counts pages whose declared internal-link list contains
// the given path.
func (db *DB) CountInboundLinks(path string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM optimizer_pages WHERE internal_links::jsonb ? $1 AND path <> $1"
	if err := db.conn.QueryRow(query, path).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count inbound links: %w", err)
	}
	return count, nil
}

// GetMetrics retrieves the metrics row for a page. Returns (nil, nil) when absent.
func (db *DB) GetMetrics(pageID string) (*models.PageMetrics, error) {
	var m models.PageMetrics
	query := `
		SELECT page_id, has_h1, h2_count, h3_count, word_count, has_faq, has_proof, has_glossary, has_schema,
		       outbound_links, inbound_links, orphan, stale, days_since_update,
		       business_weight, freshness_weight, gap_weight, link_weight, cluster_weight, priority_score, calculated_at
		FROM optimizer_page_metrics WHERE page_id = $1
	`

	err := db.conn.QueryRow(query, pageID).Scan(
		&m.PageID,
		&m.HasH1,
		&m.H2Count,
		&m.H3Count,
		&m.WordCount,
		&m.HasFAQ,
		&m.HasProof,
		&m.HasGlossary,
		&m.HasSchema,
		&m.OutboundLinks,
		&m.InboundLinks,
		&m.Orphan,
		&m.Stale,
		&m.DaysSinceUpdate,
		&m.BusinessWeight,
		&m.FreshnessWeight,
		&m.GapWeight,
		&m.LinkWeight,
		&m.ClusterWeight,
		&m.PriorityScore,
		&m.CalculatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}

	return &m, nil
}

// UpsertMetrics inserts or fully overwrites the metrics row for a page.
func (db *DB) UpsertMetrics(m *models.PageMetrics) error {
	query := `
		INSERT INTO optimizer_page_metrics (page_id, has_h1, h2_count, h3_count, word_count, has_faq, has_proof, has_glossary, has_schema,
			outbound_links, inbound_links, orphan, stale, days_since_update,
			business_weight, freshness_weight, gap_weight, link_weight, cluster_weight, priority_score, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT(page_id) DO UPDATE SET
			has_h1 = excluded.has_h1,
			h2_count = excluded.h2_count,
			h3_count = excluded.h3_count,
			word_count = excluded.word_count,
			has_faq = excluded.has_faq,
			has_proof = excluded.has_proof,
			has_glossary = excluded.has_glossary,
			has_schema = excluded.has_schema,
			outbound_links = excluded.outbound_links,
			inbound_links = excluded.inbound_links,
			orphan = excluded.orphan,
			stale = excluded.stale,
			days_since_update = excluded.days_since_update,
			business_weight = excluded.business_weight,
			freshness_weight = excluded.freshness_weight,
			gap_weight = excluded.gap_weight,
			link_weight = excluded.link_weight,
			cluster_weight = excluded.cluster_weight,
			priority_score = excluded.priority_score,
			calculated_at = excluded.calculated_at
	`

	_, err := db.conn.Exec(
		query,
		m.PageID,
		m.HasH1,
		m.H2Count,
		m.H3Count,
		m.WordCount,
		m.HasFAQ,
		m.HasProof,
		m.HasGlossary,
		m.HasSchema,
		m.OutboundLinks,
		m.InboundLinks,
		m.Orphan,
		m.Stale,
		m.DaysSinceUpdate,
		m.BusinessWeight,
		m.FreshnessWeight,
		m.GapWeight,
		m.LinkWeight,
		m.ClusterWeight,
		m.PriorityScore,
		m.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert metrics: %w", err)
	}

	return nil
}

// ClusterSelections returns the cluster-log entries for a cluster key since
// the given time, oldest first.
func (db *DB) ClusterSelections(clusterKey string, since time.Time) ([]models.ClusterLogEntry, error) {
	query := `
		SELECT cluster_key, page_id, selected_at FROM optimizer_cluster_log
		WHERE cluster_key = $1 AND selected_at >= $2
		ORDER BY selected_at
	`

	rows, err := db.conn.Query(query, clusterKey, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster log: %w", err)
	}
	defer rows.Close()

	var entries []models.ClusterLogEntry
	for rows.Next() {
		var e models.ClusterLogEntry
		if err := rows.Scan(&e.ClusterKey, &e.PageID, &e.SelectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cluster log row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// InsertClusterLogEntry appends one cluster-selection record.
func (db *DB) InsertClusterLogEntry(clusterKey, pageID string, at time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO optimizer_cluster_log (cluster_key, page_id, selected_at) VALUES ($1, $2, $3)",
		clusterKey, pageID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cluster log entry: %w", err)
	}
	return nil
}

// InsertRecommendation persists one daily recommendation.
func (db *DB) InsertRecommendation(rec *models.DailyRecommendation) error {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	query := `
		INSERT INTO optimizer_recommendations (id, page_id, data, status, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = db.conn.Exec(
		query,
		rec.ID,
		rec.PageID,
		string(jsonData),
		rec.Status,
		rec.Date,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return nil
}

// RecommendationsByDateRange returns recommendations with a run date in
// [from, to), newest first.
func (db *DB) RecommendationsByDateRange(from, to time.Time) ([]*models.DailyRecommendation, error) {
	query := `
		SELECT data FROM optimizer_recommendations
		WHERE date >= $1 AND date < $2
		ORDER BY created_at DESC
	`

	rows, err := db.conn.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var results []*models.DailyRecommendation
	for rows.Next() {
		var jsonData string
		if err := rows.Scan(&jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var rec models.DailyRecommendation
		if err := json.Unmarshal([]byte(jsonData), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendation: %w", err)
		}

		results = append(results, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// CountPages returns the total number of pages in the store.
func (db *DB) CountPages() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM optimizer_pages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}
