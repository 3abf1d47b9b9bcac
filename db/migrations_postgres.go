package db

// PostgreSQL-specific migrations for the optimizer

var postgresMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_optimizer_pages_table",
		Up: `
			CREATE TABLE IF NOT EXISTS optimizer_pages (
				id TEXT PRIMARY KEY,
				path TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				template TEXT NOT NULL DEFAULT '',
				priority_tier INTEGER NOT NULL DEFAULT 3,
				refresh_interval_days INTEGER NOT NULL DEFAULT 0,
				cluster_key TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL DEFAULT '',
				generated_content TEXT NOT NULL DEFAULT '',
				internal_links TEXT NOT NULL DEFAULT '[]',
				schema_type TEXT NOT NULL DEFAULT '',
				component_blocks TEXT NOT NULL DEFAULT '[]',
				updated_at TIMESTAMPTZ DEFAULT NOW(),
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_optimizer_pages_path ON optimizer_pages(path);
			CREATE INDEX IF NOT EXISTS idx_optimizer_pages_cluster_key ON optimizer_pages(cluster_key);
			CREATE INDEX IF NOT EXISTS idx_optimizer_pages_category ON optimizer_pages(category);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_optimizer_pages_category;
			DROP INDEX IF EXISTS idx_optimizer_pages_cluster_key;
			DROP INDEX IF EXISTS idx_optimizer_pages_path;
			DROP TABLE IF EXISTS optimizer_pages;
		`,
	},
	{
		Version: 2,
		Name:    "create_optimizer_page_metrics_table",
		Up: `
			CREATE TABLE IF NOT EXISTS optimizer_page_metrics (
				page_id TEXT PRIMARY KEY,
				has_h1 BOOLEAN NOT NULL DEFAULT FALSE,
				h2_count INTEGER NOT NULL DEFAULT 0,
				h3_count INTEGER NOT NULL DEFAULT 0,
				word_count INTEGER NOT NULL DEFAULT 0,
				has_faq BOOLEAN NOT NULL DEFAULT FALSE,
				has_proof BOOLEAN NOT NULL DEFAULT FALSE,
				has_glossary BOOLEAN NOT NULL DEFAULT FALSE,
				has_schema BOOLEAN NOT NULL DEFAULT FALSE,
				outbound_links INTEGER NOT NULL DEFAULT 0,
				inbound_links INTEGER NOT NULL DEFAULT 0,
				orphan BOOLEAN NOT NULL DEFAULT FALSE,
				stale BOOLEAN NOT NULL DEFAULT FALSE,
				days_since_update INTEGER NOT NULL DEFAULT 0,
				business_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
				freshness_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
				gap_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
				link_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
				cluster_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
				priority_score INTEGER NOT NULL DEFAULT 0,
				calculated_at TIMESTAMPTZ DEFAULT NOW(),
				FOREIGN KEY (page_id) REFERENCES optimizer_pages(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_optimizer_page_metrics_score ON optimizer_page_metrics(priority_score);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_optimizer_page_metrics_score;
			DROP TABLE IF EXISTS optimizer_page_metrics;
		`,
	},
	{
		Version: 3,
		Name:    "create_optimizer_recommendations_table",
		Up: `
			CREATE TABLE IF NOT EXISTS optimizer_recommendations (
				id TEXT PRIMARY KEY,
				page_id TEXT NOT NULL,
				data TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				date TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_optimizer_recommendations_date ON optimizer_recommendations(date);
			CREATE INDEX IF NOT EXISTS idx_optimizer_recommendations_page_id ON optimizer_recommendations(page_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_optimizer_recommendations_page_id;
			DROP INDEX IF EXISTS idx_optimizer_recommendations_date;
			DROP TABLE IF EXISTS optimizer_recommendations;
		`,
	},
	{
		Version: 4,
		Name:    "create_optimizer_cluster_log_table",
		Up: `
			CREATE TABLE IF NOT EXISTS optimizer_cluster_log (
				id BIGSERIAL PRIMARY KEY,
				cluster_key TEXT NOT NULL,
				page_id TEXT NOT NULL,
				selected_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_optimizer_cluster_log_key_time ON optimizer_cluster_log(cluster_key, selected_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_optimizer_cluster_log_key_time;
			DROP TABLE IF EXISTS optimizer_cluster_log;
		`,
	},
}
