package models

import "time"

// Page is one entry in the content store. Pages are owned by the authoring
// system; the engine only reads them.
type Page struct {
	ID                  string    `json:"id"`
	Path                string    `json:"path"`
	Title               string    `json:"title"`
	Category            string    `json:"category"`
	Template            string    `json:"template,omitempty"` // overrides Category for weighting when set
	PriorityTier        int       `json:"priority_tier"`      // 1 = most important, 5 = least
	RefreshIntervalDays int       `json:"refresh_interval_days,omitempty"` // 0 = use tier default
	ClusterKey          string    `json:"cluster_key,omitempty"`
	Content             string    `json:"content"`
	GeneratedContent    string    `json:"generated_content,omitempty"`
	InternalLinks       []string  `json:"internal_links,omitempty"`
	SchemaType          string    `json:"schema_type,omitempty"`
	ComponentBlocks     []string  `json:"component_blocks,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// PageMetrics is the cached structural fingerprint and last score breakdown
// for one page. It is a derived cache: overwritten on every recomputation,
// never a source of truth.
type PageMetrics struct {
	PageID          string    `json:"page_id"`
	HasH1           bool      `json:"has_h1"`
	H2Count         int       `json:"h2_count"`
	H3Count         int       `json:"h3_count"`
	WordCount       int       `json:"word_count"`
	HasFAQ          bool      `json:"has_faq"`
	HasProof        bool      `json:"has_proof"`
	HasGlossary     bool      `json:"has_glossary"`
	HasSchema       bool      `json:"has_schema"`
	OutboundLinks   int       `json:"outbound_links"`
	InboundLinks    int       `json:"inbound_links"`
	Orphan          bool      `json:"orphan"`
	Stale           bool      `json:"stale"`
	DaysSinceUpdate int       `json:"days_since_update"`
	BusinessWeight  float64   `json:"business_weight"`
	FreshnessWeight float64   `json:"freshness_weight"`
	GapWeight       float64   `json:"gap_weight"`
	LinkWeight      float64   `json:"link_weight"`
	ClusterWeight   float64   `json:"cluster_weight"`
	PriorityScore   int       `json:"priority_score"`
	CalculatedAt    time.Time `json:"calculated_at"`
}

// Gap severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Gap types. The set is fixed; unknown types resolve to a zero weight.
const (
	GapMissingH1       = "missing-h1"
	GapFewH2           = "few-h2"
	GapThinContent     = "thin-content"
	GapMissingFAQ      = "missing-faq"
	GapMissingProof    = "missing-proof"
	GapNoSchema        = "no-schema"
	GapLowLinks        = "low-links"
	GapMissingGlossary = "missing-glossary"
)

// ContentGap is a detected content-quality deficiency. Ephemeral: produced
// fresh on every analysis call, never persisted standalone.
type ContentGap struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Impact   int    `json:"impact"` // 0-10
}

// ContentAnalysis is the full output of analyzing one page: the structural
// fingerprint plus the gap list sorted descending by impact.
type ContentAnalysis struct {
	PageID          string       `json:"page_id"`
	HasH1           bool         `json:"has_h1"`
	H2Count         int          `json:"h2_count"`
	H3Count         int          `json:"h3_count"`
	WordCount       int          `json:"word_count"`
	HasFAQ          bool         `json:"has_faq"`
	HasProof        bool         `json:"has_proof"`
	HasGlossary     bool         `json:"has_glossary"`
	HasSchema       bool         `json:"has_schema"`
	OutboundLinks   int          `json:"outbound_links"`
	Gaps            []ContentGap `json:"gaps"`
	Recommendations []string     `json:"recommendations"`
}

// Score breakdown component keys.
const (
	ComponentBusiness  = "business"
	ComponentFreshness = "freshness"
	ComponentGaps      = "gaps"
	ComponentLinks     = "links"
	ComponentCluster   = "cluster_balance"
)

// PageScore is the ephemeral result of scoring one page. Its numeric fields
// are written back into PageMetrics.
type PageScore struct {
	PageID    string             `json:"page_id"`
	PagePath  string             `json:"page_path"`
	PageTitle string             `json:"page_title"`
	Total     int                `json:"total"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Impact estimates for a recommendation.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Dynamic content boosters suggested in an upgrade plan.
const (
	BoosterFAQ      = "faq"
	BoosterProof    = "proof"
	BoosterLink     = "link"
	BoosterGlossary = "glossary"
)

// UpgradePlan is the full generated plan payload for a selected page.
type UpgradePlan struct {
	PageID         string       `json:"page_id"`
	PagePath       string       `json:"page_path"`
	PageTitle      string       `json:"page_title"`
	Score          PageScore    `json:"score"`
	Gaps           []ContentGap `json:"gaps"`
	Reasons        []string     `json:"reasons"`
	Tasks          []string     `json:"tasks"`
	Boosters       []string     `json:"boosters"`
	ImpactEstimate string       `json:"impact_estimate"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// DailyRecommendation is a persisted record for one selected page in one
// generation run. Created once; status transitions are handled elsewhere.
type DailyRecommendation struct {
	ID              string       `json:"id"`
	PageID          string       `json:"page_id"`
	PagePath        string       `json:"page_path"`
	PageTitle       string       `json:"page_title"`
	Reasons         []string     `json:"reasons"`
	Tasks           []string     `json:"tasks"`
	Impact          string       `json:"impact"`
	Boosters        []string     `json:"boosters,omitempty"`
	OutboundTargets []string     `json:"outbound_targets,omitempty"`
	NeededInbound   []string     `json:"needed_inbound,omitempty"`
	Plan            *UpgradePlan `json:"plan,omitempty"`
	Status          string       `json:"status"`
	Date            time.Time    `json:"date"`
	CreatedAt       time.Time    `json:"created_at"`
}

// StatusPending is the initial status of every recommendation.
const StatusPending = "pending"

// ClusterLogEntry records one cluster-balanced selection. Append-only; the
// cluster-balance weight is always recomputed from these rows by date range.
type ClusterLogEntry struct {
	ClusterKey string    `json:"cluster_key"`
	PageID     string    `json:"page_id"`
	SelectedAt time.Time `json:"selected_at"`
}
