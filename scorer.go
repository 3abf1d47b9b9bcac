package optimizer

import (
	"fmt"
	"math"
	"time"

	"github.com/zombar/optimizer/models"
)

// Scorer combines a page's category, priority tier, staleness, structural
// fingerprint, and cluster-recency history into one priority score with a
// per-factor breakdown.
type Scorer struct {
	config   Config
	store    Store
	analyzer *Analyzer
}

// NewScorer creates a new Scorer instance.
func NewScorer(config Config, store Store, analyzer *Analyzer) *Scorer {
	return &Scorer{config: config, store: store, analyzer: analyzer}
}

// Score resolves a page by id, analyzes it, and computes its priority score.
// An unresolved page id fails this call only; callers scoring a batch skip
// the page and continue.
func (s *Scorer) Score(pageID string) (*models.PageScore, error) {
	page, err := resolvePage(s.store, pageID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Analyze(page)
	if err != nil {
		return nil, err
	}

	return s.ScorePage(page, analysis)
}

// ScorePage computes the priority score for an already-analyzed page. Every
// call overwrites the score fields of the page's metrics row; recomputation
// from the same inputs yields the same score.
func (s *Scorer) ScorePage(page *models.Page, analysis *models.ContentAnalysis) (*models.PageScore, error) {
	metrics, err := s.store.GetMetrics(page.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics for page %s: %w", page.ID, err)
	}
	if metrics == nil {
		// Analyze always upserts the row first; a missing row means the
		// caller skipped analysis.
		return nil, fmt.Errorf("no metrics for page %s, analyze before scoring", page.ID)
	}

	typeKey := effectiveType(page.Template, page.Category)

	business := s.config.businessWeight(typeKey) * s.config.priorityWeight(page.PriorityTier)
	freshness := s.freshnessWeight(page)
	gaps := s.gapWeight(analysis)
	links := s.linkWeight(typeKey, analysis.OutboundLinks, metrics.InboundLinks, metrics.Orphan)
	cluster, err := s.clusterBalanceWeight(page.ClusterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cluster balance for page %s: %w", page.ID, err)
	}

	total := int(math.Round(business + freshness + gaps + links + cluster))

	metrics.BusinessWeight = business
	metrics.FreshnessWeight = freshness
	metrics.GapWeight = gaps
	metrics.LinkWeight = links
	metrics.ClusterWeight = cluster
	metrics.PriorityScore = total
	metrics.CalculatedAt = time.Now().UTC()

	if err := s.store.UpsertMetrics(metrics); err != nil {
		return nil, fmt.Errorf("failed to save score for page %s: %w", page.ID, err)
	}

	return &models.PageScore{
		PageID:    page.ID,
		PagePath:  page.Path,
		PageTitle: page.Title,
		Total:     total,
		Breakdown: map[string]float64{
			models.ComponentBusiness:  business,
			models.ComponentFreshness: freshness,
			models.ComponentGaps:      gaps,
			models.ComponentLinks:     links,
			models.ComponentCluster:   cluster,
		},
	}, nil
}

// freshnessWeight grows linearly once the page is past its refresh deadline
// and saturates at twice the interval overdue: staleness ratio clamped to
// [0, 2], scaled by 10.
func (s *Scorer) freshnessWeight(page *models.Page) float64 {
	interval := s.config.refreshInterval(page.RefreshIntervalDays, page.PriorityTier)
	if interval <= 0 {
		return 0
	}

	days := daysSinceUpdate(page.UpdatedAt)
	staleness := float64(days-interval) / float64(interval)
	if staleness < 0 {
		staleness = 0
	}
	if staleness > 2 {
		staleness = 2
	}
	return staleness * 10
}

// gapWeight sums the configured weight of every currently-true gap condition,
// scaled by 10. The conditions are recomputed from the fingerprint here, not
// taken from the analyzer's gap list; note the thin-content threshold is a
// fixed 400 words while the analyzer's is category-specific.
func (s *Scorer) gapWeight(analysis *models.ContentAnalysis) float64 {
	var w float64
	if !analysis.HasH1 {
		w += s.config.gapWeight(models.GapMissingH1)
	}
	if analysis.H2Count < 3 {
		w += s.config.gapWeight(models.GapFewH2)
	}
	if !analysis.HasFAQ {
		w += s.config.gapWeight(models.GapMissingFAQ)
	}
	if !analysis.HasProof {
		w += s.config.gapWeight(models.GapMissingProof)
	}
	if !analysis.HasSchema {
		w += s.config.gapWeight(models.GapNoSchema)
	}
	if !analysis.HasGlossary {
		w += s.config.gapWeight(models.GapMissingGlossary)
	}
	if analysis.WordCount < 400 {
		w += s.config.gapWeight(models.GapThinContent)
	}
	if analysis.OutboundLinks < 3 {
		w += s.config.gapWeight(models.GapLowLinks)
	}
	return w * 10
}

// linkWeight compares the page's link counts against its category targets.
// The three penalties are independently additive, then scaled by 10.
func (s *Scorer) linkWeight(typeKey string, outbound, inbound int, orphan bool) float64 {
	targets := s.config.linkTargets(typeKey)

	var w float64
	if outbound < targets.Outbound {
		w += 0.6
	}
	if inbound < targets.Inbound {
		w += 0.8
	}
	if orphan {
		w += 1.2
	}
	return w * 10
}

// clusterBalanceWeight applies the sliding-window fairness signal: pages
// without a cluster get the flat bonus; clustered pages get the bonus until
// the cluster has been selected ClusterMaxRecent times inside the lookback
// window, at which point the sign flips to the penalty. A hard threshold,
// not a decay.
func (s *Scorer) clusterBalanceWeight(clusterKey string) (float64, error) {
	if clusterKey == "" {
		return s.config.ClusterBonus * 10, nil
	}

	since := time.Now().UTC().AddDate(0, 0, -s.config.ClusterLookbackDays)
	entries, err := s.store.ClusterSelections(clusterKey, since)
	if err != nil {
		return 0, err
	}

	if len(entries) >= s.config.ClusterMaxRecent {
		return s.config.ClusterPenalty * 10, nil
	}
	return s.config.ClusterBonus * 10, nil
}
