package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombar/optimizer/metrics"
	"github.com/zombar/optimizer/models"
	"github.com/zombar/optimizer/slug"
)

// maxScoreWorkers bounds concurrent per-page scoring within one run.
const maxScoreWorkers = 5

// The three category buckets used for balanced selection, in pick order.
var (
	moneyBucket = map[string]bool{
		"product":    true,
		"calculator": true,
		"comparison": true,
	}
	hubBucket = map[string]bool{
		"hub":     true,
		"pillar":  true,
		"cluster": true,
	}
	supportBucket = map[string]bool{
		"faq":      true,
		"guide":    true,
		"howto":    true,
		"article":  true,
		"glossary": true,
	}
)

// ReportExporter persists a generated upgrade-plan payload outside the
// database. Optional; a nil exporter disables export.
type ReportExporter interface {
	SaveReport(data []byte, name string) (string, error)
}

// Engine runs the full recommendation pipeline: score the corpus, select a
// category-balanced daily set, and synthesize an upgrade plan per selection.
type Engine struct {
	config   Config
	store    Store
	analyzer *Analyzer
	scorer   *Scorer
	exporter ReportExporter
}

// New creates a new Engine instance.
// exporter can be nil if report export is not needed.
func New(config Config, store Store, exporter ReportExporter) *Engine {
	analyzer := NewAnalyzer(config, store)
	return &Engine{
		config:   config,
		store:    store,
		analyzer: analyzer,
		scorer:   NewScorer(config, store, analyzer),
		exporter: exporter,
	}
}

// Analyzer returns the engine's content analyzer.
func (e *Engine) Analyzer() *Analyzer { return e.analyzer }

// Scorer returns the engine's scoring engine.
func (e *Engine) Scorer() *Scorer { return e.scorer }

// scoredPage couples a page with its analysis and score for one run.
// Analysis is memoized here so plan synthesis does not re-measure the page.
type scoredPage struct {
	page     *models.Page
	analysis *models.ContentAnalysis
	score    *models.PageScore
}

// scoreCorpus loads every page and scores each in parallel. Single-page
// failures are logged with the page identity and excluded; they never abort
// the batch.
func (e *Engine) scoreCorpus(ctx context.Context) ([]scoredPage, error) {
	pages, err := e.store.ListPages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	results := make([]scoredPage, len(pages))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxScoreWorkers)

	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			analysis, err := e.analyzer.Analyze(page)
			if err != nil {
				slog.Error("page analysis failed, skipping", "page_id", page.ID, "error", err)
				metrics.PageFailures.Inc()
				return nil
			}
			score, err := e.scorer.ScorePage(page, analysis)
			if err != nil {
				slog.Error("page scoring failed, skipping", "page_id", page.ID, "error", err)
				metrics.PageFailures.Inc()
				return nil
			}
			results[i] = scoredPage{page: page, analysis: analysis, score: score}
			metrics.PagesScored.Inc()
			return nil
		})
	}
	_ = g.Wait()

	scored := make([]scoredPage, 0, len(results))
	for _, r := range results {
		if r.score != nil {
			scored = append(scored, r)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score.Total != scored[j].score.Total {
			return scored[i].score.Total > scored[j].score.Total
		}
		return scored[i].page.ID < scored[j].page.ID
	})

	return scored, nil
}

// RunDailyGeneration scores the whole corpus, selects a category-balanced set
// of up to count pages, generates an upgrade plan for each, and persists the
// recommendations plus cluster-log entries. count <= 0 uses the configured
// default. Returns fewer than count recommendations when the corpus is small
// or pages fail.
func (e *Engine) RunDailyGeneration(ctx context.Context, count int) ([]*models.DailyRecommendation, error) {
	start := time.Now()
	if count <= 0 {
		count = e.config.DailyCount
	}

	scored, err := e.scoreCorpus(ctx)
	if err != nil {
		return nil, err
	}

	selected := selectBalanced(scored, count)
	slog.Info("daily selection complete",
		"candidates", len(scored),
		"selected", len(selected),
		"requested", count,
	)

	recs := make([]*models.DailyRecommendation, 0, len(selected))
	now := time.Now().UTC()
	runDate := now.Truncate(24 * time.Hour)

	for _, sp := range selected {
		rec := e.buildRecommendation(sp, scored, runDate, now)

		// Each insert is an independent transaction; one failure never rolls
		// back or blocks the others.
		if err := e.store.InsertRecommendation(rec); err != nil {
			slog.Error("failed to persist recommendation, excluding from run",
				"page_id", sp.page.ID, "error", err)
			continue
		}
		metrics.RecommendationsCreated.Inc()

		if sp.page.ClusterKey != "" {
			if err := e.store.InsertClusterLogEntry(sp.page.ClusterKey, sp.page.ID, now); err != nil {
				slog.Error("failed to append cluster log entry",
					"cluster", sp.page.ClusterKey, "page_id", sp.page.ID, "error", err)
			}
		}

		e.exportPlan(rec)
		recs = append(recs, rec)
	}

	metrics.GenerationRuns.Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	metrics.LastGeneration.SetToCurrentTime()

	return recs, nil
}

// selectBalanced takes at most one highest-scoring page from each of the
// three category buckets in fixed order (money, hub, support), then fills the
// remaining slots with the next-highest-scoring unselected pages regardless
// of category. scored must already be sorted descending by score.
func selectBalanced(scored []scoredPage, count int) []scoredPage {
	selected := make([]scoredPage, 0, count)
	used := make(map[string]bool)

	for _, bucket := range []map[string]bool{moneyBucket, hubBucket, supportBucket} {
		if len(selected) >= count {
			break
		}
		for _, sp := range scored {
			if used[sp.page.ID] {
				continue
			}
			if bucket[effectiveType(sp.page.Template, sp.page.Category)] {
				selected = append(selected, sp)
				used[sp.page.ID] = true
				break
			}
		}
	}

	for _, sp := range scored {
		if len(selected) >= count {
			break
		}
		if !used[sp.page.ID] {
			selected = append(selected, sp)
			used[sp.page.ID] = true
		}
	}

	return selected
}

// buildRecommendation synthesizes the upgrade plan for one selected page.
func (e *Engine) buildRecommendation(sp scoredPage, corpus []scoredPage, runDate, now time.Time) *models.DailyRecommendation {
	reasons := e.selectionReasons(sp)
	tasks := topTasks(sp.analysis, 5)
	boosters := suggestBoosters(sp.analysis)
	impact := classifyImpact(sp.score.Total)
	outbound, inbound := e.suggestLinkTargets(sp.page, corpus)

	plan := &models.UpgradePlan{
		PageID:         sp.page.ID,
		PagePath:       sp.page.Path,
		PageTitle:      sp.page.Title,
		Score:          *sp.score,
		Gaps:           sp.analysis.Gaps,
		Reasons:        reasons,
		Tasks:          tasks,
		Boosters:       boosters,
		ImpactEstimate: impact,
		GeneratedAt:    now,
	}

	return &models.DailyRecommendation{
		ID:              uuid.New().String(),
		PageID:          sp.page.ID,
		PagePath:        sp.page.Path,
		PageTitle:       sp.page.Title,
		Reasons:         reasons,
		Tasks:           tasks,
		Impact:          impact,
		Boosters:        boosters,
		OutboundTargets: outbound,
		NeededInbound:   inbound,
		Plan:            plan,
		Status:          models.StatusPending,
		Date:            runDate,
		CreatedAt:       now,
	}
}

// selectionReasons derives the "why selected" list from the score breakdown.
func (e *Engine) selectionReasons(sp scoredPage) []string {
	reasons := []string{}
	breakdown := sp.score.Breakdown

	if breakdown[models.ComponentBusiness] >= 15 {
		reasons = append(reasons, "high business leverage")
	}
	if breakdown[models.ComponentFreshness] >= 10 {
		interval := e.config.refreshInterval(sp.page.RefreshIntervalDays, sp.page.PriorityTier)
		overdue := daysSinceUpdate(sp.page.UpdatedAt) - interval
		reasons = append(reasons, fmt.Sprintf("content is %d days overdue for refresh", overdue))
	}
	for _, g := range sp.analysis.Gaps {
		if g.Severity == models.SeverityCritical {
			reasons = append(reasons, fmt.Sprintf("critical content gap: %s", g.Type))
		}
	}
	if breakdown[models.ComponentLinks] >= 8 {
		reasons = append(reasons, "weak internal linking")
	}

	return reasons
}

// topTasks returns the recommendation strings of the top n gaps.
func topTasks(analysis *models.ContentAnalysis, n int) []string {
	if len(analysis.Recommendations) < n {
		n = len(analysis.Recommendations)
	}
	tasks := make([]string, n)
	copy(tasks, analysis.Recommendations[:n])
	return tasks
}

// suggestBoosters derives the dynamic content boosters from the absence flags
// and a link-count threshold of 6.
func suggestBoosters(analysis *models.ContentAnalysis) []string {
	boosters := []string{}
	if !analysis.HasFAQ {
		boosters = append(boosters, models.BoosterFAQ)
	}
	if !analysis.HasProof {
		boosters = append(boosters, models.BoosterProof)
	}
	if analysis.OutboundLinks < 6 {
		boosters = append(boosters, models.BoosterLink)
	}
	if !analysis.HasGlossary {
		boosters = append(boosters, models.BoosterGlossary)
	}
	return boosters
}

// classifyImpact maps a total score to a qualitative estimate.
func classifyImpact(total int) string {
	switch {
	case total > 50:
		return models.ImpactHigh
	case total < 20:
		return models.ImpactLow
	default:
		return models.ImpactMedium
	}
}

// suggestLinkTargets proposes up to three outbound targets (same-cluster
// pages this page does not link to yet) and up to three needed inbound
// sources (same-cluster pages that do not link back). A dedicated link-graph
// service can overwrite these; this corpus-local pass fills them when none is
// wired.
func (e *Engine) suggestLinkTargets(page *models.Page, corpus []scoredPage) (outbound, inbound []string) {
	if page.ClusterKey == "" {
		return nil, nil
	}

	linked := make(map[string]bool, len(page.InternalLinks))
	for _, l := range page.InternalLinks {
		linked[l] = true
	}

	for _, sp := range corpus {
		other := sp.page
		if other.ID == page.ID || other.ClusterKey != page.ClusterKey {
			continue
		}
		if len(outbound) < 3 && !linked[other.Path] {
			outbound = append(outbound, other.Path)
		}
		linksBack := false
		for _, l := range other.InternalLinks {
			if l == page.Path {
				linksBack = true
				break
			}
		}
		if len(inbound) < 3 && !linksBack {
			inbound = append(inbound, other.Path)
		}
	}

	return outbound, inbound
}

// exportPlan writes the full plan payload through the exporter, if one is
// configured. Export failures are logged and never affect the run.
func (e *Engine) exportPlan(rec *models.DailyRecommendation) {
	if e.exporter == nil || rec.Plan == nil {
		return
	}

	data, err := json.MarshalIndent(rec.Plan, "", "  ")
	if err != nil {
		slog.Error("failed to marshal plan for export", "page_id", rec.PageID, "error", err)
		return
	}

	name := slug.GenerateWithFallback(rec.PageTitle, rec.PageID)
	path, err := e.exporter.SaveReport(data, name)
	if err != nil {
		slog.Error("failed to export plan report", "page_id", rec.PageID, "error", err)
		return
	}
	slog.Info("exported plan report", "page_id", rec.PageID, "path", path)
}

// ScoreAllPages recomputes the score of every page and returns the results
// sorted descending. Diagnostic bulk operation; single-page failures are
// logged and skipped.
func (e *Engine) ScoreAllPages(ctx context.Context) ([]*models.PageScore, error) {
	scored, err := e.scoreCorpus(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.PageScore, len(scored))
	for i, sp := range scored {
		out[i] = sp.score
	}
	return out, nil
}

// AnalyzePage runs a single-page diagnostic analysis.
func (e *Engine) AnalyzePage(id string) (*models.ContentAnalysis, error) {
	page, err := resolvePage(e.store, id)
	if err != nil {
		return nil, err
	}
	return e.analyzer.Analyze(page)
}

// GetTodaysRecommendations returns the recommendations created today (UTC).
func (e *Engine) GetTodaysRecommendations() ([]*models.DailyRecommendation, error) {
	return e.GetRecommendationsForDate(time.Now().UTC())
}

// GetRecommendationsForDate returns the recommendations for one calendar day.
func (e *Engine) GetRecommendationsForDate(date time.Time) ([]*models.DailyRecommendation, error) {
	from := date.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)
	return e.store.RecommendationsByDateRange(from, to)
}
