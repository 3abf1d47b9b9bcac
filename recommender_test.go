package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/zombar/optimizer/models"
)

// fakeExporter records every report saved through it.
type fakeExporter struct {
	names []string
}

func (f *fakeExporter) SaveReport(data []byte, name string) (string, error) {
	f.names = append(f.names, name)
	return "reports/" + name + ".json", nil
}

// testCorpus builds a small mixed-category corpus: one money page, one hub
// page, and three support pages.
func testCorpus() []*models.Page {
	now := time.Now()
	return []*models.Page{
		{ID: "prod-1", Path: "/boilers/compare", Title: "Boiler Comparison", Category: "product", PriorityTier: 1, Content: "<p>product copy</p>", UpdatedAt: now},
		{ID: "hub-1", Path: "/heating", Title: "Heating Hub", Category: "hub", PriorityTier: 2, Content: "<p>hub copy</p>", UpdatedAt: now},
		{ID: "faq-1", Path: "/heating/faq", Title: "Heating FAQ", Category: "faq", PriorityTier: 3, Content: "<p>faq copy</p>", UpdatedAt: now},
		{ID: "art-1", Path: "/blog/one", Title: "Article One", Category: "article", PriorityTier: 3, Content: "<p>article copy</p>", UpdatedAt: now},
		{ID: "art-2", Path: "/blog/two", Title: "Article Two", Category: "article", PriorityTier: 4, Content: "<p>article copy</p>", UpdatedAt: now},
	}
}

func bucketOf(category string) string {
	switch {
	case moneyBucket[category]:
		return "money"
	case hubBucket[category]:
		return "hub"
	case supportBucket[category]:
		return "support"
	}
	return ""
}

func TestRunDailyGenerationBalancedSelection(t *testing.T) {
	store := newFakeStore(testCorpus()...)
	engine := New(DefaultConfig(), store, nil)

	recs, err := engine.RunDailyGeneration(context.Background(), 5)
	if err != nil {
		t.Fatalf("RunDailyGeneration failed: %v", err)
	}

	if len(recs) != 5 {
		t.Fatalf("Expected 5 recommendations, got %d", len(recs))
	}

	// First three picks must come from the money, hub, and support buckets in
	// that order.
	categories := make(map[string]string)
	for _, p := range testCorpus() {
		categories[p.ID] = p.Category
	}
	wantBuckets := []string{"money", "hub", "support"}
	for i, want := range wantBuckets {
		got := bucketOf(categories[recs[i].PageID])
		if got != want {
			t.Errorf("Pick %d: expected a %s-bucket page, got %s (%s)", i, want, got, recs[i].PageID)
		}
	}

	// No duplicate selections.
	seen := make(map[string]bool)
	for _, rec := range recs {
		if seen[rec.PageID] {
			t.Errorf("Page %s selected twice", rec.PageID)
		}
		seen[rec.PageID] = true
	}

	// Every recommendation carries the full payload.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, rec := range recs {
		if rec.ID == "" {
			t.Error("Expected non-empty recommendation ID")
		}
		if rec.Status != models.StatusPending {
			t.Errorf("Expected status %q, got %q", models.StatusPending, rec.Status)
		}
		if !rec.Date.Equal(today) {
			t.Errorf("Expected run date %v, got %v", today, rec.Date)
		}
		if rec.Plan == nil {
			t.Error("Expected an attached upgrade plan")
		}
		if len(rec.Tasks) == 0 {
			t.Error("Expected at least one task")
		}
	}
}

func TestRunDailyGenerationEmptyCorpus(t *testing.T) {
	store := newFakeStore()
	engine := New(DefaultConfig(), store, nil)

	recs, err := engine.RunDailyGeneration(context.Background(), 3)
	if err != nil {
		t.Fatalf("Expected no error on empty corpus, got %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %d", len(recs))
	}
}

func TestRunDailyGenerationDefaultCount(t *testing.T) {
	store := newFakeStore(testCorpus()...)
	engine := New(DefaultConfig(), store, nil)

	recs, err := engine.RunDailyGeneration(context.Background(), 0)
	if err != nil {
		t.Fatalf("RunDailyGeneration failed: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("Expected the default of 3 recommendations, got %d", len(recs))
	}
}

func TestRunDailyGenerationClusterLog(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		&models.Page{ID: "c1", Path: "/c1", Category: "product", PriorityTier: 1, ClusterKey: "boilers", Content: "<p>x</p>", UpdatedAt: now},
		&models.Page{ID: "c2", Path: "/c2", Category: "article", PriorityTier: 3, Content: "<p>x</p>", UpdatedAt: now},
	)
	engine := New(DefaultConfig(), store, nil)

	if _, err := engine.RunDailyGeneration(context.Background(), 2); err != nil {
		t.Fatalf("RunDailyGeneration failed: %v", err)
	}

	entries, err := store.ClusterSelections("boilers", time.Now().UTC().AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("ClusterSelections failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 cluster log entry, got %d", len(entries))
	}
	if entries[0].PageID != "c1" {
		t.Errorf("Expected cluster entry for c1, got %s", entries[0].PageID)
	}
}

func TestRunDailyGenerationExportsPlans(t *testing.T) {
	store := newFakeStore(testCorpus()...)
	exporter := &fakeExporter{}
	engine := New(DefaultConfig(), store, exporter)

	recs, err := engine.RunDailyGeneration(context.Background(), 2)
	if err != nil {
		t.Fatalf("RunDailyGeneration failed: %v", err)
	}
	if len(exporter.names) != len(recs) {
		t.Errorf("Expected %d exported reports, got %d", len(recs), len(exporter.names))
	}
}

func TestSelectBalanced(t *testing.T) {
	mk := func(id, category string, total int) scoredPage {
		return scoredPage{
			page:  &models.Page{ID: id, Category: category},
			score: &models.PageScore{PageID: id, Total: total},
		}
	}

	t.Run("bucket picks then greedy fill", func(t *testing.T) {
		// Sorted descending by score, as scoreCorpus guarantees.
		scored := []scoredPage{
			mk("a1", "article", 90),
			mk("p1", "product", 80),
			mk("a2", "article", 70),
			mk("h1", "hub", 60),
			mk("f1", "faq", 50),
		}

		selected := selectBalanced(scored, 4)
		if len(selected) != 4 {
			t.Fatalf("Expected 4 selections, got %d", len(selected))
		}

		// p1 is the best money page, h1 the best hub page, a1 the best
		// support page; the last slot goes to the highest remaining score.
		wantOrder := []string{"p1", "h1", "a1", "a2"}
		for i, want := range wantOrder {
			if selected[i].page.ID != want {
				t.Errorf("Selection %d: expected %s, got %s", i, want, selected[i].page.ID)
			}
		}
	})

	t.Run("count larger than corpus", func(t *testing.T) {
		scored := []scoredPage{
			mk("p1", "product", 80),
			mk("a1", "article", 70),
		}
		selected := selectBalanced(scored, 10)
		if len(selected) != 2 {
			t.Errorf("Expected all 2 pages, got %d", len(selected))
		}
	})

	t.Run("count caps bucket picks", func(t *testing.T) {
		scored := []scoredPage{
			mk("p1", "product", 80),
			mk("h1", "hub", 70),
			mk("f1", "faq", 60),
		}
		selected := selectBalanced(scored, 1)
		if len(selected) != 1 {
			t.Fatalf("Expected 1 selection, got %d", len(selected))
		}
		if selected[0].page.ID != "p1" {
			t.Errorf("Expected p1, got %s", selected[0].page.ID)
		}
	})
}

func TestSuggestBoosters(t *testing.T) {
	t.Run("all boosters for a bare page", func(t *testing.T) {
		analysis := &models.ContentAnalysis{OutboundLinks: 2}
		got := suggestBoosters(analysis)
		want := []string{models.BoosterFAQ, models.BoosterProof, models.BoosterLink, models.BoosterGlossary}
		if len(got) != len(want) {
			t.Fatalf("Expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Booster %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("no boosters for a complete page", func(t *testing.T) {
		analysis := &models.ContentAnalysis{
			HasFAQ:        true,
			HasProof:      true,
			HasGlossary:   true,
			OutboundLinks: 6,
		}
		if got := suggestBoosters(analysis); len(got) != 0 {
			t.Errorf("Expected no boosters, got %v", got)
		}
	})
}

func TestClassifyImpact(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{total: 51, want: models.ImpactHigh},
		{total: 50, want: models.ImpactMedium},
		{total: 20, want: models.ImpactMedium},
		{total: 19, want: models.ImpactLow},
	}
	for _, tt := range tests {
		if got := classifyImpact(tt.total); got != tt.want {
			t.Errorf("classifyImpact(%d): expected %s, got %s", tt.total, tt.want, got)
		}
	}
}

func TestSuggestLinkTargets(t *testing.T) {
	page := &models.Page{
		ID:            "p1",
		Path:          "/p1",
		ClusterKey:    "boilers",
		InternalLinks: []string{"/p2"},
	}
	corpus := []scoredPage{
		{page: page},
		{page: &models.Page{ID: "p2", Path: "/p2", ClusterKey: "boilers", InternalLinks: []string{"/p1"}}},
		{page: &models.Page{ID: "p3", Path: "/p3", ClusterKey: "boilers"}},
		{page: &models.Page{ID: "p4", Path: "/p4", ClusterKey: "other"}},
	}

	engine := New(DefaultConfig(), newFakeStore(), nil)
	outbound, inbound := engine.suggestLinkTargets(page, corpus)

	// p2 is already linked, p4 is in another cluster: only p3 qualifies.
	if len(outbound) != 1 || outbound[0] != "/p3" {
		t.Errorf("Expected outbound [/p3], got %v", outbound)
	}
	// p2 links back; p3 does not.
	if len(inbound) != 1 || inbound[0] != "/p3" {
		t.Errorf("Expected inbound [/p3], got %v", inbound)
	}
}

func TestGetRecommendationsForDate(t *testing.T) {
	store := newFakeStore()
	engine := New(DefaultConfig(), store, nil)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	store.InsertRecommendation(&models.DailyRecommendation{ID: "r1", PageID: "p1", Date: today})
	store.InsertRecommendation(&models.DailyRecommendation{ID: "r2", PageID: "p2", Date: yesterday})

	recs, err := engine.GetTodaysRecommendations()
	if err != nil {
		t.Fatalf("GetTodaysRecommendations failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "r1" {
		t.Errorf("Expected only today's recommendation, got %v", recs)
	}

	recs, err = engine.GetRecommendationsForDate(yesterday)
	if err != nil {
		t.Fatalf("GetRecommendationsForDate failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "r2" {
		t.Errorf("Expected only yesterday's recommendation, got %v", recs)
	}
}

func TestRunDailyGenerationSkipsFailedInserts(t *testing.T) {
	store := newFakeStore(testCorpus()...)
	store.failInsert = true
	engine := New(DefaultConfig(), store, nil)

	recs, err := engine.RunDailyGeneration(context.Background(), 3)
	if err != nil {
		t.Fatalf("Expected run to survive insert failures, got %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no returned recommendations when every insert fails, got %d", len(recs))
	}
}
