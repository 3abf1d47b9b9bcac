package db

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/zombar/optimizer/models"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL. Tests are
// skipped when it is unset so the unit suite stays self-contained.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	database, err := New(Config{DSN: dsn})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// uniqueID namespaces test rows so parallel runs against a shared database
// cannot collide.
func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func testDBPage(id, path string) *models.Page {
	return &models.Page{
		ID:            id,
		Path:          path,
		Title:         "Test Page",
		Category:      "product",
		PriorityTier:  1,
		ClusterKey:    "test-cluster",
		Content:       "<h1>Test</h1>",
		InternalLinks: []string{"/a", "/b"},
		SchemaType:    "Product",
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestSaveAndGetPage(t *testing.T) {
	database := setupTestDB(t)

	id := uniqueID("page")
	page := testDBPage(id, "/"+id)
	if err := database.SavePage(page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM optimizer_pages WHERE id = $1", id)
	})

	got, err := database.GetPage(id)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected page, got nil")
	}
	if got.Path != page.Path || got.Category != "product" {
		t.Errorf("Round-tripped page mismatch: %+v", got)
	}
	if len(got.InternalLinks) != 2 {
		t.Errorf("Expected 2 internal links, got %v", got.InternalLinks)
	}

	// Upsert keeps the row unique.
	page.Title = "Updated"
	if err := database.SavePage(page); err != nil {
		t.Fatalf("SavePage upsert failed: %v", err)
	}
	got, _ = database.GetPage(id)
	if got.Title != "Updated" {
		t.Errorf("Expected updated title, got %q", got.Title)
	}
}

func TestGetPageMissing(t *testing.T) {
	database := setupTestDB(t)

	got, err := database.GetPage("does-not-exist")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing page, got %+v", got)
	}
}

func TestUpsertAndGetMetrics(t *testing.T) {
	database := setupTestDB(t)

	id := uniqueID("metrics")
	page := testDBPage(id, "/"+id)
	if err := database.SavePage(page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM optimizer_pages WHERE id = $1", id)
	})

	m := &models.PageMetrics{
		PageID:        id,
		HasH1:         true,
		H2Count:       3,
		WordCount:     950,
		OutboundLinks: 4,
		PriorityScore: 87,
		CalculatedAt:  time.Now().UTC(),
	}
	if err := database.UpsertMetrics(m); err != nil {
		t.Fatalf("UpsertMetrics failed: %v", err)
	}

	got, err := database.GetMetrics(id)
	if err != nil {
		t.Fatalf("GetMetrics failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected metrics, got nil")
	}
	if got.PriorityScore != 87 || got.H2Count != 3 {
		t.Errorf("Round-tripped metrics mismatch: %+v", got)
	}

	// Second upsert overwrites.
	m.PriorityScore = 90
	if err := database.UpsertMetrics(m); err != nil {
		t.Fatalf("UpsertMetrics overwrite failed: %v", err)
	}
	got, _ = database.GetMetrics(id)
	if got.PriorityScore != 90 {
		t.Errorf("Expected overwritten score 90, got %d", got.PriorityScore)
	}

	// Cascade delete removes the metrics row with the page.
	database.conn.Exec("DELETE FROM optimizer_pages WHERE id = $1", id)
	got, err = database.GetMetrics(id)
	if err != nil {
		t.Fatalf("GetMetrics after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected metrics cascade-deleted, got %+v", got)
	}
}

func TestCountInboundLinks(t *testing.T) {
	database := setupTestDB(t)

	targetID := uniqueID("target")
	targetPath := "/" + targetID
	sourceID := uniqueID("source")

	target := testDBPage(targetID, targetPath)
	source := testDBPage(sourceID, "/"+sourceID)
	source.InternalLinks = []string{targetPath}

	for _, p := range []*models.Page{target, source} {
		if err := database.SavePage(p); err != nil {
			t.Fatalf("SavePage failed: %v", err)
		}
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM optimizer_pages WHERE id IN ($1, $2)", targetID, sourceID)
	})

	count, err := database.CountInboundLinks(targetPath)
	if err != nil {
		t.Fatalf("CountInboundLinks failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 inbound link, got %d", count)
	}
}

func TestClusterLog(t *testing.T) {
	database := setupTestDB(t)

	key := uniqueID("cluster")
	now := time.Now().UTC()

	if err := database.InsertClusterLogEntry(key, "p1", now); err != nil {
		t.Fatalf("InsertClusterLogEntry failed: %v", err)
	}
	if err := database.InsertClusterLogEntry(key, "p2", now.AddDate(0, 0, -10)); err != nil {
		t.Fatalf("InsertClusterLogEntry failed: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM optimizer_cluster_log WHERE cluster_key = $1", key)
	})

	entries, err := database.ClusterSelections(key, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("ClusterSelections failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry inside the window, got %d", len(entries))
	}
	if entries[0].PageID != "p1" {
		t.Errorf("Expected entry for p1, got %s", entries[0].PageID)
	}
}

func TestRecommendationsByDateRange(t *testing.T) {
	database := setupTestDB(t)

	id := uniqueID("rec")
	today := time.Now().UTC().Truncate(24 * time.Hour)

	rec := &models.DailyRecommendation{
		ID:        id,
		PageID:    "p1",
		PagePath:  "/p1",
		PageTitle: "Page One",
		Reasons:   []string{"high business leverage"},
		Tasks:     []string{"Add a single descriptive H1 heading to the page."},
		Impact:    models.ImpactHigh,
		Status:    models.StatusPending,
		Date:      today,
		CreatedAt: time.Now().UTC(),
	}
	if err := database.InsertRecommendation(rec); err != nil {
		t.Fatalf("InsertRecommendation failed: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM optimizer_recommendations WHERE id = $1", id)
	})

	recs, err := database.RecommendationsByDateRange(today, today.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("RecommendationsByDateRange failed: %v", err)
	}

	var found *models.DailyRecommendation
	for _, r := range recs {
		if r.ID == id {
			found = r
			break
		}
	}
	if found == nil {
		t.Fatal("Expected the inserted recommendation in today's range")
	}
	if found.Impact != models.ImpactHigh || len(found.Reasons) != 1 {
		t.Errorf("Round-tripped recommendation mismatch: %+v", found)
	}

	// Outside the range it must not appear.
	recs, err = database.RecommendationsByDateRange(today.AddDate(0, 0, -2), today.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("RecommendationsByDateRange failed: %v", err)
	}
	for _, r := range recs {
		if r.ID == id {
			t.Error("Recommendation leaked outside its date range")
		}
	}
}
