package optimizer

import (
	"errors"
	"sync"
	"time"

	"github.com/zombar/optimizer/models"
)

// fakeStore is an in-memory Store for tests. Safe for the concurrent access
// the engine's scoring pool performs.
type fakeStore struct {
	mu         sync.Mutex
	pages      map[string]*models.Page
	order      []string
	metrics    map[string]*models.PageMetrics
	clusterLog []models.ClusterLogEntry
	recs       []*models.DailyRecommendation
	failInsert bool
}

func newFakeStore(pages ...*models.Page) *fakeStore {
	s := &fakeStore{
		pages:   make(map[string]*models.Page),
		metrics: make(map[string]*models.PageMetrics),
	}
	for _, p := range pages {
		s.pages[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s
}

func (s *fakeStore) GetPage(id string) (*models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[id], nil
}

func (s *fakeStore) ListPages() ([]*models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Page, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pages[id])
	}
	return out, nil
}

func (s *fakeStore) GetMetrics(pageID string) (*models.PageMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.metrics[pageID]; ok {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (s *fakeStore) UpsertMetrics(m *models.PageMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.metrics[m.PageID] = &c
	return nil
}

func (s *fakeStore) CountInboundLinks(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, p := range s.pages {
		if p.Path == path {
			continue
		}
		for _, l := range p.InternalLinks {
			if l == path {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *fakeStore) ClusterSelections(clusterKey string, since time.Time) ([]models.ClusterLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []models.ClusterLogEntry
	for _, e := range s.clusterLog {
		if e.ClusterKey == clusterKey && !e.SelectedAt.Before(since) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *fakeStore) InsertClusterLogEntry(clusterKey, pageID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterLog = append(s.clusterLog, models.ClusterLogEntry{
		ClusterKey: clusterKey,
		PageID:     pageID,
		SelectedAt: at,
	})
	return nil
}

func (s *fakeStore) InsertRecommendation(rec *models.DailyRecommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return errors.New("insert failed")
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *fakeStore) RecommendationsByDateRange(from, to time.Time) ([]*models.DailyRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.DailyRecommendation
	for _, r := range s.recs {
		if !r.Date.Before(from) && r.Date.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}
