package optimizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/zombar/optimizer/models"
)

// ErrPageNotFound is returned when a referenced page id does not resolve in
// the content store. It is fatal for the single operation that referenced the
// page, never for a whole batch.
var ErrPageNotFound = errors.New("page not found")

// Store defines the content-store operations the engine needs. The underlying
// page store is an external collaborator; getters return (nil, nil) when the
// row is absent.
type Store interface {
	GetPage(id string) (*models.Page, error)
	ListPages() ([]*models.Page, error)

	GetMetrics(pageID string) (*models.PageMetrics, error)
	UpsertMetrics(m *models.PageMetrics) error
	CountInboundLinks(path string) (int, error)

	ClusterSelections(clusterKey string, since time.Time) ([]models.ClusterLogEntry, error)
	InsertClusterLogEntry(clusterKey, pageID string, at time.Time) error

	InsertRecommendation(rec *models.DailyRecommendation) error
	RecommendationsByDateRange(from, to time.Time) ([]*models.DailyRecommendation, error)
}

// resolvePage loads a page and converts an absent row into ErrPageNotFound.
func resolvePage(store Store, id string) (*models.Page, error) {
	page, err := store.GetPage(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", id, err)
	}
	if page == nil {
		return nil, fmt.Errorf("page %s: %w", id, ErrPageNotFound)
	}
	return page, nil
}
