package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jjenkins/evcms/internal/model"
)

// MetricRecorder persists a single named metric value
type MetricRecorder interface {
	StoreMetric(ctx context.Context, name, value string) error
}

// ItemSource lists the items of a collection, drafts included
type ItemSource interface {
	Items(ctx context.Context, coll model.Collection, includeDrafts bool) ([]model.ContentItem, error)
}

// MetricsService calculates and stores content metrics
type MetricsService struct {
	items    ItemSource
	recorder MetricRecorder
}

// NewMetricsService creates a new MetricsService. recorder may be nil when no
// database is configured
func NewMetricsService(items ItemSource, recorder MetricRecorder) *MetricsService {
	return &MetricsService{items: items, recorder: recorder}
}

// CollectionMetrics summarizes one collection
type CollectionMetrics struct {
	Collection model.Collection `json:"collection"`
	Total      int              `json:"total"`
	Published  int              `json:"published"`
	Drafts     int              `json:"drafts"`
	Pro        int              `json:"pro"`
	Featured   int              `json:"featured"`
}

// ContentMetrics represents calculated content-wide metrics
type ContentMetrics struct {
	Collections  []CollectionMetrics `json:"collections"`
	TotalItems   int                 `json:"total_items"`
	TotalMinutes int                 `json:"total_reading_minutes"`
	TopBrand     string              `json:"top_brand"`
	TopCategory  string              `json:"top_category"`
	LatestDate   string              `json:"latest_date"`
	LatestItemID string              `json:"latest_item_id"`
}

// Calculate computes metrics over every collection
func (m *MetricsService) Calculate(ctx context.Context) (*ContentMetrics, error) {
	metrics := &ContentMetrics{Collections: make([]CollectionMetrics, 0, len(model.Collections))}
	brands := make(map[string]int)
	categories := make(map[string]int)
	var latest *model.ContentItem

	for _, coll := range model.Collections {
		items, err := m.items.Items(ctx, coll, true)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", coll, err)
		}

		cm := CollectionMetrics{Collection: coll, Total: len(items)}
		for i := range items {
			item := &items[i]
			if item.Published {
				cm.Published++
			} else {
				cm.Drafts++
			}
			if item.IsPro {
				cm.Pro++
			}
			if item.Featured {
				cm.Featured++
			}
			metrics.TotalMinutes += item.ReadingTime
			if item.Brand != "" {
				brands[item.Brand]++
			}
			if item.Category != "" {
				categories[item.Category]++
			}
			if t, ok := item.ParsedDate(); ok {
				if latest == nil {
					latest = item
				} else if lt, _ := latest.ParsedDate(); t.After(lt) {
					latest = item
				}
			}
		}

		metrics.TotalItems += cm.Total
		metrics.Collections = append(metrics.Collections, cm)
	}

	metrics.TopBrand = topKey(brands)
	metrics.TopCategory = topKey(categories)
	if latest != nil {
		metrics.LatestDate = latest.Date
		metrics.LatestItemID = latest.ID
	}

	return metrics, nil
}

// CalculateAndStore calculates metrics and stores them when a recorder is
// configured
func (m *MetricsService) CalculateAndStore(ctx context.Context) (*ContentMetrics, error) {
	metrics, err := m.Calculate(ctx)
	if err != nil {
		return nil, err
	}
	if m.recorder == nil {
		return metrics, nil
	}

	values := [][2]string{
		{"total_items", fmt.Sprintf("%d", metrics.TotalItems)},
		{"total_reading_minutes", fmt.Sprintf("%d", metrics.TotalMinutes)},
		{"top_brand", metrics.TopBrand},
		{"top_category", metrics.TopCategory},
		{"latest_date", metrics.LatestDate},
	}
	for _, cm := range metrics.Collections {
		values = append(values,
			[2]string{string(cm.Collection) + "_total", fmt.Sprintf("%d", cm.Total)},
			[2]string{string(cm.Collection) + "_published", fmt.Sprintf("%d", cm.Published)},
			[2]string{string(cm.Collection) + "_drafts", fmt.Sprintf("%d", cm.Drafts)},
		)
	}

	for _, v := range values {
		if err := m.recorder.StoreMetric(ctx, v[0], v[1]); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

// topKey returns the most frequent key, breaking ties alphabetically
func topKey(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	for _, k := range keys {
		if best == "" || counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
