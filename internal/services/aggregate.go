package services

import (
	"context"
	"regexp"
	"strconv"
	"sync"

	"terroir/internal/config"
	"terroir/internal/metrics"
	"terroir/internal/model"
)

// defaultMaxWineries caps the fan-out of a cross-winery search. Each
// extra winery costs one more model round trip, so this trades result
// completeness against latency.
const defaultMaxWineries = 3

var nonNumericPattern = regexp.MustCompile(`[^0-9.]`)

// Aggregator orchestrates cross-winery searches: candidate selection,
// concurrent per-winery lookups, price filtering, and result merging.
type Aggregator struct {
	selector    *CandidateSelector
	wineSearch  WineSearchService
	maxWineries int
}

// NewAggregator constructs an Aggregator.
func NewAggregator(cfg *config.Config, selector *CandidateSelector, wineSearch WineSearchService) *Aggregator {
	max := defaultMaxWineries
	if cfg != nil && cfg.Search.MaxWineries > 0 {
		max = cfg.Search.MaxWineries
	}
	return &Aggregator{
		selector:    selector,
		wineSearch:  wineSearch,
		maxWineries: max,
	}
}

// Aggregate runs one cross-winery search. Per-winery lookups run
// concurrently and are joined when all have settled; a slow or failed
// lookup never blocks or cancels the others, since each one already
// degrades to an empty response. Listings are flattened in selection
// order, preserving each winery's internal order, and tagged with
// their source winery. maxPrice (when non-nil) drops listings whose
// price parses to a number above the bound; unparseable prices are
// kept rather than silently dropped.
func (a *Aggregator) Aggregate(ctx context.Context, variety string, maxPrice *float64, district string) model.AggregatedSearchResult {
	selected := a.selector.Select(variety, district, a.maxWineries)

	result := model.AggregatedSearchResult{
		SearchedWineries: []string{},
		Matches:          []model.AggregatedMatch{},
	}
	if len(selected) == 0 {
		return result
	}

	for _, w := range selected {
		result.SearchedWineries = append(result.SearchedWineries, w.Name)
	}

	responses := make([]model.WineSearchResponse, len(selected))
	var wg sync.WaitGroup
	for i, w := range selected {
		wg.Add(1)
		go func(i int, w model.Winery) {
			defer wg.Done()
			responses[i] = a.wineSearch.SearchWines(ctx, w.Name, w.ShopURL, variety)
		}(i, w)
	}
	wg.Wait()

	for i, resp := range responses {
		w := selected[i]
		for _, wine := range resp.Wines {
			if !priceWithin(wine.Price, maxPrice) {
				continue
			}
			result.Matches = append(result.Matches, model.AggregatedMatch{
				WineryID: w.ID,
				Winery:   w.Name,
				Wine:     wine.Name,
				Price:    wine.Price,
				Link:     wine.Link,
			})
		}
	}

	metrics.RecordAggregateSearch(len(selected), len(result.Matches))
	return result
}

// priceWithin reports whether a free-form price string passes the
// maximum price filter. The filter is permissive: with no bound, or
// when the price does not parse as a number ("Price N/A", ""), the
// listing is kept.
func priceWithin(price string, maxPrice *float64) bool {
	if maxPrice == nil {
		return true
	}
	cleaned := nonNumericPattern.ReplaceAllString(price, "")
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return true
	}
	return val <= *maxPrice
}
