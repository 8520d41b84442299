package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"terroir/internal/config"
	"terroir/internal/genai"
	"terroir/internal/listing"
	"terroir/internal/metrics"
	"terroir/internal/model"
)

const defaultListingLimit = 5

// regionalFallbackDescription is returned whenever description
// generation fails; the UI always gets renderable text.
const regionalFallbackDescription = "Discover the unique flavors of the Canberra region."

// WineSearchService performs per-winery "wines for sale" lookups
// against the model's search-grounded generation, and winery
// description generation. Failures of the external service are
// expected and degrade to empty results; no method returns an error.
type WineSearchService interface {
	SearchWines(ctx context.Context, wineryName, shopURL, varietyHint string) model.WineSearchResponse
	Describe(ctx context.Context, wineryName string, features []string) string
}

type wineSearchService struct {
	client       genai.Client
	listingLimit int
}

// NewWineSearchService constructs a WineSearchService backed by the
// provided model client.
func NewWineSearchService(cfg *config.Config, client genai.Client) WineSearchService {
	limit := defaultListingLimit
	if cfg != nil && cfg.Search.ListingLimit > 0 {
		limit = cfg.Search.ListingLimit
	}
	return &wineSearchService{client: client, listingLimit: limit}
}

// FallbackShopURL returns the link used when a listing's URL cannot be
// trusted: the winery's own shop page when known, otherwise a search
// engine query for the winery's wines.
func FallbackShopURL(wineryName, shopURL string) string {
	if shopURL != "" {
		return shopURL
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(wineryName+" wines buy")
}

func (s *wineSearchService) SearchWines(ctx context.Context, wineryName, shopURL, varietyHint string) model.WineSearchResponse {
	fallbackURL := FallbackShopURL(wineryName, shopURL)

	prompt := s.buildSearchPrompt(wineryName, shopURL, fallbackURL, varietyHint)

	grounded, err := s.client.GenerateWithSearch(ctx, prompt)
	metrics.RecordModelCall("wine_search", err == nil)
	if err != nil {
		// Third-party network dependency; an unreachable model is a
		// normal outcome, not a failure of this service.
		return model.WineSearchResponse{Wines: []model.WineListing{}, Sources: []model.SourceCitation{}}
	}

	resp := listing.Parse(grounded.Text, fallbackURL)
	if len(grounded.Sources) > 0 {
		resp.Sources = grounded.Sources
	}
	return resp
}

func (s *wineSearchService) buildSearchPrompt(wineryName, shopURL, fallbackURL, varietyHint string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Find %d current wines available for purchase from %s in the Canberra District wine region.\n", s.listingLimit, wineryName)
	if varietyHint != "" {
		fmt.Fprintf(&sb, "Only include %s wines.\n", varietyHint)
	}

	sb.WriteString("\nIMPORTANT - URL SAFETY RULES:\n")
	if shopURL != "" {
		fmt.Fprintf(&sb, "1. You are searching for wines listed on this specific store page: %s\n", shopURL)
	} else {
		fmt.Fprintf(&sb, "1. Find the winery's own online shop page; start from this search: %s\n", fallbackURL)
	}
	sb.WriteString("2. If you see a specific product link (like \".../product/2023-shiraz\") in the search results, use it.\n")
	fmt.Fprintf(&sb, "3. CRITICAL: If you CANNOT confirm the specific product link exists, you MUST return the main shop URL: %s\n", fallbackURL)
	sb.WriteString("4. DO NOT guess or construct deep links (e.g. do not guess \".../2022-vintage\" if you didn't see it).\n")
	sb.WriteString("5. It is better to link to the main store page than to send the user to a 404 error.\n")

	sb.WriteString("\nFormat each entry on a new line strictly following this pattern:\n")
	sb.WriteString("Wine Name | Price | URL\n\n")
	sb.WriteString("Example:\n")
	fmt.Fprintf(&sb, "2023 Estate Shiraz | $42.00 | %s\n", fallbackURL)
	sb.WriteString("2024 Riesling | $35.00 | https://winery.com/product/riesling-24\n\n")
	sb.WriteString("If a price is not found, write \"Price N/A\".\n")
	sb.WriteString("Only output the list lines.")

	return sb.String()
}

func (s *wineSearchService) Describe(ctx context.Context, wineryName string, features []string) string {
	prompt := fmt.Sprintf(
		"Write a short, enticing 2-sentence description for %s in the Canberra District. Highlight these features: %s.",
		wineryName, strings.Join(features, ", "))

	text, err := s.client.Generate(ctx, prompt)
	metrics.RecordModelCall("describe", err == nil)
	if err != nil || strings.TrimSpace(text) == "" {
		return regionalFallbackDescription
	}
	return text
}
