package services

import (
	"context"
	"strings"

	"terroir/internal/genai"
	"terroir/internal/metrics"
	"terroir/internal/model"
	"terroir/internal/winery"
)

// searchToolName is the function the model may call to trigger a
// cross-winery search, from both the query interpreter and the
// sommelier chat.
const searchToolName = "find_wines_by_criteria"

// wineSearchTool declares the search function offered to the model.
var wineSearchTool = genai.FunctionDeclaration{
	Name:        searchToolName,
	Description: "Search for wines available for purchase across multiple wineries in the region based on variety and price.",
	Parameters: &genai.Schema{
		Type: "object",
		Properties: map[string]*genai.Schema{
			"variety": {
				Type:        "string",
				Description: "The grape variety to search for (e.g., 'Shiraz', 'Riesling', 'Pinot Noir').",
			},
			"maxPrice": {
				Type:        "number",
				Description: "The maximum price per bottle in AUD (optional).",
			},
			"district": {
				Type:        "string",
				Description: "The specific district to filter by (optional).",
			},
		},
		Required: []string{"variety"},
	},
}

// searchArgs is the decoded argument set of a find_wines_by_criteria
// call.
type searchArgs struct {
	Variety  string
	MaxPrice *float64
	District string
}

// decodeSearchArgs pulls the typed arguments out of a function call's
// argument map. Only variety is required.
func decodeSearchArgs(args map[string]any) (searchArgs, bool) {
	out := searchArgs{}

	v, ok := args["variety"].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return out, false
	}
	out.Variety = v

	if p, ok := args["maxPrice"].(float64); ok && p > 0 {
		out.MaxPrice = &p
	}
	if d, ok := args["district"].(string); ok {
		out.District = d
	}
	return out, true
}

// noiseWords are stripped before the keyword fallback looks for a
// variety label in the raw query.
var noiseWords = []string{"wines", "wine", "under", "below", "$", "aud"}

// QueryInterpreter turns a free-text query ("Shiraz under $40") into a
// structured cross-winery search. It first asks the model to extract
// the criteria via a tool call; if the model declines (or is
// unreachable), a local keyword heuristic over the dataset's variety
// labels takes over. A query neither path can interpret yields an
// empty result, which the UI renders as "could not interpret", not as
// a failure.
type QueryInterpreter struct {
	client     genai.Client
	dataset    *winery.Dataset
	aggregator *Aggregator
}

// NewQueryInterpreter constructs a QueryInterpreter.
func NewQueryInterpreter(client genai.Client, ds *winery.Dataset, aggregator *Aggregator) *QueryInterpreter {
	return &QueryInterpreter{client: client, dataset: ds, aggregator: aggregator}
}

// Interpret runs one query end to end.
func (q *QueryInterpreter) Interpret(ctx context.Context, query string) model.AggregatedSearchResult {
	empty := model.AggregatedSearchResult{
		SearchedWineries: []string{},
		Matches:          []model.AggregatedMatch{},
	}

	if strings.TrimSpace(query) == "" {
		return empty
	}

	prompt := "Extract wine search criteria from this user query and call " + searchToolName + ": \"" + query + "\""

	reply, err := q.client.GenerateWithTools(ctx, "", []genai.Content{genai.UserText(prompt)}, []genai.FunctionDeclaration{wineSearchTool})
	metrics.RecordModelCall("interpret", err == nil)

	if err == nil && reply.Kind == genai.ReplyToolCall && reply.Call.Name == searchToolName {
		if args, ok := decodeSearchArgs(reply.Call.Args); ok {
			return q.aggregator.Aggregate(ctx, args.Variety, args.MaxPrice, args.District)
		}
	}

	// Model gave no usable call; fall back to matching a known variety
	// label inside the cleaned query.
	if variety := q.keywordVariety(query); variety != "" {
		return q.aggregator.Aggregate(ctx, variety, nil, "")
	}

	return empty
}

// keywordVariety strips noise words from the query and returns the
// first dataset variety label found as a substring, or "".
func (q *QueryInterpreter) keywordVariety(query string) string {
	cleaned := strings.ToLower(query)
	for _, w := range noiseWords {
		cleaned = strings.ReplaceAll(cleaned, w, " ")
	}

	for _, label := range q.dataset.Varieties() {
		if strings.Contains(cleaned, strings.ToLower(label)) {
			return label
		}
	}
	return ""
}
