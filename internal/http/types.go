package http

import "terroir/internal/model"

// ErrorResponse is the error envelope shared by all endpoints.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// WineryListResponse wraps the filtered dataset.
type WineryListResponse struct {
	Success  bool           `json:"success"`
	Wineries []model.Winery `json:"wineries"`
}

// WineryResponse wraps a single winery.
type WineryResponse struct {
	Success bool         `json:"success"`
	Winery  model.Winery `json:"winery"`
}

// WineSearchResponse wraps the per-winery wines panel data.
type WineSearchResponse struct {
	Success bool                     `json:"success"`
	Data    model.WineSearchResponse `json:"data"`
}

// DescribeRequest lists the features to highlight in a generated
// winery description.
type DescribeRequest struct {
	Features []string `json:"features"`
}

// DescribeResponse wraps a generated description.
type DescribeResponse struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
}

// AggregateSearchRequest is the structured cross-winery search input.
type AggregateSearchRequest struct {
	Variety  string   `json:"variety"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	District string   `json:"district,omitempty"`
}

// QueryRequest is a free-text search query for the interpreter.
type QueryRequest struct {
	Query string `json:"query"`
}

// AggregateSearchResponse wraps the merged search result.
type AggregateSearchResponse struct {
	Success bool                         `json:"success"`
	Data    model.AggregatedSearchResult `json:"data"`
}

// ChatCreateResponse returns the id of a freshly created session.
type ChatCreateResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

// ChatMessageRequest is one user turn.
type ChatMessageRequest struct {
	Text string `json:"text"`
}

// ChatMessageResponse carries the model's reply plus the transcript so
// far.
type ChatMessageResponse struct {
	Success    bool                `json:"success"`
	Reply      string              `json:"reply"`
	Transcript []model.ChatMessage `json:"transcript"`
}

// ListResponse wraps simple string lists (varieties, districts).
type ListResponse struct {
	Success bool     `json:"success"`
	Values  []string `json:"values"`
}
