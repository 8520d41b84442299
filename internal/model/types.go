package model

// District is one of the fixed Canberra District sub-regions used by
// the winery dataset and the map UI.
type District string

const (
	DistrictMurrumbateman District = "Murrumbateman"
	DistrictLakeGeorge    District = "Lake George"
	DistrictMajura        District = "Majura Valley"
	DistrictBungendore    District = "Bungendore"
	DistrictHall          District = "Hall"
	DistrictGundaroo      District = "Gundaroo"
	DistrictWamboin       District = "Wamboin"
	DistrictCollector     District = "Collector"
)

// Coordinates places a winery on the schematic map as percentages of
// the map's width and height (0-100).
type Coordinates struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Winery is one entry of the static dataset. The dataset is loaded once
// at startup and never mutated; IDs are unique across the dataset.
type Winery struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	District    District    `json:"district" yaml:"district"`
	Description string      `json:"description" yaml:"description"`
	Varieties   []string    `json:"varieties" yaml:"varieties"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Address     string      `json:"address" yaml:"address"`
	Phone       string      `json:"phone,omitempty" yaml:"phone"`
	Website     string      `json:"website,omitempty" yaml:"website"`
	// ShopURL is the "golden source" purchase page for the winery. When
	// present it is both embedded in search prompts and used as the
	// fallback link for every listing whose URL cannot be verified.
	ShopURL string `json:"shopUrl,omitempty" yaml:"shopUrl"`
	Image   string `json:"image" yaml:"image"`
}

// WineListing is one wine offered for sale, as parsed out of model
// output. Price is kept as free-form text ("$42.00", "Price N/A", "")
// because the source is natural language, not structured data.
type WineListing struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Link  string `json:"link"`
}

// SourceCitation is provenance metadata the model attaches to a
// search-grounded response.
type SourceCitation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// WineSearchResponse is the result of one per-winery wine search:
// parsed listings in model output order plus any grounding citations.
type WineSearchResponse struct {
	Wines   []WineListing    `json:"wines"`
	Sources []SourceCitation `json:"sources"`
}

// AggregatedMatch is the flattened row produced by a cross-winery
// search, tagged with the winery it came from.
type AggregatedMatch struct {
	WineryID string `json:"wineryId"`
	Winery   string `json:"winery"`
	Wine     string `json:"wine"`
	Price    string `json:"price"`
	Link     string `json:"link"`
}

// AggregatedSearchResult reports which wineries were actually queried
// alongside the merged matches, so the UI can show search coverage.
type AggregatedSearchResult struct {
	SearchedWineries []string          `json:"searchedWineries"`
	Matches          []AggregatedMatch `json:"matches"`
}

// ChatMessage is one turn of a sommelier conversation. History lives
// only for the lifetime of the session; nothing is persisted.
type ChatMessage struct {
	Role      string `json:"role"` // "user" or "model"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
