package domain

type SortMode string

const (
	SortDefault   SortMode = "default"
	SortPriceLow  SortMode = "price_low"
	SortPriceHigh SortMode = "price_high"
	SortRating    SortMode = "rating"
)

// SearchFilters is the normalized search request. Prices are major currency units;
// zero means unbounded.
type SearchFilters struct {
	City             string
	Keyword          string
	Dates            DateRange
	GuestCount       int
	Rooms            int
	HasWindow        bool
	HasBreakfast     bool
	ChildrenFriendly bool
	MinPrice         float64
	MaxPrice         float64
	Sort             SortMode
	Cursor           int
	Limit            int
}

// TierQuery is what a tier query builder needs from the filters.
// Prices here are minor units.
type TierQuery struct {
	City       string
	Keyword    string
	Dates      DateRange
	GuestCount int
	Rooms      int
	MinPrice   int64
	MaxPrice   int64
	Exclude    []int64
	Sort       SortMode
	Limit      int
}

// HotelCandidate is the common row shape returned by every search tier.
type HotelCandidate struct {
	ID               int64
	Name             string
	Address          string
	City             string
	CoverImage       string
	Tags             []string
	Score            float64
	ReviewCount      int
	SortOrder        int
	MinPrice         int64 // minor unit
	HasWindow        bool  // any qualifying room type has it
	HasBreakfast     bool
	ChildrenFriendly bool
}

type HotelItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	CoverImage  string   `json:"coverImage"`
	Tags        []string `json:"tags"`
	PriceDesc   string   `json:"priceDesc"`
	Score       float64  `json:"score"`
	ReviewCount int      `json:"reviewCount"`
	MinPrice    float64  `json:"minPrice"`
	IsFallback  bool     `json:"isFallback"`
}

// AIContextItem is the minimized projection handed to the recommendation feature.
type AIContextItem struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	MinPrice float64  `json:"minPrice"`
	Tags     []string `json:"tags"`
}

type SearchResult struct {
	ExactMatches    []HotelItem     `json:"exactMatches"`
	Recommendations []HotelItem     `json:"recommendations"`
	NextCursor      *int            `json:"nextCursor"`
	Total           int             `json:"total"`
	AIContext       []AIContextItem `json:"aiContext"`
}
