package entity

// ListingSummary is one result card read from a results page.
type ListingSummary struct {
	Link         string
	ThumbnailURL string // empty when the card has no thumbnail
}

// ListingFields are the static detail fields of a listing, all required.
type ListingFields struct {
	Title           string `json:"title"`
	Address         string `json:"address"`
	Area            string `json:"area"`
	BuildingType    string `json:"building_type"`
	WeeklyRentPrice string `json:"weekly_rent_price"`
	ManagementPrice string `json:"management_price"`
	CleaningPrice   string `json:"cleaning_price"`
}

// ListingRecord is the normalized output row for one successfully scraped listing.
// OccupancyRate always equals OccupancyRate(OccupancyByMonth).
type ListingRecord struct {
	ListingFields
	ThumbnailURL     string           `json:"thumbnail_url,omitempty"`
	Link             string           `json:"link"`
	OccupancyByMonth []MonthOccupancy `json:"occupancy_by_month"`
	OccupancyRate    float64          `json:"occupancy_rate"`
}

// NewListingRecord assembles a record and derives its occupancy rate from the walked months.
func NewListingRecord(summary ListingSummary, fields ListingFields, months []MonthOccupancy) ListingRecord {
	walked := make([]MonthOccupancy, len(months))
	copy(walked, months)
	return ListingRecord{
		ListingFields:    fields,
		ThumbnailURL:     summary.ThumbnailURL,
		Link:             summary.Link,
		OccupancyByMonth: walked,
		OccupancyRate:    OccupancyRate(walked),
	}
}
