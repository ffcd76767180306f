package crawl

import (
	"errors"
	"fmt"
	"strings"
)

// Field names one required detail field of a listing.
type Field string

const (
	FieldTitle           Field = "title"
	FieldAddress         Field = "address"
	FieldArea            Field = "area"
	FieldBuildingType    Field = "building_type"
	FieldWeeklyRentPrice Field = "weekly_rent_price"
	FieldManagementPrice Field = "management_price"
	FieldCleaningPrice   Field = "cleaning_price"
)

// DetailFields lists every required field in extraction order.
var DetailFields = []Field{
	FieldTitle,
	FieldAddress,
	FieldArea,
	FieldBuildingType,
	FieldWeeklyRentPrice,
	FieldManagementPrice,
	FieldCleaningPrice,
}

// ControlOffsets locates page-number controls inside the pagination bar.
// They were observed on one site version and are configuration, not constants.
type ControlOffsets struct {
	// FirstSectionStart is the control that leads to page 2 of the first section.
	FirstSectionStart int
	// LaterSectionStart is the control that leads to page 2 of every later section.
	LaterSectionStart int
	// RunStart is the control that leads to page 3; page p+1 is reached through RunStart+p-2.
	RunStart int
}

// Layout maps every element the crawler touches to a CSS selector.
type Layout struct {
	SearchInput  string
	SearchButton string
	ResultsReady string

	ListingLinks  string
	ListingCards  string
	CardThumbnail string

	// PageControl is a format with one %d verb for the control position.
	PageControl string
	NextSection string
	Offsets     ControlOffsets

	DetailContainer string
	Fields          map[Field]string

	CalendarOpen     string
	CalendarDisabled string
	CalendarEnabled  string
	NextMonth        string
}

// DefaultLayout is the structure of the short-term rental site the crawler was built for.
func DefaultLayout() Layout {
	return Layout{
		SearchInput:  "#txt_search_keyword",
		SearchButton: "#btn_search",
		ResultsReady: ".room_item",

		ListingLinks:  ".result_room > a",
		ListingCards:  ".room_item",
		CardThumbnail: "dt > img",

		PageControl: ".pagination > a:nth-child(%d)",
		NextSection: ".pagination > .next.is_active",
		Offsets: ControlOffsets{
			FirstSectionStart: 2,
			LaterSectionStart: 3,
			RunStart:          4,
		},

		DetailContainer: ".room_detail",
		Fields: map[Field]string{
			FieldTitle:           ".room_detail > div:nth-child(1) > div.title > strong",
			FieldAddress:         ".room_detail > div:nth-child(1) > p",
			FieldArea:            ".place_detail > li:nth-child(1) > strong",
			FieldBuildingType:    ".place_detail > li:nth-child(2) > strong",
			FieldWeeklyRentPrice: ".tbl_style > tbody > tr > td:nth-child(1)",
			FieldManagementPrice: ".tbl_style > tbody > tr > td:nth-child(2)",
			FieldCleaningPrice:   ".tbl_style > tbody > tr > td:nth-child(3)",
		},

		CalendarOpen:     "#btn_check_schdule",
		CalendarDisabled: ".calendar_table > thead > tr > .disable",
		CalendarEnabled:  ".calendar_table > thead > tr > .enable",
		NextMonth:        "#btn_next_month > img",
	}
}

// Validate fails on any missing locator or inconsistent control offset, so layout
// drift is reported before a browser is ever touched.
func (l Layout) Validate() error {
	var errs []error
	required := map[string]string{
		"search input":      l.SearchInput,
		"search button":     l.SearchButton,
		"results marker":    l.ResultsReady,
		"listing links":     l.ListingLinks,
		"listing cards":     l.ListingCards,
		"card thumbnail":    l.CardThumbnail,
		"next section":      l.NextSection,
		"detail container":  l.DetailContainer,
		"calendar open":     l.CalendarOpen,
		"calendar disabled": l.CalendarDisabled,
		"calendar enabled":  l.CalendarEnabled,
		"next month":        l.NextMonth,
	}
	for name, sel := range required {
		if strings.TrimSpace(sel) == "" {
			errs = append(errs, fmt.Errorf("layout: %s locator is empty", name))
		}
	}
	for _, f := range DetailFields {
		if strings.TrimSpace(l.Fields[f]) == "" {
			errs = append(errs, fmt.Errorf("layout: detail field %q has no locator", f))
		}
	}
	if strings.Count(l.PageControl, "%d") != 1 {
		errs = append(errs, fmt.Errorf("layout: page control %q must contain exactly one %%d", l.PageControl))
	}
	o := l.Offsets
	if o.FirstSectionStart < 1 || o.LaterSectionStart < 1 || o.RunStart < 1 {
		errs = append(errs, fmt.Errorf("layout: control offsets must be positive, got %+v", o))
	}
	return errors.Join(errs...)
}

func (l Layout) pageControl(position int) string {
	return fmt.Sprintf(l.PageControl, position)
}

// controlFor returns the control position that leads from page to page+1 in section.
func (l Layout) controlFor(section, page int) int {
	if page == 1 {
		if section == 1 {
			return l.Offsets.FirstSectionStart
		}
		return l.Offsets.LaterSectionStart
	}
	return l.Offsets.RunStart + page - 2
}
