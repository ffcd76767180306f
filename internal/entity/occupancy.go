package entity

import (
	"fmt"
	"time"
)

// MonthOccupancy is the calendar sample for one walked month.
type MonthOccupancy struct {
	Month    time.Month `json:"month"`
	Disabled int        `json:"disabled"`
	Total    int        `json:"total"`
}

// Label is the column name used for this month, e.g. "November".
func (m MonthOccupancy) Label() string {
	return m.Month.String()
}

// Ratio renders the "disabled/total" cell value.
func (m MonthOccupancy) Ratio() string {
	return fmt.Sprintf("%d/%d", m.Disabled, m.Total)
}

// MonthAfter returns the calendar month offset months after start, wrapping past December.
func MonthAfter(start time.Month, offset int) time.Month {
	return time.Month((int(start)+offset-1)%12 + 1)
}

// OccupancyRate is Σdisabled/Σtotal over the walked months, or 0 when nothing was counted.
func OccupancyRate(months []MonthOccupancy) float64 {
	var disabled, total int
	for _, m := range months {
		disabled += m.Disabled
		total += m.Total
	}
	if total <= 0 {
		return 0
	}
	return float64(disabled) / float64(total)
}
