package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
)

var fixedColumns = []string{
	"No",
	"Thumbnail",
	"Title",
	"Address",
	"Building type",
	"Area",
	"Weekly rent",
	"Management fee",
	"Cleaning fee",
	"URL",
}

const (
	rateColumn   = "Occupancy rate"
	averageLabel = "Average occupancy"
)

// CSVExporter writes one rooms_data_<keyword>.csv per keyword under dir.
type CSVExporter struct {
	dir    string
	logger *zap.Logger
}

func NewCSVExporter(dir string, logger *zap.Logger) *CSVExporter {
	return &CSVExporter{dir: dir, logger: logger}
}

// Path is where the CSV of keyword is written.
func (e *CSVExporter) Path(keyword string) string {
	return filepath.Join(e.dir, fmt.Sprintf("rooms_data_%s.csv", SafeName(keyword)))
}

// Export writes the result's records. A result without records writes nothing.
func (e *CSVExporter) Export(ctx context.Context, result entity.KeywordResult) error {
	if len(result.Records) == 0 {
		e.logger.Info("no data, csv skipped", zap.String("keyword", result.Keyword))
		return nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := e.Path(result.Keyword)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output csv: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, result.Records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	e.logger.Info("csv written", zap.String("keyword", result.Keyword), zap.String("path", path), zap.Int("records", len(result.Records)))
	return file.Close()
}

// WriteCSV renders records as a table: fixed columns, one column per walked month in order
// of first appearance, the occupancy rate, and a trailing row with the average rate.
func WriteCSV(w io.Writer, records []entity.ListingRecord) error {
	months := monthColumns(records)

	header := append([]string{}, fixedColumns...)
	header = append(header, months...)
	header = append(header, rateColumn)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	var sum float64
	for i, rec := range records {
		row := []string{
			strconv.Itoa(i + 1),
			rec.ThumbnailURL,
			rec.Title,
			rec.Address,
			rec.BuildingType,
			rec.Area,
			rec.WeeklyRentPrice,
			rec.ManagementPrice,
			rec.CleaningPrice,
			rec.Link,
		}
		byLabel := make(map[string]string, len(rec.OccupancyByMonth))
		for _, m := range rec.OccupancyByMonth {
			byLabel[m.Label()] = m.Ratio()
		}
		for _, label := range months {
			row = append(row, byLabel[label])
		}
		row = append(row, FormatRate(rec.OccupancyRate))
		sum += rec.OccupancyRate

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		average := make([]string, len(header))
		average[len(header)-2] = averageLabel
		average[len(header)-1] = FormatRate(sum / float64(len(records)))
		if err := cw.Write(average); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatRate renders a 0..1 rate as a percentage with two decimals, e.g. "16.67%".
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate*100, 'f', 2, 64) + "%"
}

func monthColumns(records []entity.ListingRecord) []string {
	var labels []string
	seen := map[string]bool{}
	for _, rec := range records {
		for _, m := range rec.OccupancyByMonth {
			if label := m.Label(); !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// SafeName makes a keyword usable as a file or directory name.
func SafeName(keyword string) string {
	name := strings.TrimSpace(keyword)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
