package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/rental-crawler/internal/entity"
)

func record(link, thumbnail string, months ...entity.MonthOccupancy) entity.ListingRecord {
	return entity.NewListingRecord(
		entity.ListingSummary{Link: link, ThumbnailURL: thumbnail},
		entity.ListingFields{Title: "Room", Address: "Seoul", Area: "20m2", BuildingType: "Villa", WeeklyRentPrice: "200,000", ManagementPrice: "30,000", CleaningPrice: "20,000"},
		months,
	)
}

func TestWriteCSV(t *testing.T) {
	records := []entity.ListingRecord{
		record("https://rental.test/room/1", "t1.jpg",
			entity.MonthOccupancy{Month: time.December, Disabled: 5, Total: 31},
			entity.MonthOccupancy{Month: time.January, Disabled: 0, Total: 31},
		),
		record("https://rental.test/room/2", "",
			entity.MonthOccupancy{Month: time.December, Disabled: 31, Total: 31},
		),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	expectedHeader := []string{"No", "Thumbnail", "Title", "Address", "Building type", "Area", "Weekly rent", "Management fee", "Cleaning fee", "URL", "December", "January", "Occupancy rate"}
	if diff := cmp.Diff(expectedHeader, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"1", "t1.jpg", "Room", "Seoul", "Villa", "20m2", "200,000", "30,000", "20,000", "https://rental.test/room/1", "5/31", "0/31", "8.06%"}, rows[1])
	assert.Equal(t, "", rows[2][11])
	assert.Equal(t, "100.00%", rows[2][12])

	average := rows[3]
	assert.Equal(t, averageLabel, average[11])
	assert.Equal(t, "54.03%", average[12])
}

func TestCSVExporterSkipsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir, zaptest.NewLogger(t))

	require.NoError(t, exporter.Export(context.Background(), entity.KeywordResult{Keyword: "empty"}))
	_, err := os.Stat(exporter.Path("empty"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	result := entity.KeywordResult{Keyword: "mapo/gu", Records: []entity.ListingRecord{record("https://rental.test/room/1", "")}}
	require.NoError(t, exporter.Export(context.Background(), result))
	assert.Equal(t, filepath.Join(dir, "rooms_data_mapo_gu.csv"), exporter.Path("mapo/gu"))
	content, err := os.ReadFile(exporter.Path("mapo/gu"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "https://rental.test/room/1")
}

func TestThumbnailDownloader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := NewThumbnailDownloader(dir, zaptest.NewLogger(t))
	result := entity.KeywordResult{Keyword: "mapo", Records: []entity.ListingRecord{
		record("a", server.URL+"/a.jpg"),
		record("b", ""),
		record("c", server.URL+"/missing.jpg"),
	}}

	require.NoError(t, downloader.Export(context.Background(), result))

	content, err := os.ReadFile(filepath.Join(dir, "mapo", "img_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(content))
	assert.NoFileExists(t, filepath.Join(dir, "mapo", "img_2.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "mapo", "img_3.jpg"))
}

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) Export(ctx context.Context, result entity.KeywordResult) error {
	s.calls++
	return s.err
}

func TestMultiSinkReachesEverySink(t *testing.T) {
	failing := &stubSink{err: errors.New("db down")}
	ok := &stubSink{}
	err := MultiSink{failing, ok}.Export(context.Background(), entity.KeywordResult{Keyword: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, 1, ok.calls)
}

type memoryStore struct {
	runs     []entity.KeywordResult
	failures []entity.Failure
}

func (m *memoryStore) SaveRun(ctx context.Context, result entity.KeywordResult) error {
	m.runs = append(m.runs, result)
	return nil
}

func (m *memoryStore) FindByKeyword(ctx context.Context, keyword string) ([]entity.ListingRecord, error) {
	return nil, nil
}

func (m *memoryStore) LastRun(ctx context.Context, keyword string) (*entity.CrawlStatus, error) {
	return nil, nil
}

func (m *memoryStore) SaveAll(ctx context.Context, failures []entity.Failure) error {
	m.failures = append(m.failures, failures...)
	return nil
}

func TestStoreSinkSavesRunAndFailures(t *testing.T) {
	store := &memoryStore{}
	failureRepo := failureRepoFunc(store.SaveAll)
	sink := NewStoreSink(store, failureRepo)

	result := entity.KeywordResult{Keyword: "x", Failures: []entity.Failure{{Kind: entity.FailureExtraction, Keyword: "x"}}}
	require.NoError(t, sink.Export(context.Background(), result))
	assert.Len(t, store.runs, 1)
	assert.Len(t, store.failures, 1)
}

type failureRepoFunc func(ctx context.Context, failures []entity.Failure) error

func (f failureRepoFunc) SaveAll(ctx context.Context, failures []entity.Failure) error {
	return f(ctx, failures)
}

func (f failureRepoFunc) FindByKeyword(ctx context.Context, keyword string, limit int) ([]entity.Failure, error) {
	return nil, nil
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, []entity.KeywordResult{
		{Keyword: "mapo", Records: []entity.ListingRecord{{OccupancyRate: 0.5}}, Pages: 3, Sections: 1},
		{Keyword: "jongno", StopReason: "session wait_results"},
	})
	out := buf.String()
	assert.Contains(t, out, "mapo")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "session wait_results")
	assert.True(t, strings.Contains(strings.ToUpper(out), "TOTAL"))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "a_b", SafeName("a/b"))
	assert.Equal(t, "_", SafeName(" .. "))
	assert.Equal(t, "Mapo-gu", SafeName(" Mapo-gu "))
}
