package crawl

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/rental-crawler/internal/entity"
)

const resultsPage = `<html><body>
<div class="result_room"><a href="/room/11">a</a><dl class="room_item"><dt><img src="/img/11.jpg"></dt></dl></div>
<div class="result_room"><a href="https://other.test/room/12">b</a><dl class="room_item"><dt></dt></dl></div>
</body></html>`

func TestExtractListingPartsResolvesLinks(t *testing.T) {
	base, err := url.Parse("https://rental.test/search?keyword=x")
	require.NoError(t, err)

	links, thumbnails, err := ExtractListingParts(base, resultsPage, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://rental.test/room/11", "https://other.test/room/12"}, links)
	assert.Equal(t, []string{"https://rental.test/img/11.jpg", ""}, thumbnails)
}

func TestExtractPairsSummariesInOrder(t *testing.T) {
	site := newFakeSite([][][]string{{{"1", "2", "3"}}})
	site.searchDone()
	extractor := NewListingExtractor(site.layout, zaptest.NewLogger(t))

	summaries, err := extractor.Extract(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, []entity.ListingSummary{
		{Link: linkFor("1"), ThumbnailURL: fakeBaseURL + "/img/1.jpg"},
		{Link: linkFor("2"), ThumbnailURL: fakeBaseURL + "/img/2.jpg"},
		{Link: linkFor("3"), ThumbnailURL: fakeBaseURL + "/img/3.jpg"},
	}, summaries)
}

func TestExtractDegradesToShorterSequenceOnMismatch(t *testing.T) {
	site := newFakeSite([][][]string{{{"1", "2"}}})
	site.extraCards = 3
	site.searchDone()
	extractor := NewListingExtractor(site.layout, zaptest.NewLogger(t))

	summaries, err := extractor.Extract(context.Background(), site)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, linkFor("2"), summaries[1].Link)
}

func TestExtractWithMoreLinksThanCards(t *testing.T) {
	html := `<html><body>
<div class="result_room"><a href="/room/1">a</a><dl class="room_item"><dt><img src="/1.jpg"></dt></dl></div>
<div class="result_room"><a href="/room/2">b</a></div>
</body></html>`
	base, _ := url.Parse(fakeBaseURL)
	links, thumbnails, err := ExtractListingParts(base, html, DefaultLayout())
	require.NoError(t, err)
	assert.Len(t, links, 2)
	assert.Len(t, thumbnails, 1)
}
