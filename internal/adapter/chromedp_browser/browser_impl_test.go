package chromedp_browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/repository"
)

const roomPage = `<html><body>
<div class="room_detail"><div class="title"><strong>Sunny room</strong></div></div>
<button id="btn_next_month" onclick="document.getElementById('shown').textContent='December'">next</button>
<span id="shown">November</span>
<div id="calendar"></div>
<script>
setTimeout(function() {
	document.getElementById('calendar').innerHTML = '<table class="calendar_table"><thead><tr><td class="enable">1</td></tr></thead></table>';
}, 300);
</script>
</body></html>`

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found")
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(roomPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestBrowser(t *testing.T) *Browser {
	t.Helper()
	requireChrome(t)
	b, err := New(context.Background(), Options{Headless: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestOpenTabStaysResponsiveAfterNavigation(t *testing.T) {
	b := newTestBrowser(t)
	site := newTestSite(t)

	tab, err := b.OpenTab(callCtx(t), site.URL+"/room/1")
	require.NoError(t, err)

	// Each call below runs after the navigating call has returned and released its ctx.
	require.NoError(t, tab.WaitPresent(callCtx(t), ".room_detail"))
	require.NoError(t, tab.WaitPresent(callCtx(t), ".calendar_table .enable"))
	require.NoError(t, tab.WaitDocumentReady(callCtx(t)))

	html, err := tab.HTML(callCtx(t))
	require.NoError(t, err)
	assert.Contains(t, html, "Sunny room")
	assert.Contains(t, html, `class="enable"`)

	location, err := tab.Location(callCtx(t))
	require.NoError(t, err)
	assert.Equal(t, site.URL+"/room/1", location)

	require.NoError(t, tab.Close())
	assert.Error(t, tab.Close())
}

func TestResultsPageSurvivesManyTabs(t *testing.T) {
	b := newTestBrowser(t)
	site := newTestSite(t)

	require.NoError(t, b.Navigate(callCtx(t), site.URL+"/search"))
	for i := 0; i < 3; i++ {
		tab, err := b.OpenTab(callCtx(t), site.URL+"/room/1")
		require.NoError(t, err)
		require.NoError(t, tab.WaitPresent(callCtx(t), ".room_detail"))
		require.NoError(t, tab.Close())
	}

	require.NoError(t, b.WaitPresent(callCtx(t), ".room_detail"))
	location, err := b.Location(callCtx(t))
	require.NoError(t, err)
	assert.Equal(t, site.URL+"/search", location)
}

func TestMoveAndClickDispatchesMouseEvents(t *testing.T) {
	b := newTestBrowser(t)
	site := newTestSite(t)

	tab, err := b.OpenTab(callCtx(t), site.URL+"/room/1")
	require.NoError(t, err)
	defer tab.Close()

	require.NoError(t, tab.WaitClickable(callCtx(t), "#btn_next_month"))
	require.NoError(t, tab.ScrollIntoView(callCtx(t), "#btn_next_month"))
	require.NoError(t, tab.MoveAndClick(callCtx(t), "#btn_next_month"))

	assert.Eventually(t, func() bool {
		html, err := tab.HTML(callCtx(t))
		return err == nil && strings.Contains(html, ">December<")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestMissingElementsMapToRepositoryErrors(t *testing.T) {
	b := newTestBrowser(t)
	site := newTestSite(t)

	tab, err := b.OpenTab(callCtx(t), site.URL+"/room/1")
	require.NoError(t, err)
	defer tab.Close()

	short, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = tab.WaitPresent(short, "#btn_check_schdule")
	assert.ErrorIs(t, err, repository.ErrWaitTimeout)

	assert.ErrorIs(t, tab.Click(callCtx(t), "#btn_check_schdule"), repository.ErrElementNotFound)
	assert.ErrorIs(t, tab.MoveAndClick(callCtx(t), "#btn_check_schdule"), repository.ErrElementNotFound)

	// A timed-out call leaves the tab usable.
	html, err := tab.HTML(callCtx(t))
	require.NoError(t, err)
	assert.Contains(t, html, "Sunny room")
}
