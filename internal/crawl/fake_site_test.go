package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/rental-crawler/internal/repository"
)

const fakeBaseURL = "https://rental.test"

type fakeMonth struct {
	disabled int
	enabled  int
}

type fakeListing struct {
	title            string
	missing          Field // field left out of the detail view
	noContainer      bool
	noCalendarButton bool
	months           []fakeMonth
	// nextMonthMissingAt hides the next-month control while this month index is shown; -1 never.
	nextMonthMissingAt int
	panicOnScrape      bool
}

func newFakeListing(title string) *fakeListing {
	return &fakeListing{
		title:              title,
		months:             []fakeMonth{{5, 25}, {5, 25}, {5, 25}},
		nextMonthMissingAt: -1,
	}
}

// fakeSite is an in-memory results site with sections of pages of listing ids.
type fakeSite struct {
	layout   Layout
	sections [][][]string
	listings map[string]*fakeListing

	failSearch     map[string]bool
	extraCards     int
	missingControl map[PageRef]bool

	onLanding bool
	typed     string
	searched  bool
	section   int
	page      int

	landed      []PageRef
	openTabs    int
	maxOpenTabs int
	closedTabs  int
}

func newFakeSite(sections [][][]string) *fakeSite {
	site := &fakeSite{
		layout:         DefaultLayout(),
		sections:       sections,
		listings:       map[string]*fakeListing{},
		failSearch:     map[string]bool{},
		missingControl: map[PageRef]bool{},
	}
	for _, pages := range sections {
		for _, ids := range pages {
			for _, id := range ids {
				site.listings[linkFor(id)] = newFakeListing("Room " + id)
			}
		}
	}
	return site
}

func linkFor(id string) string { return fakeBaseURL + "/room/" + id }

// searchDone puts the site directly on section 1 page 1 for walker tests.
func (s *fakeSite) searchDone() {
	s.onLanding, s.searched, s.section, s.page = false, true, 0, 0
	s.landed = append(s.landed, PageRef{Section: 1, Page: 1})
}

func (s *fakeSite) current() PageRef { return PageRef{Section: s.section + 1, Page: s.page + 1} }

// target resolves a selector to the page it would lead to, if that control exists.
func (s *fakeSite) target(selector string) (PageRef, bool) {
	if !s.searched {
		return PageRef{}, false
	}
	if selector == s.layout.NextSection {
		if s.section+1 >= len(s.sections) {
			return PageRef{}, false
		}
		return PageRef{Section: s.section + 2, Page: 1}, true
	}
	var position int
	if _, err := fmt.Sscanf(selector, s.layout.PageControl, &position); err != nil {
		return PageRef{}, false
	}
	cur := s.current()
	if s.missingControl[cur] {
		return PageRef{}, false
	}
	if position != s.layout.controlFor(cur.Section, cur.Page) {
		return PageRef{}, false
	}
	if cur.Page >= len(s.sections[s.section]) {
		return PageRef{}, false
	}
	return PageRef{Section: cur.Section, Page: cur.Page + 1}, true
}

func (s *fakeSite) Navigate(ctx context.Context, url string) error {
	if url != fakeBaseURL {
		return fmt.Errorf("unexpected url %s", url)
	}
	s.onLanding, s.searched, s.typed = true, false, ""
	return nil
}

func (s *fakeSite) has(selector string) bool {
	if _, ok := s.target(selector); ok {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.render()))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

func (s *fakeSite) WaitPresent(ctx context.Context, selector string) error {
	if !s.has(selector) {
		return repository.ErrWaitTimeout
	}
	return nil
}

func (s *fakeSite) WaitClickable(ctx context.Context, selector string) error {
	return s.WaitPresent(ctx, selector)
}

func (s *fakeSite) WaitDocumentReady(ctx context.Context) error { return nil }

func (s *fakeSite) Click(ctx context.Context, selector string) error {
	if s.onLanding && selector == s.layout.SearchButton {
		if s.failSearch[s.typed] {
			return nil
		}
		s.searchDone()
		return nil
	}
	to, ok := s.target(selector)
	if !ok {
		return repository.ErrElementNotFound
	}
	s.section, s.page = to.Section-1, to.Page-1
	s.landed = append(s.landed, to)
	return nil
}

func (s *fakeSite) MoveAndClick(ctx context.Context, selector string) error {
	return s.Click(ctx, selector)
}

func (s *fakeSite) ScrollIntoView(ctx context.Context, selector string) error {
	if !s.has(selector) {
		return repository.ErrElementNotFound
	}
	return nil
}

func (s *fakeSite) Type(ctx context.Context, selector, text string) error {
	if !s.onLanding || selector != s.layout.SearchInput {
		return repository.ErrElementNotFound
	}
	s.typed = text
	return nil
}

func (s *fakeSite) HTML(ctx context.Context) (string, error) { return s.render(), nil }

func (s *fakeSite) Location(ctx context.Context) (string, error) {
	if s.onLanding {
		return fakeBaseURL, nil
	}
	return fakeBaseURL + "/search?keyword=" + s.typed, nil
}

func (s *fakeSite) render() string {
	if s.onLanding {
		return `<html><body><input id="txt_search_keyword"><button id="btn_search">search</button></body></html>`
	}
	if !s.searched {
		return `<html><body></body></html>`
	}
	var b strings.Builder
	b.WriteString(`<html><body><div class="list">`)
	for _, id := range s.sections[s.section][s.page] {
		fmt.Fprintf(&b, `<div class="result_room"><a href="/room/%s">%s</a><dl class="room_item"><dt><img src="/img/%s.jpg"></dt><dd>card</dd></dl></div>`, id, id, id)
	}
	for i := 0; i < s.extraCards; i++ {
		b.WriteString(`<dl class="room_item"><dt></dt><dd>ad</dd></dl>`)
	}
	if len(s.sections[s.section][s.page]) == 0 && s.extraCards == 0 {
		b.WriteString(`<dl class="room_item"><dd>empty</dd></dl>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func (s *fakeSite) OpenTab(ctx context.Context, url string) (repository.Tab, error) {
	s.openTabs++
	s.maxOpenTabs = max(s.maxOpenTabs, s.openTabs)
	listing, ok := s.listings[url]
	if !ok {
		listing = &fakeListing{noContainer: true, nextMonthMissingAt: -1}
	}
	return &fakeTab{site: s, listing: listing}, nil
}

type fakeTab struct {
	site     *fakeSite
	listing  *fakeListing
	calendar bool
	month    int
	closed   bool
}

func (t *fakeTab) Navigate(ctx context.Context, url string) error { return nil }

func (t *fakeTab) has(selector string) bool {
	if selector == t.site.layout.NextMonth && t.month == t.listing.nextMonthMissingAt {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(t.render()))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

func (t *fakeTab) WaitPresent(ctx context.Context, selector string) error {
	if !t.has(selector) {
		return repository.ErrWaitTimeout
	}
	return nil
}

func (t *fakeTab) WaitClickable(ctx context.Context, selector string) error {
	return t.WaitPresent(ctx, selector)
}

func (t *fakeTab) WaitDocumentReady(ctx context.Context) error { return nil }

func (t *fakeTab) Click(ctx context.Context, selector string) error {
	if selector == t.site.layout.CalendarOpen && t.has(selector) {
		t.calendar = true
		return nil
	}
	return repository.ErrElementNotFound
}

func (t *fakeTab) MoveAndClick(ctx context.Context, selector string) error {
	if selector == t.site.layout.NextMonth && t.has(selector) {
		t.month++
		return nil
	}
	return repository.ErrElementNotFound
}

func (t *fakeTab) ScrollIntoView(ctx context.Context, selector string) error {
	if !t.has(selector) {
		return repository.ErrElementNotFound
	}
	return nil
}

func (t *fakeTab) Type(ctx context.Context, selector, text string) error {
	return repository.ErrElementNotFound
}

func (t *fakeTab) HTML(ctx context.Context) (string, error) {
	if t.listing.panicOnScrape {
		panic("renderer crashed")
	}
	return t.render(), nil
}

func (t *fakeTab) Location(ctx context.Context) (string, error) { return fakeBaseURL + "/room", nil }

func (t *fakeTab) Close() error {
	if t.closed {
		return errors.New("tab already closed")
	}
	t.closed = true
	t.site.openTabs--
	t.site.closedTabs++
	return nil
}

func (t *fakeTab) render() string {
	l := t.listing
	if l.noContainer {
		return `<html><body><p>not found</p></body></html>`
	}
	field := func(f Field, html string) string {
		if l.missing == f {
			return ""
		}
		return html
	}
	var b strings.Builder
	b.WriteString(`<html><body><div class="wrap"><section><div><div class="room_detail">`)
	b.WriteString(`<div>`)
	b.WriteString(field(FieldTitle, `<div class="title"><strong>`+l.title+`</strong></div>`))
	b.WriteString(field(FieldAddress, `<p>Seoul Gangnam-gu 1</p>`))
	b.WriteString(`</div><ul class="place_detail">`)
	b.WriteString(field(FieldArea, `<li><strong>33m2</strong></li>`))
	b.WriteString(field(FieldBuildingType, `<li><strong>Officetel</strong></li>`))
	b.WriteString(`</ul><table class="tbl_style"><tbody><tr>`)
	b.WriteString(field(FieldWeeklyRentPrice, `<td>300,000</td>`))
	b.WriteString(field(FieldManagementPrice, `<td>50,000</td>`))
	b.WriteString(field(FieldCleaningPrice, `<td>40,000</td>`))
	b.WriteString(`</tr></tbody></table>`)
	if !l.noCalendarButton {
		b.WriteString(`<button id="btn_check_schdule">check</button>`)
	}
	if t.calendar && t.month < len(l.months) {
		m := l.months[t.month]
		b.WriteString(`<table class="calendar_table"><thead><tr>`)
		b.WriteString(strings.Repeat(`<td class="disable">x</td>`, m.disabled))
		b.WriteString(strings.Repeat(`<td class="enable">o</td>`, m.enabled))
		b.WriteString(`</tr></thead></table>`)
		b.WriteString(`<a id="btn_next_month"><img src="/next.png"></a>`)
	}
	b.WriteString(`</div></div></section></div></body></html>`)
	return b.String()
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now(ctx context.Context) time.Time { return c.now }

func clockAt(month time.Month) fixedClock {
	return fixedClock{now: time.Date(2026, month, 15, 12, 0, 0, 0, time.UTC)}
}

type countingClock struct {
	now   time.Time
	calls int
}

func (c *countingClock) Now(ctx context.Context) time.Time {
	c.calls++
	return c.now
}
