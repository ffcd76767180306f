package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	JobsInQueue         prometheus.Gauge

	initOnce sync.Once
)

// Init registers the HTTP and queue collectors on the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		JobsInQueue = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_jobs_in_queue",
				Help: "Current number of keywords waiting in the crawl queue.",
			},
		)
	})
}

// Crawl holds the collectors of the crawl engine. A nil *Crawl records nothing.
type Crawl struct {
	ListingsTotal   *prometheus.CounterVec
	PagesTotal      prometheus.Counter
	SectionsTotal   prometheus.Counter
	MonthsWalked    prometheus.Histogram
	KeywordDuration *prometheus.HistogramVec
}

// NewCrawl registers the crawl collectors on reg.
func NewCrawl(reg prometheus.Registerer) *Crawl {
	factory := promauto.With(reg)
	return &Crawl{
		ListingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_listings_total",
			Help: "Listings processed, by outcome.",
		}, []string{"status", "kind"}), // status: success, failure
		PagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Results pages visited.",
		}),
		SectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_sections_total",
			Help: "Result sections entered.",
		}),
		MonthsWalked: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_months_walked",
			Help:    "Calendar months sampled per listing.",
			Buckets: []float64{0, 1, 2, 3, 6, 12},
		}),
		KeywordDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_keyword_duration_seconds",
			Help:    "Duration of one keyword run.",
			Buckets: []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"outcome"}),
	}
}

func (m *Crawl) ListingSucceeded(months int) {
	if m == nil {
		return
	}
	m.ListingsTotal.WithLabelValues("success", "").Inc()
	m.MonthsWalked.Observe(float64(months))
}

func (m *Crawl) ListingFailed(kind string) {
	if m == nil {
		return
	}
	m.ListingsTotal.WithLabelValues("failure", kind).Inc()
}

func (m *Crawl) PageVisited() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

func (m *Crawl) SectionEntered() {
	if m == nil {
		return
	}
	m.SectionsTotal.Inc()
}

func (m *Crawl) KeywordFinished(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.KeywordDuration.WithLabelValues(outcome).Observe(seconds)
}
