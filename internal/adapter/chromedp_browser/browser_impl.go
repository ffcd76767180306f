package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/repository"
)

// page runs actions against one browser target. The caller's ctx bounds every call;
// the chromedp context it derives from is never cancelled here.
type page struct {
	ctx context.Context
}

func (p *page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repository.ErrWaitTimeout, err)
	}
	return err
}

// node returns the first element matching selector without waiting for it.
func (p *page) node(ctx context.Context, selector string) (*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return nodes[0], nil
}

func (p *page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *page) WaitPresent(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (p *page) WaitClickable(ctx context.Context, selector string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.WaitEnabled(selector, chromedp.ByQuery),
	)
}

func (p *page) WaitDocumentReady(ctx context.Context) error {
	var ready bool
	return p.run(ctx, chromedp.Poll(`document.readyState === "complete"`, &ready,
		chromedp.WithPollingInterval(100*time.Millisecond),
	))
}

func (p *page) Click(ctx context.Context, selector string) error {
	if _, err := p.node(ctx, selector); err != nil {
		return err
	}
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// MoveAndClick dispatches real mouse events at the element's center, for controls
// that ignore synthetic clicks.
func (p *page) MoveAndClick(ctx context.Context, selector string) error {
	n, err := p.node(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.MouseClickNode(n))
}

func (p *page) ScrollIntoView(ctx context.Context, selector string) error {
	if _, err := p.node(ctx, selector); err != nil {
		return err
	}
	return p.run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (p *page) Type(ctx context.Context, selector, text string) error {
	if _, err := p.node(ctx, selector); err != nil {
		return err
	}
	return p.run(ctx,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (p *page) HTML(ctx context.Context) (string, error) {
	var htmlContent string
	if err := p.run(ctx, chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return htmlContent, nil
}

func (p *page) Location(ctx context.Context) (string, error) {
	var location string
	if err := p.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// Browser is a single Chrome instance whose first target is the results view.
type Browser struct {
	page
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	logger        *zap.Logger
}

// New launches Chrome with opts and opens its first tab.
func New(parent context.Context, opts Options, logger *zap.Logger) (*Browser, error) {
	rot := NewRotator(opts.Proxies, opts.UserAgents)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, AllocatorOptions(opts, rot)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	logger.Info("browser started", zap.Bool("headless", opts.Headless), zap.Int("proxies", len(opts.Proxies)))

	return &Browser{
		page:          page{ctx: browserCtx},
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		logger:        logger,
	}, nil
}

// OpenTab opens url in a new target of the same browser, sharing its session.
func (b *Browser) OpenTab(ctx context.Context, url string) (repository.Tab, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	// The target's event loop lives as long as the ctx of the first Run, so the
	// target is attached on tabCtx itself and never on a per-call child.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("attach tab: %w", err)
	}
	t := &tab{page: page{ctx: tabCtx}, cancel: cancel}
	if err := t.Navigate(ctx, url); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("open tab %s: %w", url, err)
	}
	return t, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
	b.logger.Info("browser closed")
}

type tab struct {
	page
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// Close closes the target and releases its context. Closing twice is an error.
func (t *tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("tab already closed")
	}
	t.closed = true
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	return err
}

var _ repository.Browser = (*Browser)(nil)
