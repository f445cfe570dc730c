package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	loadMoreRounds = 4
	settleDelay    = 900 * time.Millisecond
	scrollStep     = 1500
)

// Scripts installed before navigation to hide the usual automation signals.
var stealthScripts = []string{
	`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`,
	`window.chrome = { runtime: {} };`,
	`Object.defineProperty(navigator, 'languages', {get: () => ['en-US','en']});`,
	`Object.defineProperty(navigator, 'plugins', {get: () => [1,2,3]});`,
}

// clickLoadMoreJS clicks the first visible control whose text matches one of
// the bilingual "load more" labels. It returns whether anything was clicked.
const clickLoadMoreJS = `(() => {
	const labels = ["load more", "show more", "view more", "عرض المزيد", "مشاهدة المزيد"];
	const nodes = document.querySelectorAll('button, a, [role="button"]');
	for (const n of nodes) {
		const t = (n.textContent || '').trim().toLowerCase();
		if (labels.some(l => t.includes(l))) {
			try { n.click(); return true; } catch (e) {}
		}
	}
	return false;
})()`

// RenderedStrategy drives a headless browser: it navigates, waits for the
// DOM, clicks "load more" controls and scrolls a bounded number of rounds to
// trigger lazy loading, then captures the final DOM as HTML.
type RenderedStrategy struct {
	timeout time.Duration
}

// NewRenderedStrategy creates a rendered fetch strategy with the given
// per-navigation timeout.
func NewRenderedStrategy(timeout time.Duration) *RenderedStrategy {
	return &RenderedStrategy{timeout: timeout}
}

// Name identifies the strategy in logs and metrics.
func (s *RenderedStrategy) Name() string { return "rendered" }

// Fetch renders the page in an isolated browser context.
func (s *RenderedStrategy) Fetch(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, s.timeout)
	defer timeoutCancel()

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, script := range stealthScripts {
				if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}

	for i := 0; i < loadMoreRounds; i++ {
		actions = append(actions,
			chromedp.Evaluate(clickLoadMoreJS, nil),
			chromedp.Sleep(settleDelay),
			chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d);", scrollStep), nil),
			chromedp.Sleep(settleDelay),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", newError(KindNetwork, hostOf(pageURL), fmt.Errorf("rendered fetch failed: %w", err))
	}
	return html, nil
}
