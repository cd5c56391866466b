package suf

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// ChromeFetcher renders the page in headless Chrome so the client-side
// scripts that populate the receipt data actually run. After the page loads
// it clicks the collapsed specification section open and waits a fixed settle
// delay; the table fills asynchronously with no completion signal, so a
// premature read on slow pages is a known limitation, not a bug to retry.
type ChromeFetcher struct {
	settle     time.Duration
	specToggle string
	itemsTable string
}

// NewChromeFetcher creates a ChromeFetcher reading the selectors it needs
// from the extraction patterns.
func NewChromeFetcher(settle time.Duration, patterns *Patterns) *ChromeFetcher {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &ChromeFetcher{
		settle:     settle,
		specToggle: patterns.SpecToggle,
		itemsTable: patterns.ItemsTable,
	}
}

// Fetch loads url in a fresh browser tab and returns the rendered body text
// plus the specification table's HTML, if the table exists.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var text, itemsHTML string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		f.expandSpecification(),
		chromedp.Sleep(f.settle),
		chromedp.Evaluate(`document.body.innerText`, &text),
		chromedp.Evaluate(captureElementJS(f.itemsTable), &itemsHTML),
	)
	if err != nil {
		return Page{}, fmt.Errorf("rendering page: %w", err)
	}
	return Page{Text: text, ItemsHTML: itemsHTML}, nil
}

// expandSpecification clicks the collapsed section open, best effort: the
// section may already be expanded or the toggle renamed, and a missed click
// only costs the line items, not the whole extraction.
func (f *ChromeFetcher) expandSpecification() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		js := fmt.Sprintf(
			`(() => { const el = document.querySelector(%q); if (!el) { return false; } el.click(); return true; })()`,
			f.specToggle,
		)
		var clicked bool
		if err := chromedp.Evaluate(js, &clicked).Do(ctx); err != nil {
			return err
		}
		if !clicked {
			slog.Debug("Specification toggle not found", "selector", f.specToggle)
		}
		return nil
	})
}

func captureElementJS(selector string) string {
	return fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? el.outerHTML : ""; })()`,
		selector,
	)
}

// HTTPFetcher fetches a page with a plain GET and no script execution. It
// serves layouts that arrive server-rendered, and tests.
type HTTPFetcher struct {
	client     *http.Client
	itemsTable string
}

// NewHTTPFetcher creates an HTTPFetcher
func NewHTTPFetcher(patterns *Patterns) *HTTPFetcher {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &HTTPFetcher{
		client:     &http.Client{Timeout: 30 * time.Second},
		itemsTable: patterns.ItemsTable,
	}
}

// Fetch downloads url and extracts its text and specification table.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetching page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("reading page: %w", err)
	}

	var itemsHTML string
	if table := doc.Find(f.itemsTable).First(); table.Length() > 0 {
		if html, err := goquery.OuterHtml(table); err == nil {
			itemsHTML = html
		}
	}
	return Page{Text: doc.Find("body").Text(), ItemsHTML: itemsHTML}, nil
}
