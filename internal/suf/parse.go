package suf

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"expendita/internal/serbian"
)

// merchant tries the journal header anchor first, then the labeled fallback.
// Both missing means an empty merchant; the caller decides what that costs.
func (p *Patterns) merchant(text string) string {
	if m := p.merchantAnchorRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	if m := p.merchantLabelRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func (p *Patterns) total(text string) int64 {
	m := p.totalRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := serbian.ParseNumber(m[1])
	if err != nil {
		return 0
	}
	return serbian.Cents(v)
}

func (p *Patterns) timestamp(text string) time.Time {
	m := p.timeRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}
	token := strings.TrimSpace(m[1])
	for _, layout := range p.TimeLayouts {
		if t, err := time.ParseInLocation(layout, token, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// items reads the specification table row by row. Rows that fail to parse are
// dropped silently rather than aborting the extraction.
func (p *Patterns) items(html string) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing items table: %w", err)
	}

	var items []Item
	doc.Find(p.ItemsRows).Each(func(_ int, row *goquery.Selection) {
		if item, ok := p.itemFromRow(row); ok {
			items = append(items, item)
		}
	})
	return items, nil
}

func (p *Patterns) itemFromRow(row *goquery.Selection) (Item, bool) {
	cells := row.Find("td")
	last := p.NameColumn
	if p.QuantityColumn > last {
		last = p.QuantityColumn
	}
	if p.TotalColumn > last {
		last = p.TotalColumn
	}
	if cells.Length() <= last {
		return Item{}, false
	}

	name := strings.TrimSpace(cells.Eq(p.NameColumn).Text())
	if name == "" {
		return Item{}, false
	}
	quantity, err := serbian.ParseNumber(strings.TrimSpace(cells.Eq(p.QuantityColumn).Text()))
	if err != nil || quantity < 0 {
		return Item{}, false
	}
	total, err := serbian.ParseNumber(strings.TrimSpace(cells.Eq(p.TotalColumn).Text()))
	if err != nil || total < 0 {
		return Item{}, false
	}

	return Item{
		Name:       name,
		Quantity:   quantity,
		TotalCents: serbian.Cents(total),
	}, true
}
