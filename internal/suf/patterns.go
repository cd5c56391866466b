package suf

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Patterns holds every anchor the parser matches against a rendered page.
// The SUF layout drifts without notice; keeping the patterns in data bounds
// the blast radius of a change to a config file edit instead of a release.
type Patterns struct {
	// MerchantAnchor matches the journal header block: the fiscal receipt
	// marker line, then the tax identification number line, then the
	// merchant name line. The merchant is the second capture group.
	MerchantAnchor string `json:"merchant_anchor"`
	// MerchantLabel is the fallback single-line "label: value" form.
	MerchantLabel string `json:"merchant_label"`
	// TotalLabel captures the Serbian-formatted total after its label.
	TotalLabel string `json:"total_label"`
	// TimeLabel captures the fiscalization timestamp token after its label.
	TimeLabel string `json:"time_label"`
	// TimeLayouts are tried in order against the captured token.
	TimeLayouts []string `json:"time_layouts"`

	// SpecToggle is the element clicked to expand the collapsed
	// specification section.
	SpecToggle string `json:"spec_toggle"`
	// ItemsTable locates the specification table in the page HTML.
	ItemsTable string `json:"items_table"`
	// ItemsRows selects the rows to read within the captured table. Header
	// rows are dropped naturally because their cells fail numeric parsing.
	ItemsRows string `json:"items_rows"`
	// Column positions within a row.
	NameColumn     int `json:"name_column"`
	QuantityColumn int `json:"quantity_column"`
	TotalColumn    int `json:"total_column"`

	merchantAnchorRe *regexp.Regexp
	merchantLabelRe  *regexp.Regexp
	totalRe          *regexp.Regexp
	timeRe           *regexp.Regexp
}

// DefaultPatterns matches the journal layout the verification service renders
// today.
func DefaultPatterns() *Patterns {
	p := &Patterns{
		MerchantAnchor: `ФИСКАЛНИ РАЧУН[ =]*\n *(\d{8,9})\n *(.+)`,
		MerchantLabel:  `Предузеће:\s*(.+)`,
		TotalLabel:     `Укупан износ:\s*([0-9.,]+)`,
		TimeLabel:      `ПФР време:\s*(\d{1,2}\.\d{1,2}\.\d{4}\.?\s+\d{1,2}:\d{2}:\d{2})`,
		TimeLayouts: []string{
			"2.1.2006. 15:04:05",
			"02.01.2006. 15:04:05",
			"2.1.2006 15:04:05",
		},
		SpecToggle:     "#naslov-specifikacije",
		ItemsTable:     "#specifikacije table",
		ItemsRows:      "tr",
		NameColumn:     0,
		QuantityColumn: 1,
		TotalColumn:    3,
	}
	if err := p.compile(); err != nil {
		// The defaults are compiled in tests; this cannot happen at runtime.
		panic(err)
	}
	return p
}

// LoadPatterns reads pattern overrides from a JSON file. Fields absent from
// the file keep their default values.
func LoadPatterns(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns file: %w", err)
	}
	p := DefaultPatterns()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing patterns file: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Patterns) compile() error {
	var err error
	if p.merchantAnchorRe, err = regexp.Compile(p.MerchantAnchor); err != nil {
		return fmt.Errorf("compiling merchant anchor: %w", err)
	}
	if p.merchantLabelRe, err = regexp.Compile(p.MerchantLabel); err != nil {
		return fmt.Errorf("compiling merchant label: %w", err)
	}
	if p.totalRe, err = regexp.Compile(p.TotalLabel); err != nil {
		return fmt.Errorf("compiling total label: %w", err)
	}
	if p.timeRe, err = regexp.Compile(p.TimeLabel); err != nil {
		return fmt.Errorf("compiling time label: %w", err)
	}
	return nil
}
