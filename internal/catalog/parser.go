package catalog

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors contains the CSS selectors and attributes used to extract
// product tiles from a listing page. Only ProductLink is required; all other
// fields have text-based fallbacks.
type Selectors struct {
	// ProductLink matches the anchors pointing at product pages,
	// e.g. `a[href^="/listing/"]`.
	ProductLink string
	// Tile optionally names the tile container; when set, price and stock
	// lookups run inside the anchor's closest matching ancestor.
	Tile string
	// Title optionally names a title element inside the tile.
	Title string
	// TitleAttr optionally names an anchor attribute carrying the full
	// title (e.g. "data-name").
	TitleAttr string
	// Price names the price element inside the tile.
	Price string
	// ModelAttr optionally names an anchor attribute carrying the model or
	// SKU (e.g. "data-sku").
	ModelAttr string
	// EANParam optionally names a link query parameter carrying the EAN.
	EANParam string
	// InStock optionally matches an element whose presence marks the tile
	// as purchasable (e.g. an add-to-cart button).
	InStock string
	// OutOfStockText is a marker substring (matched case-insensitively
	// against the tile text) that flags the product as out of stock.
	OutOfStockText string
}

// DefaultSelectors covers the common catalog layout: product anchors with a
// price element somewhere in the surrounding tile.
func DefaultSelectors() Selectors {
	return Selectors{
		ProductLink:    `a[href*="/listing/"], a[href*="/product/"]`,
		Price:          `[class*="price"]`,
		OutOfStockText: "out of stock",
	}
}

// TileParser extracts product summaries from listing markup using a
// selector table. Relative product links are resolved against the page URL.
type TileParser struct {
	Selectors Selectors
}

// NewTileParser builds a parser for one site layout.
func NewTileParser(selectors Selectors) *TileParser {
	if selectors.ProductLink == "" {
		selectors = DefaultSelectors()
	}
	return &TileParser{Selectors: selectors}
}

// Parse implements ListingParser. A page without product anchors yields an
// empty slice and no error; the engine treats that as an empty page.
func (p *TileParser) Parse(body io.Reader, pageURL string) ([]ProductSummary, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var summaries []ProductSummary
	seen := make(map[string]bool)

	doc.Find(p.Selectors.ProductLink).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || seen[href] {
			return
		}
		seen[href] = true

		summary := p.parseTile(base, a, href)
		if summary != nil {
			summaries = append(summaries, *summary)
		}
	})

	return summaries, nil
}

func (p *TileParser) parseTile(base *url.URL, a *goquery.Selection, href string) *ProductSummary {
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	absolute := base.ResolveReference(ref)

	tile := a
	if p.Selectors.Tile != "" {
		if closest := a.Closest(p.Selectors.Tile); closest.Length() > 0 {
			tile = closest
		}
	} else if parent := a.Parent(); parent.Length() > 0 {
		tile = parent
	}

	title := p.extractTitle(a, tile)
	if title == "" {
		return nil
	}

	summary := &ProductSummary{
		URL:   absolute.String(),
		Title: title,
		Price: p.extractPrice(tile),
		Stock: p.extractStock(tile),
	}

	if p.Selectors.ModelAttr != "" {
		summary.Model = strings.TrimSpace(a.AttrOr(p.Selectors.ModelAttr, ""))
	}
	if p.Selectors.EANParam != "" {
		summary.EAN = ref.Query().Get(p.Selectors.EANParam)
	}

	return summary
}

func (p *TileParser) extractTitle(a, tile *goquery.Selection) string {
	if p.Selectors.TitleAttr != "" {
		if title := strings.TrimSpace(a.AttrOr(p.Selectors.TitleAttr, "")); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(a.AttrOr("title", "")); title != "" {
		return title
	}
	if title := strings.TrimSpace(a.AttrOr("aria-label", "")); title != "" {
		return title
	}
	if title := strings.TrimSpace(a.Text()); title != "" {
		return title
	}
	if p.Selectors.Title != "" {
		return strings.TrimSpace(tile.Find(p.Selectors.Title).First().Text())
	}
	return ""
}

func (p *TileParser) extractPrice(tile *goquery.Selection) string {
	if p.Selectors.Price == "" {
		return ""
	}
	return strings.TrimSpace(tile.Find(p.Selectors.Price).First().Text())
}

func (p *TileParser) extractStock(tile *goquery.Selection) StockStatus {
	if p.Selectors.OutOfStockText != "" {
		text := strings.ToLower(tile.Text())
		if strings.Contains(text, strings.ToLower(p.Selectors.OutOfStockText)) {
			return OutOfStock
		}
	}
	if p.Selectors.InStock != "" {
		if tile.Find(p.Selectors.InStock).Length() > 0 {
			return InStock
		}
		return StockUnknown
	}
	return StockUnknown
}
