package config

import (
	"net/url"
	"strings"

	"jakangroup/catalogworker/internal/catalog"
)

// DefaultTargets are the compiled-in store and category pages crawled when
// CRAWL_TARGETS is not set.
func DefaultTargets() []catalog.Target {
	return []catalog.Target{
		{
			Name:    "Jakan Phone Store",
			BaseURL: "https://www.kilimall.co.ke/store/JAKAN-PHONE-STORE",
		},
		{
			Name:     "Oraimo Audio",
			BaseURL:  "https://ke.oraimo.com/collections/audio",
			Category: "Audio",
		},
		{
			Name:     "Oraimo Power",
			BaseURL:  "https://ke.oraimo.com/collections/power",
			Category: "Power",
		},
	}
}

// DefaultStrategies is the probe order for every target: the highest-yield
// scheme first, long-tail probes after. Max pages and thresholds keep the
// total request count per crawl in the low double digits.
func DefaultStrategies() []catalog.Strategy {
	return []catalog.Strategy{
		{Name: "pageNo", Param: "pageNo", MaxPages: 4, StopThreshold: 2},
		{Name: "price_desc", Param: "page", Extra: url.Values{"sort": {"price_desc"}}, MaxPages: 3, StopThreshold: 1},
		{Name: "sales", Param: "page", Extra: url.Values{"sort": {"sales"}}, MaxPages: 3, StopThreshold: 1},
		{Name: "pageNum", Param: "pageNum", MaxPages: 4, StopThreshold: 1},
		{Name: "offset", Param: "offset", Values: []string{"0", "32", "64", "96"}, StopThreshold: 1},
	}
}

// DefaultSelectors matches the product tiles of the default targets.
func DefaultSelectors() catalog.Selectors {
	return catalog.Selectors{
		ProductLink:    `a[href*="/listing/"], a[href*="/product/"]`,
		TitleAttr:      "data-name",
		Price:          `[class*="price"]`,
		ModelAttr:      "data-sku",
		EANParam:       "ean",
		InStock:        "a.js_add_to_cart",
		OutOfStockText: "out of stock",
	}
}

// parseTargets parses the CRAWL_TARGETS environment value. The format is a
// semicolon-separated list of "name|url" or "name|url|category" entries.
// Malformed entries are skipped; an empty value falls back to the defaults.
func parseTargets(spec string) []catalog.Target {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return DefaultTargets()
	}

	var targets []catalog.Target
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) < 2 {
			continue
		}
		target := catalog.Target{
			Name:    strings.TrimSpace(parts[0]),
			BaseURL: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			target.Category = strings.TrimSpace(parts[2])
		}
		if target.Name == "" || target.BaseURL == "" {
			continue
		}
		targets = append(targets, target)
	}
	return targets
}
