package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/catalogit/core"
)

// Selectors for the portal markup.
const (
	nameSelector        = "h1"
	descriptionSelector = "div.platform-product-description"
	priceSelector       = ".product-price"
)

// listingScopes are tried in order to skip header and footer navigation.
var listingScopes = []string{"main", ".products-grid"}

// DetailPattern matches the canonical detail URLs below base.
func DetailPattern(base string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(strings.TrimRight(base, "/")) + `/products/\d+$`)
}

// ExtractProductURLs returns the distinct detail-page links of a listing
// page as absolute URLs, in first-seen order.
func ExtractProductURLs(html string, base *url.URL, pattern *regexp.Regexp) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	scope := doc.Selection
	for _, selector := range listingScopes {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			scope = found
			break
		}
	}

	seen := make(map[string]bool)
	var urls []string
	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !pattern.MatchString(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})
	return urls, nil
}

// ExtractDetail reads the scraper-owned fields from a detail page.
// A missing or generic heading is an extraction error.
func ExtractDetail(html, pageURL string, genericTitles []string) (*core.ProductDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, core.NewExtractionError(pageURL, err)
	}

	name := strings.TrimSpace(doc.Find(nameSelector).First().Text())
	if name == "" {
		return nil, core.NewExtractionError(pageURL, core.ErrMissingName)
	}
	for _, generic := range genericTitles {
		if strings.EqualFold(name, generic) {
			return nil, core.NewExtractionError(pageURL, fmt.Errorf("%w: %q", core.ErrGenericTitle, name))
		}
	}

	var paragraphs []string
	doc.Find(descriptionSelector).First().Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return &core.ProductDetail{
		URL:         pageURL,
		Name:        name,
		Description: strings.Join(paragraphs, " "),
		Price:       strings.TrimSpace(doc.Find(priceSelector).First().Text()),
	}, nil
}
