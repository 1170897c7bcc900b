package connectors

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EURLexConnector parses the Spanish-language HTML rendering of an EU
// Official Journal act, extracting articles via .eli-subdivision[data-type
// ="article"] selectors and the CELEX identifier from page metadata.
type EURLexConnector struct {
	fetcher *httpFetcher
}

func NewEURLexConnector(limiter *HostLimiter) *EURLexConnector {
	return &EURLexConnector{fetcher: newHTTPFetcher(limiter)}
}

func (c *EURLexConnector) Fetch(ctx context.Context, url string, hints FetchHints) (string, []StructuralUnit, Metadata, error) {
	raw, err := c.fetcher.get(ctx, preferSpanish(url), hints)
	if err != nil {
		return "", nil, Metadata{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw, nil, Metadata{}, &FetchError{URL: url, Permanent: true, Err: err}
	}

	meta := Metadata{ResolvedURL: url}
	celex := doc.Find("meta[name='WT.z_docID'], meta[name='celex']").AttrOr("content", "")
	if celex != "" {
		meta.IssuingBody = "CELEX:" + celex
	}

	units := parseEliSubdivisions(doc)
	return raw, units, meta, nil
}

// preferSpanish rewrites a language-neutral EUR-Lex URL to request the
// Spanish-language HTML rendering.
func preferSpanish(url string) string {
	if strings.Contains(url, "/ES/") || strings.Contains(url, "lang=ES") {
		return url
	}
	switch {
	case strings.Contains(url, "/EN/TXT"):
		return strings.Replace(url, "/EN/TXT", "/ES/TXT", 1)
	case strings.Contains(url, "uri=CELEX"):
		sep := "&"
		if !strings.Contains(url, "?") {
			sep = "?"
		}
		return url + sep + "locale=es"
	default:
		return url
	}
}

func parseEliSubdivisions(doc *goquery.Document) []StructuralUnit {
	var units []StructuralUnit
	pos := 0
	sel := doc.Find(`.eli-subdivision[data-type="article"]`)
	if sel.Length() == 0 {
		// Equivalent fallback selector used by some EUR-Lex renderings.
		sel = doc.Find(`div[id^="art_"]`)
	}
	sel.Each(func(_ int, div *goquery.Selection) {
		label := strings.TrimSpace(div.Find(".oj-ti-art, .sti-art, p.title").First().Text())
		if label == "" {
			label = strings.TrimSpace(div.Find("p").First().Text())
		}
		var parts []string
		div.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := strings.TrimSpace(p.Text())
			if t != "" && t != label {
				parts = append(parts, t)
			}
		})
		text := strings.TrimSpace(strings.Join(parts, "\n"))
		if label == "" || text == "" {
			return
		}
		units = append(units, StructuralUnit{Kind: "article", Label: label, Text: text, Position: pos})
		pos++
	})
	return units
}
