package connectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BOEConnector parses the Spanish Official Bulletin's two coexisting HTML
// layouts: the legacy doc.php sibling layout and the ELI container
// layout, falling back to heading-based sectioning when neither matches.
type BOEConnector struct {
	fetcher *httpFetcher
}

func NewBOEConnector(limiter *HostLimiter) *BOEConnector {
	return &BOEConnector{fetcher: newHTTPFetcher(limiter)}
}

// canonicalDocURL rebuilds the HTML form of a BOE URL when the input points
// at a PDF, using the official_id hint rather than anything parsed from the
// PDF URL itself. The connector never stores PDF bytes.
func canonicalDocURL(rawURL, officialID string) string {
	lower := strings.ToLower(rawURL)
	if strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "/pdf/") {
		return fmt.Sprintf("https://www.boe.es/buscar/doc.php?id=%s", officialID)
	}
	return rawURL
}

func (c *BOEConnector) Fetch(ctx context.Context, url string, hints FetchHints) (string, []StructuralUnit, Metadata, error) {
	resolved := canonicalDocURL(url, hints.OfficialID)

	raw, err := c.fetcher.get(ctx, resolved, hints)
	if err != nil {
		return "", nil, Metadata{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw, nil, Metadata{}, &FetchError{URL: resolved, Permanent: true, Err: err}
	}

	meta := Metadata{ResolvedURL: resolved}
	if date := doc.Find("meta[name='fecha_publicacion']").AttrOr("content", ""); date != "" {
		meta.PublicationDate = date
	}

	units := parseSiblingLayout(doc)
	if len(units) == 0 {
		units = parseContainerLayout(doc)
	}
	if len(units) == 0 {
		units = parseHeadingSections(doc)
	}

	return raw, units, meta, nil
}

// parseSiblingLayout handles the legacy doc.php format: article headings
// h3|h4|h5.articulo followed by sibling <p class="parrafo"> elements up to
// (not including) the next article heading.
func parseSiblingLayout(doc *goquery.Document) []StructuralUnit {
	var units []StructuralUnit
	pos := 0
	doc.Find("h3.articulo, h4.articulo, h5.articulo").Each(func(_ int, heading *goquery.Selection) {
		label := strings.TrimSpace(heading.Text())
		var sb strings.Builder
		for node := heading.Next(); node.Length() > 0; node = node.Next() {
			if isArticleHeading(node) {
				break
			}
			if node.HasClass("parrafo") || goquery.NodeName(node) == "p" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(strings.TrimSpace(node.Text()))
			}
		}
		text := strings.TrimSpace(sb.String())
		if label == "" || text == "" {
			return
		}
		units = append(units, StructuralUnit{Kind: "article", Label: label, Text: text, Position: pos})
		pos++
	})
	return units
}

func isArticleHeading(s *goquery.Selection) bool {
	if !s.HasClass("articulo") {
		return false
	}
	switch goquery.NodeName(s) {
	case "h3", "h4", "h5":
		return true
	}
	return false
}

// parseContainerLayout handles the ELI format: article[id^="art"] containers
// with the heading and paragraphs nested inside.
func parseContainerLayout(doc *goquery.Document) []StructuralUnit {
	var units []StructuralUnit
	pos := 0
	doc.Find("article").Each(func(_ int, art *goquery.Selection) {
		id, _ := art.Attr("id")
		if !strings.HasPrefix(id, "art") {
			return
		}
		label := strings.TrimSpace(art.Find("h3, h4, h5, .articulo").First().Text())
		if label == "" {
			label = strings.TrimSpace(art.Find("header").First().Text())
		}
		var parts []string
		art.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := strings.TrimSpace(p.Text())
			if t != "" {
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

// parseHeadingSections is the last-resort fallback: sections by generic
// heading elements when neither known structural layout matches.
func parseHeadingSections(doc *goquery.Document) []StructuralUnit {
	var units []StructuralUnit
	pos := 0
	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		label := strings.TrimSpace(heading.Text())
		var sb strings.Builder
		for node := heading.Next(); node.Length() > 0; node = node.Next() {
			name := goquery.NodeName(node)
			if name == "h2" || name == "h3" {
				break
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(strings.TrimSpace(node.Text()))
		}
		text := strings.TrimSpace(sb.String())
		if label == "" || text == "" {
			return
		}
		units = append(units, StructuralUnit{Kind: "section", Label: label, Text: text, Position: pos})
		pos++
	})
	return units
}
