package connectors

import (
	"context"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DGTConnector parses Spanish tax-ruling ("consulta vinculante") pages,
// producing two chunks per ruling: the question (consulta) and the answer
// (contestacion), with the ruling code extracted from the URL path.
type DGTConnector struct {
	fetcher *httpFetcher
}

func NewDGTConnector(limiter *HostLimiter) *DGTConnector {
	return &DGTConnector{fetcher: newHTTPFetcher(limiter)}
}

func (c *DGTConnector) Fetch(ctx context.Context, url string, hints FetchHints) (string, []StructuralUnit, Metadata, error) {
	raw, err := c.fetcher.get(ctx, url, hints)
	if err != nil {
		return "", nil, Metadata{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw, nil, Metadata{}, &FetchError{URL: url, Permanent: true, Err: err}
	}

	rulingCode := rulingCodeFromURL(url)
	meta := Metadata{ResolvedURL: url, IssuingBody: "DGT", Section: rulingCode}

	var units []StructuralUnit
	question := strings.TrimSpace(doc.Find(".cuestion, .consulta, #cuestion").First().Text())
	answer := strings.TrimSpace(doc.Find(".contestacion, .descripcion-hechos, #contestacion").First().Text())

	if question == "" && answer == "" {
		// Last resort: split the body text in half by a "CONTESTACION"
		// marker some older renderings use instead of dedicated elements.
		body := strings.TrimSpace(doc.Find("body").Text())
		if idx := strings.Index(strings.ToUpper(body), "CONTESTACION"); idx > 0 {
			question = strings.TrimSpace(body[:idx])
			answer = strings.TrimSpace(body[idx:])
		}
	}

	if question != "" {
		units = append(units, StructuralUnit{Kind: "consulta", Label: "Consulta " + rulingCode, Text: question, Position: 0})
	}
	if answer != "" {
		units = append(units, StructuralUnit{Kind: "contestacion", Label: "Contestación " + rulingCode, Text: answer, Position: 1})
	}

	return raw, units, meta, nil
}

func rulingCodeFromURL(rawURL string) string {
	clean := strings.TrimSuffix(rawURL, "/")
	base := path.Base(clean)
	base = strings.TrimSuffix(base, path.Ext(base))
	return base
}
