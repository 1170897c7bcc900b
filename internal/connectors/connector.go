// Package connectors implements the per-source fetch+parse contract: each
// connector turns a source URL into raw HTML plus an intermediate list of
// structural units (articles, sections, rulings) that the normaliser turns
// into canonical chunks. HTML parsing uses goquery, a jQuery-style
// net/html selector library.
package connectors

import (
	"context"
	"errors"
	"fmt"
)

// FetchError wraps a network/HTTP failure from a connector.
// Permanent marks whether the orchestrator should treat this as
// non-retryable (any HTTP 4xx other than 429, an unparseable page, or
// content with NUL bytes) versus transient (network, 5xx, 429).
type FetchError struct {
	URL       string
	Status    int
	Permanent bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status=%d permanent=%v: %v", e.URL, e.Status, e.Permanent, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrRawNUL is returned when content still contains NUL bytes after forcing
// UTF-8 conversion.
var ErrRawNUL = errors.New("connector: content contains NUL byte after UTF-8 conversion")

// StructuralUnit is one article/section/ruling-half extracted from a source
// document, prior to normalisation into a canonical chunk.
type StructuralUnit struct {
	Kind        string // article | section | disposition | consulta | contestacion
	Label       string
	Text        string
	Position    int
	SubMetadata map[string]string
}

// FetchHints carries the catalog context a connector needs beyond the URL:
// the official_id (needed to rebuild a canonical URL for BOE's PDF inputs)
// and outbound headers.
type FetchHints struct {
	OfficialID string
	UserAgent  string
	Contact    string
}

// Metadata is provenance the connector can read off the page itself
// (e.g. CELEX id, publication date) that the normaliser folds into the
// chunk metadata alongside the catalog's own classification fields.
type Metadata struct {
	PublicationDate string
	IssuingBody     string
	Section         string
	ResolvedURL     string
}

// Connector is the common contract every source connector satisfies.
type Connector interface {
	// Fetch retrieves url and parses it into structural units. A parse that
	// yields zero units is not an error — the normaliser applies the
	// fallback policy. Network/HTTP failures are returned as
	// *FetchError.
	Fetch(ctx context.Context, url string, hints FetchHints) (rawHTML string, units []StructuralUnit, meta Metadata, err error)
}
