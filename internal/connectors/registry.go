package connectors

import "strings"

// Registry dispatches a CorpusSource's URL to the right connector by host.
type Registry struct {
	boe    *BOEConnector
	eurlex *EURLexConnector
	dgt    *DGTConnector
}

func NewRegistry(limiter *HostLimiter) *Registry {
	return &Registry{
		boe:    NewBOEConnector(limiter),
		eurlex: NewEURLexConnector(limiter),
		dgt:    NewDGTConnector(limiter),
	}
}

// For returns the connector that should handle sourceURL.
func (r *Registry) For(sourceURL string) Connector {
	lower := strings.ToLower(sourceURL)
	switch {
	case strings.Contains(lower, "boe.es"):
		return r.boe
	case strings.Contains(lower, "eur-lex.europa.eu"):
		return r.eurlex
	case strings.Contains(lower, "petete.tributos.hacienda.gob.es"), strings.Contains(lower, "agenciatributaria"):
		return r.dgt
	default:
		return r.boe
	}
}
