// Package logging configures the process-wide zap logger, with the usual
// zap.NewProduction()/zap.NewDevelopment() split between prod and dev/test.
package logging

import "go.uber.org/zap"

// New returns a production logger, or a development logger when dev is true.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Stages match the log-stream field list used across the service.
const (
	StageFetch         = "fetch"
	StageParse         = "parse"
	StageNormalise     = "normalise"
	StageEmbed         = "embed"
	StageStore         = "store"
	StageClassify      = "classify"
	StageVectorSearch  = "vector_search"
	StageLexicalSearch = "lexical_search"
	StageFuse          = "fuse"
	StageRerank        = "rerank"
	StageGenerate      = "generate"
)
