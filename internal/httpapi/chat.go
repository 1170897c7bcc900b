package httpapi

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const (
	minQueryChars = 10
	maxQueryChars = 500
)

type chatRequest struct {
	Query string `json:"query" binding:"required"`
}

type sourceResponse struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	ReferenceLabel string  `json:"reference_label"`
	Snippet        string  `json:"snippet"`
	FullText       string  `json:"full_text"`
	DocTitle       string  `json:"doc_title"`
	OfficialID     string  `json:"official_id"`
	URL            string  `json:"url"`
	AuthorityLevel string  `json:"authority_level"`
	Nature         string  `json:"nature"`
	Similarity     float64 `json:"similarity"`
}

type chatResponse struct {
	Success bool             `json:"success"`
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
	Meta    chatMeta         `json:"metadata"`
}

type chatMeta struct {
	Area                string `json:"area"`
	Model               string `json:"model"`
	NormativaCount      int    `json:"normativa_count"`
	DoctrinaCount       int    `json:"doctrina_count"`
	JurisprudenciaCount int    `json:"jurisprudencia_count"`
	DurationMS          int64  `json:"duration_ms"`
	GenerationFailed    bool   `json:"generation_failed"`
}

// chatHandler implements POST /chat: validates query length against the
// 10-500 char bound, then delegates to the RAG orchestrator.
func (s *Server) chatHandler(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", "request body must be JSON with a non-empty \"query\" field")
		return
	}

	n := utf8.RuneCountInString(req.Query)
	if n < minQueryChars {
		badRequest(c, "QUERY_TOO_SHORT", "query must be at least 10 characters")
		return
	}
	if n > maxQueryChars {
		badRequest(c, "QUERY_TOO_LONG", "query must be at most 500 characters")
		return
	}

	answer, err := s.orchestrator.AnswerQuery(c.Request.Context(), req.Query)
	if err != nil {
		internalError(c, "failed to answer query: "+err.Error())
		return
	}

	sources := make([]sourceResponse, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		sources = append(sources, sourceResponse{
			ID: src.ID, Category: src.Category, ReferenceLabel: src.Label, Snippet: src.Snippet,
			FullText: src.Text, DocTitle: src.DocTitle, OfficialID: src.OfficialID, URL: src.URL,
			AuthorityLevel: src.AuthorityLevel, Nature: src.Nature, Similarity: src.Score,
		})
	}

	c.JSON(http.StatusOK, chatResponse{
		Success: true,
		Answer:  answer.Text,
		Sources: sources,
		Meta: chatMeta{
			Area:                answer.Metadata.Area,
			Model:               answer.Metadata.Model,
			NormativaCount:      answer.Metadata.NormativaCount,
			DoctrinaCount:       answer.Metadata.DoctrinaCount,
			JurisprudenciaCount: answer.Metadata.JurisprudenciaCount,
			DurationMS:          answer.Metadata.Duration.Milliseconds(),
			GenerationFailed:    answer.Metadata.GenerationFailed,
		},
	})
}
