package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"legalrag/internal/models"
	"legalrag/internal/store"
)

const maxSearchLimit = 100

type searchRequest struct {
	Query    string `json:"query" binding:"required"`
	Area     string `json:"area"`
	Nature   string `json:"nature"`
	Priority string `json:"priority"`
	Limit    int    `json:"limit"`
}

type chunkResponse struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Text       string  `json:"text"`
	DocTitle   string  `json:"doc_title"`
	OfficialID string  `json:"official_id"`
	Nature     string  `json:"nature"`
	Score      float64 `json:"score"`
}

// searchHandler implements POST /search: direct hybrid search over
// an optional metadata filter. The limit defaults to 10; a limit above 100
// is rejected with VALIDATION_ERROR.
func (s *Server) searchHandler(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", "request body must be JSON with a non-empty \"query\" field")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchLimit {
		badRequest(c, "VALIDATION_ERROR", "limit must be at most 100")
		return
	}

	var filter store.Filter
	if req.Nature != "" {
		nature, err := models.ParseNature(req.Nature)
		if err != nil {
			badRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		filter.Nature = nature
	}
	if req.Priority != "" {
		priority, err := models.ParsePriority(req.Priority)
		if err != nil {
			badRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		filter.Priority = priority
	}
	filter.Area = req.Area

	results, err := s.engine.Hybrid(c.Request.Context(), req.Query, filter, limit)
	if err != nil {
		internalError(c, "search failed: "+err.Error())
		return
	}

	out := make([]chunkResponse, 0, len(results))
	for _, r := range results {
		out = append(out, chunkResponse{
			ID: r.Chunk.ID, Label: r.Chunk.Label, Text: r.Chunk.Text,
			DocTitle: r.Chunk.Metadata.DocTitle, OfficialID: r.Chunk.Metadata.OfficialID,
			Nature: string(r.Chunk.Metadata.Nature), Score: r.Score,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": out, "count": len(out)})
}
