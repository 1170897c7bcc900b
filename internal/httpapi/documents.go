package httpapi

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"legalrag/internal/store"
)

type documentChunkResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type documentResponse struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	OfficialID string                  `json:"official_id"`
	URL        string                  `json:"url"`
	Chunks     []documentChunkResponse `json:"chunks"`
}

// getDocumentHandler implements GET /documents/{official_id}: returns
// the document with its chunks sorted by structural position.
func (s *Server) getDocumentHandler(c *gin.Context) {
	officialID := c.Param("official_id")
	if officialID == "" {
		badRequest(c, "VALIDATION_ERROR", "official_id path parameter is required")
		return
	}

	doc, chunks, err := s.store.GetDocument(c.Request.Context(), officialID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(c, "no document found for official_id "+officialID)
			return
		}
		internalError(c, "failed to load document: "+err.Error())
		return
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Metadata.Position < chunks[j].Metadata.Position })

	out := make([]documentChunkResponse, 0, len(chunks))
	for _, ch := range chunks {
		out = append(out, documentChunkResponse{
			ID: ch.ID, Kind: string(ch.Kind), Label: ch.Label, Text: ch.Text, Position: ch.Metadata.Position,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"document": documentResponse{
			ID: doc.ID, Title: doc.Title, OfficialID: doc.OfficialID, URL: doc.URL, Chunks: out,
		},
	})
}
