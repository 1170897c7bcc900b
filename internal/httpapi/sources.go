package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"legalrag/internal/models"
	"legalrag/internal/store"
)

type sourceCatalogResponse struct {
	ID             int64      `json:"id"`
	OfficialID     string     `json:"official_id"`
	Priority       string     `json:"priority"`
	Nature         string     `json:"nature"`
	Area           string     `json:"area"`
	AuthorityLevel string     `json:"authority_level"`
	Title          string     `json:"title"`
	SourceURL      string     `json:"source_url"`
	State          string     `json:"state"`
	LastError      string     `json:"last_error,omitempty"`
}

// listSourcesHandler implements GET /sources: filter by
// priority/nature/area/state, with offset/limit paging.
func (s *Server) listSourcesHandler(c *gin.Context) {
	var filter store.SourceFilter

	if v := c.Query("priority"); v != "" {
		p, err := models.ParsePriority(v)
		if err != nil {
			badRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		filter.Priority = p
	}
	if v := c.Query("nature"); v != "" {
		n, err := models.ParseNature(v)
		if err != nil {
			badRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		filter.Nature = n
	}
	filter.Area = c.Query("area")
	if v := c.Query("state"); v != "" {
		filter.State = models.SourceState(v)
	}

	page := store.Page{Offset: 0, Limit: 50}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page.Offset = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			page.Limit = n
		}
	}

	sources, err := s.store.ListSources(c.Request.Context(), filter, page)
	if err != nil {
		internalError(c, "failed to list sources: "+err.Error())
		return
	}

	out := make([]sourceCatalogResponse, 0, len(sources))
	for _, src := range sources {
		out = append(out, sourceCatalogResponse{
			ID: src.ID, OfficialID: src.OfficialID, Priority: string(src.Priority),
			Nature: string(src.Nature), Area: src.Area, AuthorityLevel: string(src.AuthorityLevel),
			Title: src.Title, SourceURL: src.SourceURL, State: string(src.State), LastError: src.LastError,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sources": out, "count": len(out)})
}
