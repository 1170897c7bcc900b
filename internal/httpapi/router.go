// Package httpapi wires the gin HTTP surface onto the core RAG/search/store
// components, grouping routes under a versioned /api/v1 prefix with a
// shared CORS/logger/recovery middleware stack.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"legalrag/internal/rag"
	"legalrag/internal/search"
	"legalrag/internal/store"
)

// Server bundles the dependencies every handler needs.
type Server struct {
	orchestrator *rag.Orchestrator
	engine       *search.Engine
	store        store.ChunkStore
	logger       *zap.Logger
}

func NewServer(orchestrator *rag.Orchestrator, engine *search.Engine, s store.ChunkStore, logger *zap.Logger) *Server {
	return &Server{orchestrator: orchestrator, engine: engine, store: s, logger: logger}
}

// Router builds the gin engine with the full route table.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", s.healthHandler)

	api := r.Group("/api/v1")
	{
		api.POST("/chat", s.chatHandler)
		api.POST("/search", s.searchHandler)
		api.GET("/sources", s.listSourcesHandler)
		api.GET("/documents/:official_id", s.getDocumentHandler)
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{"success": true, "status": "ok", "time": time.Now().UTC()})
}
