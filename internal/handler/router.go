package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cisbeo/scorpiusProject-sub002/internal/middleware"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
)

type RouterDeps struct {
	Index       *IndexHandler
	RAG         *RAGHandler
	Matches     *MatchHandler
	Bids        *BidHandler
	JWTSecret   []byte
	AskInterval time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"ok": true})
	})

	authGroup := api.Group("")
	authGroup.Use(middleware.TenantAuth(deps.JWTSecret))

	authGroup.POST("/index/chunks", deps.Index.IndexChunk)
	authGroup.GET("/index/stats", deps.Index.Stats)
	authGroup.DELETE("/documents/:id", deps.Index.RemoveDocument)

	authGroup.POST("/tenders/:id/ask", middleware.RateLimit(deps.AskInterval), deps.RAG.Ask)
	authGroup.GET("/search", deps.RAG.Search)
	authGroup.POST("/feedback", deps.RAG.Feedback)

	authGroup.PUT("/documents/:id/requirements", deps.Matches.SaveRequirements)
	authGroup.POST("/matches", deps.Matches.Compute)
	authGroup.GET("/matches/:id", deps.Matches.Get)

	authGroup.POST("/bids", deps.Bids.Create)
	authGroup.GET("/bids/:id", deps.Bids.Get)
	authGroup.PUT("/bids/:id/sections", deps.Bids.UpdateSections)
	authGroup.POST("/bids/:id/compliance", deps.Bids.EvaluateCompliance)
	authGroup.POST("/bids/:id/transition", deps.Bids.Transition)
	authGroup.POST("/bids/:id/submit", deps.Bids.Submit)
	authGroup.POST("/bids/:id/versions", deps.Bids.NewVersion)
}
