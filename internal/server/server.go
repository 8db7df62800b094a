package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core"
)

type Server struct {
	Panel  *core.Panel
	Logger *zap.Logger
}

func NewServer(panel *core.Panel, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Panel:  panel,
		Logger: logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.Health)

	api := r.Group("/api")
	api.GET("/health", s.Health)

	api.GET("/entity-types", s.ListEntityTypes)
	api.POST("/entity-types", s.CreateEntityType)
	api.GET("/entity-types/:id", s.GetEntityType)
	api.PUT("/entity-types/:id", s.UpdateEntityType)
	api.DELETE("/entity-types/:id", s.DeleteEntityType)
	api.GET("/entity-types/:id/entities", s.ListEntitiesOfType)
	api.POST("/entity-types/:id/generate", s.GenerateEntities)

	api.GET("/entities", s.ListEntities)
	api.POST("/entities", s.CreateEntity)
	api.GET("/entities/:id", s.GetEntity)
	api.PUT("/entities/:id", s.UpdateEntity)
	api.DELETE("/entities/:id", s.DeleteEntity)
	api.GET("/entities/:id/interactions", s.InteractionPartners)

	api.GET("/templates", s.ListTemplates)
	api.GET("/templates/:id", s.GetTemplate)
	api.POST("/templates/:id/instantiate", s.InstantiateTemplate)

	api.GET("/contexts", s.ListContexts)
	api.POST("/contexts", s.CreateContext)
	api.GET("/contexts/:id", s.GetContext)
	api.PUT("/contexts/:id", s.UpdateContext)
	api.DELETE("/contexts/:id", s.DeleteContext)

	api.GET("/simulations", s.ListSimulations)
	api.POST("/simulations", s.RunSimulation)
	api.GET("/simulations/:id", s.GetSimulation)
	api.DELETE("/simulations/:id", s.DeleteSimulation)
	api.POST("/simulations/:id/continue", s.ContinueSimulation)
	api.GET("/simulations/:id/export", s.ExportSimulation)

	api.POST("/unified-simulations", s.RunUnifiedSimulation)

	api.GET("/batch-simulations", s.ListBatches)
	api.POST("/batch-simulations", s.CreateBatch)
	api.GET("/batch-simulations/:id", s.GetBatch)
	api.DELETE("/batch-simulations/:id", s.DeleteBatch)
	api.GET("/batch-simulations/:id/simulations", s.ListBatchSimulations)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			s.Logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			s.Logger.Warn("Request rejected", fields...)
		default:
			s.Logger.Info("Request handled", fields...)
		}
	}
}

func (s *Server) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"healthy":       true,
		"llm_provider":  s.Panel.Provider,
		"llm_model":     s.Panel.Model,
		"llm_available": s.Panel.LLMAvailable(),
		"graph_enabled": s.Panel.Graph != nil,
	})
}
