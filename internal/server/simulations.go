package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/personapanel/internal/core"
	"github.com/agenthands/personapanel/internal/export"
)

func (s *Server) ListSimulations(c *gin.Context) {
	sims, err := s.Panel.ListSimulations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sims)
}

func (s *Server) RunSimulation(c *gin.Context) {
	var req core.SimulationInput
	if !bindJSON(c, &req) {
		return
	}
	sim, err := s.Panel.RunSimulation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, sim)
}

func (s *Server) GetSimulation(c *gin.Context) {
	sim, err := s.Panel.GetSimulation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sim)
}

func (s *Server) DeleteSimulation(c *gin.Context) {
	if err := s.Panel.DeleteSimulation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "simulation deleted")
}

type ContinueRequest struct {
	NTurns int `json:"n_turns"`
}

func (s *Server) ContinueSimulation(c *gin.Context) {
	var req ContinueRequest
	if !bindJSON(c, &req) {
		return
	}
	sim, err := s.Panel.ContinueSimulation(c.Request.Context(), c.Param("id"), req.NTurns)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sim)
}

func (s *Server) ExportSimulation(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.Panel.ExportSimulation(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("download") == "true" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "simulation-"+c.Param("id")+"."+extension(format)))
	}
	c.Data(http.StatusOK, format.ContentType(), out)
}

func extension(f export.Format) string {
	switch f {
	case export.FormatMarkdown:
		return "md"
	case export.FormatText:
		return "txt"
	default:
		return string(f)
	}
}

func (s *Server) RunUnifiedSimulation(c *gin.Context) {
	var req core.UnifiedInput
	if !bindJSON(c, &req) {
		return
	}
	sim, err := s.Panel.RunUnifiedSimulation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, sim)
}

func (s *Server) ListBatches(c *gin.Context) {
	batches, err := s.Panel.ListBatches(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, batches)
}

func (s *Server) CreateBatch(c *gin.Context) {
	var req core.BatchInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := s.Panel.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	code := http.StatusCreated
	if req.Async {
		code = http.StatusAccepted
	}
	respondOK(c, code, b)
}

func (s *Server) GetBatch(c *gin.Context) {
	b, err := s.Panel.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}

func (s *Server) DeleteBatch(c *gin.Context) {
	if err := s.Panel.DeleteBatch(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "batch simulation deleted")
}

func (s *Server) ListBatchSimulations(c *gin.Context) {
	sims, err := s.Panel.ListBatchSimulations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sims)
}
