package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/personapanel/internal/core/model"
)

func (s *Server) ListEntityTypes(c *gin.Context) {
	types, err := s.Panel.ListEntityTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, types)
}

func (s *Server) CreateEntityType(c *gin.Context) {
	var req model.EntityType
	if !bindJSON(c, &req) {
		return
	}
	et, err := s.Panel.CreateEntityType(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, et)
}

func (s *Server) GetEntityType(c *gin.Context) {
	et, err := s.Panel.GetEntityType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, et)
}

func (s *Server) UpdateEntityType(c *gin.Context) {
	var req model.EntityType
	if !bindJSON(c, &req) {
		return
	}
	et, err := s.Panel.UpdateEntityType(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, et)
}

func (s *Server) DeleteEntityType(c *gin.Context) {
	if err := s.Panel.DeleteEntityType(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "entity type deleted")
}

func (s *Server) ListEntitiesOfType(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.Panel.GetEntityType(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	entities, err := s.Panel.ListEntities(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entities)
}

type GenerateRequest struct {
	Count        int    `json:"count"`
	Instructions string `json:"instructions"`
}

func (s *Server) GenerateEntities(c *gin.Context) {
	req := GenerateRequest{Count: 1}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	res, err := s.Panel.GenerateEntities(c.Request.Context(), c.Param("id"), req.Count, req.Instructions)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, res)
}

func (s *Server) ListEntities(c *gin.Context) {
	entities, err := s.Panel.ListEntities(c.Request.Context(), c.Query("entity_type_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entities)
}

func (s *Server) CreateEntity(c *gin.Context) {
	var req model.Entity
	if !bindJSON(c, &req) {
		return
	}
	e, err := s.Panel.CreateEntity(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, e)
}

func (s *Server) GetEntity(c *gin.Context) {
	e, err := s.Panel.GetEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, e)
}

func (s *Server) UpdateEntity(c *gin.Context) {
	var req model.Entity
	if !bindJSON(c, &req) {
		return
	}
	e, err := s.Panel.UpdateEntity(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, e)
}

func (s *Server) DeleteEntity(c *gin.Context) {
	if err := s.Panel.DeleteEntity(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "entity deleted")
}

func (s *Server) InteractionPartners(c *gin.Context) {
	partners, err := s.Panel.InteractionPartners(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, partners)
}

func (s *Server) ListTemplates(c *gin.Context) {
	all, err := s.Panel.ListTemplates()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, all)
}

func (s *Server) GetTemplate(c *gin.Context) {
	tpl, err := s.Panel.GetTemplate(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tpl)
}

type InstantiateRequest struct {
	Name string `json:"name"`
}

func (s *Server) InstantiateTemplate(c *gin.Context) {
	var req InstantiateRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	et, err := s.Panel.InstantiateTemplate(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, et)
}

func (s *Server) ListContexts(c *gin.Context) {
	contexts, err := s.Panel.ListContexts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, contexts)
}

func (s *Server) CreateContext(c *gin.Context) {
	var req model.Context
	if !bindJSON(c, &req) {
		return
	}
	m, err := s.Panel.CreateContext(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, m)
}

func (s *Server) GetContext(c *gin.Context) {
	m, err := s.Panel.GetContext(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, m)
}

func (s *Server) UpdateContext(c *gin.Context) {
	var req model.Context
	if !bindJSON(c, &req) {
		return
	}
	m, err := s.Panel.UpdateContext(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, m)
}

func (s *Server) DeleteContext(c *gin.Context) {
	if err := s.Panel.DeleteContext(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "context deleted")
}
