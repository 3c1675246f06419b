package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/middleware"
)

func (s *Server) handleDiseasesByType(c *gin.Context) {
	diseases, err := s.services.Catalog.ListByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diseases": nonNil(diseases)})
}

func (s *Server) handleDiseasesBySpecies(c *gin.Context) {
	diseases, err := s.services.Catalog.ListBySpecies(c.Request.Context(), c.Param("type"), c.Param("species"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diseases": nonNil(diseases)})
}

func (s *Server) handleGetDisease(c *gin.Context) {
	disease, err := s.services.Catalog.GetByID(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		fail(c, notFoundMessage(err, "Disease not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"disease": disease})
}

func (s *Server) handleSearchDiseases(c *gin.Context) {
	result, err := s.services.Catalog.Search(c.Request.Context(), c.Param("type"), c.Param("query"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidType) {
			err = middleware.WithMessage(err, `Invalid type. Must be "plant", "livestock", or "all"`)
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plantDiseases":     result.PlantMatches,
		"livestockDiseases": result.LivestockMatches,
		"totalResults":      result.Total(),
	})
}

func (s *Server) handleDistinctSymptoms(c *gin.Context) {
	symptoms, err := s.services.Catalog.DistinctSymptoms(c.Request.Context(), c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symptoms": symptoms,
		"count":    len(symptoms),
	})
}

func nonNil(entries []*domain.DiseaseEntry) []*domain.DiseaseEntry {
	if entries == nil {
		return []*domain.DiseaseEntry{}
	}
	return entries
}
