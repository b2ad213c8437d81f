package server

import (
	"net/http"
	"strings"

	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Get Flags
// @Description  Resolve environment default flags
// @Tags         sdk
// @Produce      json
// @Param        feature  query  string  false  "Single feature by name"
// @Success      200  {object}  DataResponse
// @Router       /flags/ [get]
func (s *Server) GetFlags(c *gin.Context) {
	env := environmentFromContext(c)
	flags, err := s.engineSvc.GetFlags(c.Request.Context(), env)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if name := strings.TrimSpace(c.Query("feature")); name != "" {
		for _, flag := range flags {
			if strings.EqualFold(flag.Feature.Name, name) {
				respondData(c, flag)
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "feature_not_found"})
		return
	}

	respondData(c, flags)
}

// @Summary      Get Identity Flags
// @Description  Resolve flags and traits for one identity, creating it on first sight
// @Tags         sdk
// @Produce      json
// @Param        identifier  query  string  true  "Identity identifier"
// @Success      200  {object}  DataResponse
// @Router       /identities/ [get]
func (s *Server) GetIdentityFlags(c *gin.Context) {
	env := environmentFromContext(c)
	identifier := strings.TrimSpace(c.Query("identifier"))

	resp, err := s.engineSvc.GetIdentityFlags(c.Request.Context(), env, identifier)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}

// @Summary      Upsert Trait
// @Description  Create or update one trait; a null value deletes it
// @Tags         sdk
// @Accept       json
// @Produce      json
// @Success      200  {object}  DataResponse
// @Router       /traits/ [post]
func (s *Server) UpsertTrait(c *gin.Context) {
	env := environmentFromContext(c)

	var req envdomain.TraitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.EnvironmentID = env.ID

	trait, err := s.envSvc.UpsertTrait(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if trait == nil {
		respondData(c, gin.H{"trait_key": req.Key, "deleted": true})
		return
	}
	respondData(c, trait)
}

// @Summary      Increment Trait
// @Description  Atomically add a delta to an integer trait
// @Tags         sdk
// @Accept       json
// @Produce      json
// @Success      200  {object}  DataResponse
// @Router       /traits/increment-value/ [post]
func (s *Server) IncrementTrait(c *gin.Context) {
	env := environmentFromContext(c)

	var req envdomain.IncrementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.EnvironmentID = env.ID

	trait, err := s.envSvc.IncrementTrait(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, trait)
}

type bulkTraitItemResponse struct {
	Key     string          `json:"trait_key"`
	Trait   *envdomain.Trait `json:"trait,omitempty"`
	Deleted bool            `json:"deleted,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// @Summary      Bulk Upsert Traits
// @Description  Apply a batch of trait writes; items fail independently
// @Tags         sdk
// @Accept       json
// @Produce      json
// @Success      200  {object}  DataResponse
// @Router       /traits/bulk/ [put]
func (s *Server) BulkUpsertTraits(c *gin.Context) {
	env := environmentFromContext(c)

	var items []envdomain.TraitRequest
	if err := c.ShouldBindJSON(&items); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	results := s.envSvc.BulkUpsertTraits(c.Request.Context(), env.ID, items)

	resp := make([]bulkTraitItemResponse, 0, len(results))
	for _, res := range results {
		item := bulkTraitItemResponse{Key: res.Key, Trait: res.Trait, Deleted: res.Deleted}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		resp = append(resp, item)
	}
	respondData(c, resp)
}
