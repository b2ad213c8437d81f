package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

type organisationRequest struct {
	Name string `json:"name"`
}

// @Summary      List Organisations
// @Tags         organisations
// @Produce      json
// @Success      200  {object}  ListResponse
// @Router       /admin/organisations [get]
func (s *Server) ListOrganisations(c *gin.Context) {
	orgs, err := s.orgSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, orgs, nil)
}

// @Summary      Create Organisation
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Success      200  {object}  DataResponse
// @Router       /admin/organisations [post]
func (s *Server) CreateOrganisation(c *gin.Context) {
	var req organisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	org, err := s.orgSvc.Create(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, org)
}

// @Summary      Get Organisation
// @Tags         organisations
// @Produce      json
// @Param        orgID  path  string  true  "Organisation ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/organisations/{orgID} [get]
func (s *Server) GetOrganisation(c *gin.Context) {
	id, ok := parseID(c, "orgID")
	if !ok {
		return
	}
	org, err := s.orgSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, org)
}

// @Summary      Update Organisation
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Param        orgID  path  string  true  "Organisation ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/organisations/{orgID} [put]
func (s *Server) UpdateOrganisation(c *gin.Context) {
	id, ok := parseID(c, "orgID")
	if !ok {
		return
	}
	var req organisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	org, err := s.orgSvc.Update(c.Request.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, org)
}

// @Summary      Delete Organisation
// @Tags         organisations
// @Param        orgID  path  string  true  "Organisation ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/organisations/{orgID} [delete]
func (s *Server) DeleteOrganisation(c *gin.Context) {
	id, ok := parseID(c, "orgID")
	if !ok {
		return
	}
	if err := s.orgSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}
