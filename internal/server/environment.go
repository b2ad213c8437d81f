package server

import (
	"strings"

	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

// @Summary      List Environments
// @Tags         environments
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  ListResponse
// @Router       /admin/projects/{projectID}/environments [get]
func (s *Server) ListEnvironments(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	envs, err := s.envSvc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, envs, nil)
}

// @Summary      Create Environment
// @Tags         environments
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/environments [post]
func (s *Server) CreateEnvironment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	var req envdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProjectID = projectID

	env, err := s.envSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, env)
}

// @Summary      Get Environment
// @Tags         environments
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        envID      path  string  true  "Environment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/environments/{envID} [get]
func (s *Server) GetEnvironment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	envID, ok := parseID(c, "envID")
	if !ok {
		return
	}
	env, err := s.envSvc.Get(c.Request.Context(), projectID, envID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, env)
}

// @Summary      Update Environment
// @Tags         environments
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        envID      path  string  true  "Environment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/environments/{envID} [put]
func (s *Server) UpdateEnvironment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	envID, ok := parseID(c, "envID")
	if !ok {
		return
	}
	var req envdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProjectID = projectID
	req.ID = envID

	env, err := s.envSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.engineSvc.InvalidateEnvironment(c.Request.Context(), env.APIKey)
	respondData(c, env)
}

// @Summary      Delete Environment
// @Tags         environments
// @Param        projectID  path  string  true  "Project ID"
// @Param        envID      path  string  true  "Environment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/environments/{envID} [delete]
func (s *Server) DeleteEnvironment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	envID, ok := parseID(c, "envID")
	if !ok {
		return
	}

	env, err := s.envSvc.Get(c.Request.Context(), projectID, envID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.envSvc.Delete(c.Request.Context(), projectID, envID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.engineSvc.InvalidateEnvironment(c.Request.Context(), env.APIKey)
	respondData(c, gin.H{"deleted": true})
}

// @Summary      List Identities
// @Tags         environments
// @Produce      json
// @Param        projectID   path   string  true   "Project ID"
// @Param        envID       path   string  true   "Environment ID"
// @Param        q           query  string  false  "Identifier substring"
// @Param        page_token  query  string  false  "Page Token"
// @Param        page_size   query  int     false  "Page Size"
// @Success      200  {object}  ListResponse
// @Router       /admin/projects/{projectID}/environments/{envID}/identities [get]
func (s *Server) ListIdentities(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	envID, ok := parseID(c, "envID")
	if !ok {
		return
	}
	// Environment must belong to the addressed project.
	if _, err := s.envSvc.Get(c.Request.Context(), projectID, envID); err != nil {
		AbortWithError(c, err)
		return
	}

	var query struct {
		pagination.Pagination
		Q string `form:"q"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.envSvc.ListIdentities(c.Request.Context(), envdomain.ListIdentitiesRequest{
		EnvironmentID: envID,
		Q:             strings.TrimSpace(query.Q),
		PageToken:     query.PageToken,
		PageSize:      int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, resp.Identities, &resp.PageInfo)
}
