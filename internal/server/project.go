package server

import (
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      List Projects
// @Tags         projects
// @Produce      json
// @Param        orgID  path  string  true  "Organisation ID"
// @Success      200  {object}  ListResponse
// @Router       /admin/organisations/{orgID}/projects [get]
func (s *Server) ListProjects(c *gin.Context) {
	orgID, ok := parseID(c, "orgID")
	if !ok {
		return
	}
	projects, err := s.projectSvc.ListByOrganisation(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, projects, nil)
}

// @Summary      Create Project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        orgID  path  string  true  "Organisation ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/organisations/{orgID}/projects [post]
func (s *Server) CreateProject(c *gin.Context) {
	orgID, ok := parseID(c, "orgID")
	if !ok {
		return
	}
	var req projectdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.OrganisationID = orgID

	project, err := s.projectSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, project)
}

// @Summary      Get Project
// @Tags         projects
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID} [get]
func (s *Server) GetProject(c *gin.Context) {
	id, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	project, err := s.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, project)
}

// @Summary      Update Project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID} [put]
func (s *Server) UpdateProject(c *gin.Context) {
	id, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	var req projectdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = id

	project, err := s.projectSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	// hide_disabled_flags changes what /flags/ returns.
	s.invalidateProject(c.Request.Context(), id)
	respondData(c, project)
}

// @Summary      Delete Project
// @Tags         projects
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID} [delete]
func (s *Server) DeleteProject(c *gin.Context) {
	id, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	s.invalidateProject(c.Request.Context(), id)
	if err := s.projectSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}
