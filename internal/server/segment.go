package server

import (
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      List Segments
// @Tags         segments
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  ListResponse
// @Router       /admin/projects/{projectID}/segments [get]
func (s *Server) ListSegments(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	segments, err := s.segmentSvc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, segments, nil)
}

// @Summary      Create Segment
// @Tags         segments
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/segments [post]
func (s *Server) CreateSegment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	var req segmentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProjectID = projectID

	segment, err := s.segmentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, segment)
}

// @Summary      Get Segment
// @Tags         segments
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        segmentID  path  string  true  "Segment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/segments/{segmentID} [get]
func (s *Server) GetSegment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	segmentID, ok := parseID(c, "segmentID")
	if !ok {
		return
	}
	segment, err := s.segmentSvc.Get(c.Request.Context(), projectID, segmentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, segment)
}

// @Summary      Update Segment
// @Description  Replace segment metadata and, when rules are supplied, the whole rule tree
// @Tags         segments
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        segmentID  path  string  true  "Segment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/segments/{segmentID} [put]
func (s *Server) UpdateSegment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	segmentID, ok := parseID(c, "segmentID")
	if !ok {
		return
	}
	var req segmentdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProjectID = projectID
	req.ID = segmentID

	segment, err := s.segmentSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	// Rule changes affect every environment holding an override on
	// this segment.
	s.invalidateProject(c.Request.Context(), projectID)
	respondData(c, segment)
}

// @Summary      Delete Segment
// @Tags         segments
// @Param        projectID  path  string  true  "Project ID"
// @Param        segmentID  path  string  true  "Segment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/segments/{segmentID} [delete]
func (s *Server) DeleteSegment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	segmentID, ok := parseID(c, "segmentID")
	if !ok {
		return
	}
	if err := s.segmentSvc.Delete(c.Request.Context(), projectID, segmentID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateProject(c.Request.Context(), projectID)
	respondData(c, gin.H{"deleted": true})
}
