package server

import (
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      List Features
// @Tags         features
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  ListResponse
// @Router       /admin/projects/{projectID}/features [get]
func (s *Server) ListFeatures(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	features, err := s.featureSvc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, features, nil)
}

// @Summary      Create Feature
// @Description  Creates the feature and fans out a default state to every environment
// @Tags         features
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features [post]
func (s *Server) CreateFeature(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	var req featuredomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProjectID = projectID

	feature, err := s.featureSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateProject(c.Request.Context(), projectID)
	respondData(c, feature)
}

// @Summary      Get Feature
// @Tags         features
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        featureID  path  string  true  "Feature ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID} [get]
func (s *Server) GetFeature(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	feature, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, feature)
}

// @Summary      Update Feature
// @Tags         features
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        featureID  path  string  true  "Feature ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID} [put]
func (s *Server) UpdateFeature(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	var req featuredomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ProjectID = projectID
	req.ID = featureID

	feature, err := s.featureSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateProject(c.Request.Context(), projectID)
	respondData(c, feature)
}

// @Summary      Delete Feature
// @Description  Removes the feature with all its states and segment overrides
// @Tags         features
// @Param        projectID  path  string  true  "Project ID"
// @Param        featureID  path  string  true  "Feature ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID} [delete]
func (s *Server) DeleteFeature(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	if err := s.featureSvc.Delete(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateProject(c.Request.Context(), projectID)
	respondData(c, gin.H{"deleted": true})
}

// @Summary      Set Environment State
// @Description  Update the environment default enabled/value for a feature
// @Tags         features
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        featureID  path  string  true  "Feature ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID}/state [put]
func (s *Server) SetEnvironmentState(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	if _, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}

	var req featuredomain.SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.FeatureID = featureID

	state, err := s.featureSvc.SetEnvironmentState(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateEnvironmentByID(c, projectID, req.EnvironmentID)
	respondData(c, state)
}

// @Summary      Set Identity State
// @Description  Create or update an identity override for a feature
// @Tags         features
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        featureID  path  string  true  "Feature ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID}/identity-state [put]
func (s *Server) SetIdentityState(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	if _, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}

	var req featuredomain.SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.FeatureID = featureID

	// Identity overrides are loaded fresh on every resolution, so no
	// snapshot invalidation here.
	state, err := s.featureSvc.SetIdentityState(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, state)
}

// @Summary      Remove Identity State
// @Tags         features
// @Param        projectID   path  string  true  "Project ID"
// @Param        featureID   path  string  true  "Feature ID"
// @Param        identityID  path  string  true  "Identity ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID}/identity-state/{identityID} [delete]
func (s *Server) RemoveIdentityState(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	identityID, ok := parseID(c, "identityID")
	if !ok {
		return
	}
	if _, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.featureSvc.RemoveIdentityState(c.Request.Context(), featureID, identityID); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}

// @Summary      List Feature Segments
// @Tags         features
// @Produce      json
// @Param        projectID       path   string  true  "Project ID"
// @Param        featureID       path   string  true  "Feature ID"
// @Param        environment_id  query  string  true  "Environment ID"
// @Success      200  {object}  ListResponse
// @Router       /admin/projects/{projectID}/features/{featureID}/feature-segments [get]
func (s *Server) ListFeatureSegments(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	if _, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}

	envID, err := parseQueryID(c, "environment_id")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	overrides, err := s.featureSvc.ListFeatureSegments(c.Request.Context(), featureID, envID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, overrides, nil)
}

// @Summary      Create Feature Segment
// @Description  Attach a segment override to a feature within one environment
// @Tags         features
// @Accept       json
// @Produce      json
// @Param        projectID  path  string  true  "Project ID"
// @Param        featureID  path  string  true  "Feature ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID}/feature-segments [post]
func (s *Server) CreateFeatureSegment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	if _, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}

	var req featuredomain.FeatureSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.FeatureID = featureID

	fs, err := s.featureSvc.CreateFeatureSegment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateEnvironmentByID(c, projectID, req.EnvironmentID)
	respondData(c, fs)
}

// @Summary      Delete Feature Segment
// @Tags         features
// @Param        projectID         path  string  true  "Project ID"
// @Param        featureID         path  string  true  "Feature ID"
// @Param        featureSegmentID  path  string  true  "Feature Segment ID"
// @Success      200  {object}  DataResponse
// @Router       /admin/projects/{projectID}/features/{featureID}/feature-segments/{featureSegmentID} [delete]
func (s *Server) DeleteFeatureSegment(c *gin.Context) {
	projectID, ok := parseID(c, "projectID")
	if !ok {
		return
	}
	featureID, ok := parseID(c, "featureID")
	if !ok {
		return
	}
	featureSegmentID, ok := parseID(c, "featureSegmentID")
	if !ok {
		return
	}
	if _, err := s.featureSvc.Get(c.Request.Context(), projectID, featureID); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.featureSvc.DeleteFeatureSegment(c.Request.Context(), featureSegmentID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateProject(c.Request.Context(), projectID)
	respondData(c, gin.H{"deleted": true})
}
