package server

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	orgdomain "github.com/flagforgelabs/flagforge/internal/organisation/domain"
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondList(c *gin.Context, data any, pageInfo *pagination.PageInfo) {
	if pageInfo == nil {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "page_info": pageInfo})
}

var notFoundErrors = []error{
	orgdomain.ErrNotFound,
	projectdomain.ErrNotFound,
	envdomain.ErrNotFound,
	envdomain.ErrIdentityNotFound,
	featuredomain.ErrNotFound,
	featuredomain.ErrStateNotFound,
	featuredomain.ErrSegmentNotFound,
	segmentdomain.ErrNotFound,
}

var badRequestErrors = []error{
	ErrInvalidRequest,
	orgdomain.ErrInvalidName,
	projectdomain.ErrInvalidOrganisation,
	projectdomain.ErrInvalidName,
	envdomain.ErrInvalidProject,
	envdomain.ErrInvalidName,
	envdomain.ErrInvalidIdentifier,
	envdomain.ErrInvalidTraitKey,
	envdomain.ErrInvalidSort,
	envdomain.ErrTraitNotInteger,
	featuredomain.ErrInvalidProject,
	featuredomain.ErrInvalidName,
	featuredomain.ErrInvalidKind,
	featuredomain.ErrInvalidEnvironment,
	segmentdomain.ErrInvalidProject,
	segmentdomain.ErrInvalidName,
	segmentdomain.ErrInvalidRuleType,
	segmentdomain.ErrInvalidOperator,
	segmentdomain.ErrInvalidCondition,
}

var conflictErrors = []error{
	featuredomain.ErrDuplicateName,
	featuredomain.ErrDuplicatePriority,
}

func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
	case matchesAny(err, notFoundErrors):
		status = http.StatusNotFound
	case matchesAny(err, badRequestErrors):
		status = http.StatusBadRequest
	case matchesAny(err, conflictErrors):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal_error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func parseID(c *gin.Context, param string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(param))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func parseQueryID(c *gin.Context, key string) (snowflake.ID, error) {
	return snowflake.ParseString(c.Query(key))
}
