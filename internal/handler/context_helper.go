package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/middleware"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
	"github.com/noah-isme/village-api/pkg/response"
)

func classIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("classId"))
}

// bindJSON decodes the body into dest, writing a validation error on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// respondOutcome always answers 200: refusals such as a declined purchase are
// results, not errors. The outcome is mirrored into meta.
func respondOutcome(c *gin.Context, outcome dto.Outcome, data interface{}) {
	middleware.SetOutcome(c, string(outcome))
	response.OK(c, data, middleware.ExtractMeta(c))
}
