package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/middleware"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

// callerFromContext resolves the authenticated caller or writes a 401.
func callerFromContext(c *gin.Context) (models.Caller, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Caller{}, false
	}
	return claims.Caller(), true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
