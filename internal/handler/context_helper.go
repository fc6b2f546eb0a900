package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable/internal/middleware"
)

// actorFromContext names the caller for audit logs and reports.
func actorFromContext(c *gin.Context) string {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return "anonymous"
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.UserID
}
