package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
	apperrors "github.com/yanqian/keto-dashboard/pkg/errors"
)

// sessionMiddleware resolves the bearer session token to a session ID.
func sessionMiddleware(svc dashboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authorization header", nil))
			return
		}
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		sessionID, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if apperrors.IsCode(err, "invalid_token") {
				abortWithError(c, NewHTTPError(http.StatusForbidden, "invalid_token", errMessage(err), err))
				return
			}
			abortWithError(c, fromDomainError(err))
			return
		}
		setSessionID(c, sessionID)
		c.Next()
	}
}
