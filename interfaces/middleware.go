package interfaces

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"evidence-hub/domain"
)

// UserHeader carries the caller's id, set by the authenticating gateway.
const UserHeader = "X-User-ID"

const (
	ctxUserID = "user_id"
	ctxRoles  = "roles"
)

func RequireRoles(lookup RoleLookup, allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		roles, err := lookup.RolesForUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load roles"})
			return
		}
		if !roles.HasAny(allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRoles, roles)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	if id := c.GetString(ctxUserID); id != "" {
		return id
	}
	return strings.TrimSpace(c.GetHeader(UserHeader))
}
