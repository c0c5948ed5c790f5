package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ndegtyarev/eventauth/internal/common"
	"github.com/ndegtyarev/eventauth/internal/server/models"
)

const userContextKey = "current_user"

// requireUser authenticates the request via the Authorization bearer token,
// loads the account behind it and stores it in the gin context. A valid token
// for a deactivated or deleted account is rejected like any other bad token.
func (h *Handler) requireUser(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	identity, err := h.sessions.VerifyAccess(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.GetByID(c.Request.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			return
		}
		h.serverError(c, err)
		c.Abort()
		return
	}
	if !user.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account deactivated"})
		return
	}

	c.Set(userContextKey, user)
	c.Next()
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// currentUser returns the account stored by requireUser. Only valid on routes
// behind that middleware.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userContextKey).(*models.User)
}
