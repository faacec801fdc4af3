package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/shenikar/incident_watch/internal/service"
	"github.com/sirupsen/logrus"
)

const currentUserKey = "currentUser"

// SessionAuthMiddleware - middleware, требующее активную сессию.
// Сессионный шлюз здесь бутафорский (см. AuthService.Login), границей безопасности не является.
func SessionAuthMiddleware(auth service.AuthService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser()
		if user == nil {
			log.Warn("Request without an active session")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// AdminOnlyMiddleware пропускает только администраторов
func AdminOnlyMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin() {
			log.Warn("Non-admin request to an admin-only route")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// currentUser достает пользователя сессии из контекста запроса
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
