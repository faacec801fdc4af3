package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Вход/выход и чтение текущей сессии
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.login)
		auth.POST("/logout", h.logout)
		auth.GET("/me", h.me)
	}

	// Жизненный цикл инцидентов; триаж и удаление - только администраторам
	incidents := api.Group("/incidents", SessionAuthMiddleware(h.authService, h.logger))
	{
		incidents.GET("", AdminOnlyMiddleware(h.logger), h.listIncidents)
		incidents.GET("/my", h.listMyIncidents)
		incidents.POST("", h.createIncident)
		incidents.GET("/stream", h.streamIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PATCH("/:id/status", AdminOnlyMiddleware(h.logger), h.updateIncidentStatus)
		incidents.DELETE("/:id", AdminOnlyMiddleware(h.logger), h.deleteIncident)
		incidents.GET("/:id/images", h.listIncidentImages)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
