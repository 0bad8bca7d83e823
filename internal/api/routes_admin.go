package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/handlers"
)

// Operator console routes. Access control is left to the network the console is served on.
func registerAdminRoutes(admin *gin.RouterGroup, deps Dependencies) {
	console := handlers.NewAdminHandler(deps.Sessions, deps.Events, deps.Payments, deps.Dashboard)
	admin.GET("/dashboard", console.Dashboard)
	admin.GET("/sales", console.Sales)
	admin.GET("/sessions", console.ListSessions)
	admin.GET("/sessions/:token/events", console.SessionEvents)

	sessions := handlers.NewSessionHandler(deps.Sessions)
	admin.POST("/sessions/:token/disconnect", sessions.Disconnect)
	admin.POST("/sessions/:token/refresh", sessions.Refresh)

	plans := handlers.NewPlanHandler(deps.Plans)
	group := admin.Group("/plans")
	{
		group.GET("", plans.ListAll)
		group.POST("", plans.Create)
		group.PATCH("/:id", plans.Update)
		group.DELETE("/:id", plans.Delete)
		group.POST("/:id/toggle", plans.Toggle)
	}
}
