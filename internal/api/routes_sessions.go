package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/handlers"
)

func registerCustomerRoutes(api *gin.RouterGroup, deps Dependencies) {
	plans := handlers.NewPlanHandler(deps.Plans)
	api.GET("/plans", plans.ListEnabled)

	payments := handlers.NewPaymentHandler(deps.Payments, deps.Sessions)
	api.GET("/payments/methods", payments.Methods)
	api.POST("/payments", payments.Purchase)

	sessions := handlers.NewSessionHandler(deps.Sessions)
	group := api.Group("/sessions")
	{
		group.POST("", sessions.Create)
		group.GET("/:token", sessions.Get)
		group.GET("/:token/qrcode", sessions.QRCode)
		group.POST("/:token/connect", sessions.Connect)
		group.POST("/:token/disconnect", sessions.Disconnect)
		group.POST("/:token/refresh", sessions.Refresh)
	}
}
