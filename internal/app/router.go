// internal/app/router.go
package app

import (
	"net/http"

	betslipHandler "tipster-service/internal/handlers/betslip"
	subscriptionHandler "tipster-service/internal/handlers/subscription"
	wsHandler "tipster-service/internal/handlers/websocket"
	"tipster-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	BetslipHandler      *betslipHandler.BetslipHandler
	WSHandler           *wsHandler.WebSocketHandler
	AuthMiddleware      *middleware.AuthMiddleware
	// RateLimit is applied after authentication; nil disables it.
	RateLimit gin.HandlerFunc
	Metrics   http.Handler
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	authed := []gin.HandlerFunc{h.AuthMiddleware.Auth()}
	admin := h.AuthMiddleware.AdminOnly()
	if h.RateLimit != nil {
		authed = append(authed, h.RateLimit)
		admin = append(admin, h.RateLimit)
	}

	// ==================== Packages ====================
	packages := api.Group("/packages")
	packages.Use(authed...)
	{
		packages.GET("", h.SubscriptionHandler.ListPackages)
	}

	// ==================== Subscriptions ====================
	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(authed...)
	{
		subscriptions.POST("", h.SubscriptionHandler.CreateSubscription)
		subscriptions.GET("/:id", h.SubscriptionHandler.GetSubscription)
		subscriptions.POST("/:id/payments", h.SubscriptionHandler.SubmitPayment)
	}

	// ==================== Betslips ====================
	betslips := api.Group("/betslips")
	betslips.Use(authed...)
	{
		betslips.GET("/:id", h.BetslipHandler.GetBetslip)
	}

	// ==================== Admin ====================
	adminGroup := api.Group("/admin")
	adminGroup.Use(admin...)
	{
		subs := adminGroup.Group("/subscriptions")
		subs.POST("/sweep", h.SubscriptionHandler.Sweep)
		subs.POST("/:id/approve", h.SubscriptionHandler.Approve)
		subs.POST("/:id/reject", h.SubscriptionHandler.Reject)
		subs.POST("/:id/expire", h.SubscriptionHandler.Expire)
		subs.PUT("/:id/notes", h.SubscriptionHandler.UpdateNotes)
		subs.GET("/:id/events", h.SubscriptionHandler.History)

		slips := adminGroup.Group("/betslips")
		slips.POST("", h.BetslipHandler.CreateBetslip)
		slips.POST("/bulk-settle", h.BetslipHandler.BulkSettle)
		slips.POST("/legs/:legId/settle", h.BetslipHandler.SettleLeg)
		slips.POST("/:id/legs", h.BetslipHandler.AddLeg)
		slips.POST("/:id/settle", h.BetslipHandler.Settle)

		adminGroup.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
