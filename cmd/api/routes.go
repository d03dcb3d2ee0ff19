package main

import (
	"net/http"

	"phone-availability/internal/auth"
	"phone-availability/internal/config"
	"phone-availability/internal/httpapi"
	"phone-availability/internal/rbac"
	"phone-availability/internal/telephony"
	"phone-availability/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	Handlers httpapi.Handlers
	Metrics  *metrics.Metrics

	// Auth is nil when the record read API is disabled.
	Auth *auth.Manager
	// Webhooks is nil when no public webhook base URL is configured.
	Webhooks *telephony.TwilioWebhookHandler
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", d.Handlers.Ready)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	r.POST("/check-number", d.Handlers.CheckNumber)
	r.POST("/api/check-number", d.Handlers.CheckNumber)

	// Provider webhooks, signature-validated.
	if d.Webhooks != nil {
		r.POST(config.StatusCallbackPath, d.Webhooks.HandleStatusCallback)
		r.POST(config.InboundVoicePath, d.Webhooks.HandleInboundCall)
	}

	// Operator record read API.
	if d.Auth != nil {
		records := r.Group("/checks")
		records.Use(auth.RequireAccessToken(d.Auth))
		records.Use(rbac.RequireAnyRole(rbac.RoleViewer))
		{
			records.GET("", d.Handlers.FindCheck)
			records.GET("/:id", d.Handlers.GetCheck)
		}
	}
}
