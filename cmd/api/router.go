package api

import (
	"net/http"

	alertDelivery "alertsphere/internal/alert/delivery"
	chatDelivery "alertsphere/internal/chat/delivery"
	subscriberDelivery "alertsphere/internal/subscriber/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes groups the handlers the relay server mounts.
type Routes struct {
	JWTSecret   string
	Subscribers *subscriberDelivery.SubscriberHandler
	Chat        *chatDelivery.ChatHandler
	// Broadcasts is nil when Firebase is not configured.
	Broadcasts *alertDelivery.BroadcastHandler
	Settings   *RuntimeSettings
}

func SetupRoutes(r *gin.Engine, routes Routes) {
	owner := subscriberDelivery.OwnerMiddleware(routes.JWTSecret)
	operator := subscriberDelivery.OperatorMiddleware(routes.JWTSecret)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Device token registration (owner optional)
	r.POST("/register-token", owner, routes.Subscribers.RegisterToken)
	r.DELETE("/register-token/*token", owner, routes.Subscribers.UnregisterToken)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/chat", routes.Chat.Chat)

		if routes.Broadcasts != nil {
			api.POST("/broadcasts", operator, routes.Broadcasts.Publish)
		} else {
			api.POST("/broadcasts", operator, func(c *gin.Context) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "broadcasts are not configured"})
			})
		}

		// Runtime configuration, operators only
		settings := api.Group("/settings", operator)
		{
			settings.GET("/ollama", routes.Settings.GetOllamaSettings)
			settings.PUT("/ollama", routes.Settings.UpdateOllamaSettings)
			settings.POST("/ollama/test", routes.Settings.TestOllamaConnection)
		}
	}
}
