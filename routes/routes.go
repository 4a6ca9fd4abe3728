package routes

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"agency-backend/controllers"
	"agency-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// parseTrustedProxies reads the comma-separated TRUSTED_PROXIES list. Empty
// means no proxy is trusted and ClientIP falls back to the socket address.
func parseTrustedProxies() []string {
	raw := strings.TrimSpace(os.Getenv("TRUSTED_PROXIES"))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	proxies := make([]string, 0, len(parts))
	for _, part := range parts {
		proxy := strings.TrimSpace(part)
		if proxy != "" {
			proxies = append(proxies, proxy)
		}
	}
	return proxies
}

// SetupRouter wires the controller instances onto the route table.
func SetupRouter(
	cc *controllers.ConsultationController,
	wc *controllers.WebhookController,
) *gin.Engine {
	r := gin.New()

	// Without this gin trusts every proxy, letting callers spoof their
	// source IP through X-Forwarded-For. The webhook allow-list depends on
	// ClientIP being real, so only TRUSTED_PROXIES entries are honored.
	if err := r.SetTrustedProxies(parseTrustedProxies()); err != nil {
		log.Printf("warning: invalid TRUSTED_PROXIES value: %v", err)
	}

	r.Use(middleware.Logger(), gin.Recovery())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// Consultation booking + payment flow
		api.POST("/consultation", cc.CreateConsultationBooking)
		api.GET("/verify-transaction", cc.VerifyTransaction)
		api.GET("/get-consultation", cc.GetConsultationBookings)
		api.GET("/available-slots", cc.GetAvailableSlots)

		// route name kept for compatibility with the admin dashboard
		api.POST("/consultation-prepard", cc.ConsultationPrepared)
		api.PUT("/consultation-reschedule", cc.RescheduleConsultation)

		// Gateway callback
		api.POST("/webhook", wc.HandlePaystackWebhook)

		// Website settings
		api.GET("/websettings", controllers.GetWebsiteSettings)
		api.PUT("/update-field", controllers.UpdateWebsiteSettings)
	}

	return r
}
