package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aadinath/api/middleware"
)

// Routes groups everything SetupRoutes mounts.
type Routes struct {
	Track     *TrackHandlers
	Analytics *AnalyticsHandlers
	Auth      *AuthHandlers
	// AdminAuth guards the admin group.
	AdminAuth gin.HandlerFunc
	// CaptureLimit requests per CaptureWindow per IP on /api/track; 0 disables.
	CaptureLimit  int
	CaptureWindow time.Duration
}

// SetupRoutes configures all API routes.
func SetupRoutes(r *gin.Engine, rt Routes) {
	r.GET("/health", HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public capture endpoints share one limiter per client IP.
	public := api.Group("")
	public.Use(middleware.BotFilter())
	public.Use(middleware.RateLimiter(rt.CaptureLimit, rt.CaptureWindow))
	{
		track := public.Group("/track")
		track.POST("/pageview", rt.Track.TrackPageView)
		track.POST("/scan", rt.Track.TrackScan)
		track.POST("/engagement", rt.Track.TrackEngagement)
		track.POST("/submission", rt.Track.SubmitLead)

		public.GET("/geolocation", rt.Track.Geolocation)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/login", rt.Auth.Login)
		admin.POST("/logout", rt.Auth.Logout)

		protected := admin.Group("")
		protected.Use(rt.AdminAuth)
		protected.POST("/signup", rt.Auth.Signup)

		stats := protected.Group("/analytics")
		{
			stats.GET("/metrics", rt.Analytics.GetMetrics)
			stats.GET("/trends", rt.Analytics.GetTrends)
			stats.GET("/sessions", rt.Analytics.GetSessions)
			stats.GET("/sessions/:id/journey", rt.Analytics.GetJourney)
			stats.GET("/locations", rt.Analytics.GetLocations)
			stats.GET("/pages", rt.Analytics.GetPages)
			stats.GET("/verify", rt.Analytics.GetVerify)
			stats.GET("/conversions", rt.Analytics.GetConversions)
			stats.GET("/funnel", rt.Analytics.GetFunnel)
			stats.GET("/leads", rt.Analytics.GetLeads)
			stats.GET("/leads/export", rt.Analytics.ExportLeads)
			stats.GET("/scans", rt.Analytics.GetScans)
			stats.GET("/dashboard", rt.Analytics.GetDashboard)
		}
	}
}
