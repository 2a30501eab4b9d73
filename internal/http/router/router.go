package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/config"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/middleware"
)

// Handlers - набор хэндлеров, которые собирает main.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Listings      *handlers.ListingHandler
	Media         *handlers.MediaHandler
	Reports       *handlers.ReportHandler
	Admin         *handlers.AdminHandler
	Conversations *handlers.ConversationHandler
	Notifications *handlers.NotificationHandler
	Profile       *handlers.ProfileHandler
	Activity      *handlers.ActivityHandler
	Health        *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.AccessTokenParser) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if cfg.MetricsEnabled {
		r.Use(middleware.MetricsMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")
	authRequired := middleware.AuthMiddleware(tokens)
	validID := middleware.UUIDValidator("id")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/verify", authRequired, h.Auth.Verify)
		authGroup.POST("/verify/resend", authRequired, h.Auth.ResendVerification)
		authGroup.POST("/logout", authRequired, h.Auth.Logout)

		authGroup.POST("/password/forgot", h.Auth.ForgotPassword)
		authGroup.POST("/password/resend", h.Auth.ForgotPassword)
		authGroup.POST("/password/verify", h.Auth.VerifyPasswordReset)
		authGroup.POST("/password/reset", h.Auth.ResetPassword)

		authGroup.POST("/email/change", authRequired, h.Auth.RequestEmailChange)
		authGroup.POST("/email/verify-identity", authRequired, h.Auth.VerifyEmailChangeIdentity)
		authGroup.POST("/email/new", authRequired, h.Auth.SubmitNewEmail)
		authGroup.POST("/email/confirm", authRequired, h.Auth.ConfirmNewEmail)
	}

	// Публичные маршруты; токен необязателен, но если есть, даёт подсказки и журнал.
	public := api.Group("/")
	public.Use(middleware.OptionalAuth(tokens))
	{
		public.GET("/listings", h.Listings.Index)
		public.GET("/listings/warehouse", h.Listings.Warehouse)
		public.GET("/listings/:id", validID, h.Listings.Get)
		public.GET("/listings/:id/time-remaining", validID, h.Listings.TimeRemaining)
		public.GET("/listings/:id/poster", validID, h.Listings.Poster)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(authRequired)
	{
		protected.POST("/listings/lost", h.Listings.CreateLost)
		protected.POST("/listings/found", h.Listings.CreateFound)
		protected.PUT("/listings/:id", validID, h.Listings.Update)
		protected.DELETE("/listings/:id", validID, h.Listings.Delete)
		protected.POST("/listings/:id/mark-found", validID, h.Listings.MarkFound)
		protected.POST("/listings/:id/undo", validID, h.Listings.Undo)
		protected.GET("/listings/:id/contact", validID, h.Listings.Contact)
		protected.POST("/listings/:id/claim", validID, h.Listings.Claim)
		protected.POST("/listings/:id/recovered", validID, h.Listings.Recovered)
		protected.POST("/listings/:id/conversation", validID, h.Conversations.StartFromListing)

		protected.POST("/media/photos", h.Media.UploadPhoto)

		protected.POST("/reports", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), h.Reports.CreateReport)
		protected.GET("/reports/my", h.Reports.MyReports)
		protected.GET("/moderation/status", h.Reports.ModerationStatus)
		protected.GET("/chat/status", h.Reports.ChatStatus)

		protected.GET("/conversations", h.Conversations.List)
		protected.POST("/conversations", h.Conversations.Start)
		protected.GET("/conversations/:id/messages", validID, h.Conversations.Messages)
		protected.POST("/conversations/:id/messages", validID,
			middleware.RateLimitMiddleware(messageRateLimit(cfg.RateLimitLimit), cfg.RateLimitPeriod),
			h.Conversations.Send)

		protected.GET("/notifications", h.Notifications.ListNotifications)
		protected.PUT("/notifications/read-all", h.Notifications.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", validID, h.Notifications.MarkAsRead)

		protected.GET("/profile", h.Profile.GetMe)
		protected.PUT("/profile", h.Auth.RequestProfileUpdate)
		protected.POST("/profile/verify", h.Auth.ConfirmProfileUpdate)
		protected.GET("/activity", h.Activity.List)
		protected.GET("/activity/export", h.Activity.Export)
	}

	admin := api.Group("/admin")
	admin.Use(authRequired, middleware.RequireAdmin())
	{
		admin.GET("/reports", h.Admin.ListReports)
		admin.PUT("/reports/:id", validID, h.Admin.ReviewReport)
		admin.POST("/suspensions", h.Admin.IssueSuspension)
		admin.DELETE("/suspensions/:id", validID, h.Admin.LiftSuspension)
	}

	return r
}

// messageRateLimit - чат допускает больше запросов, чем формы.
func messageRateLimit(base int64) int64 {
	return base * 6
}
