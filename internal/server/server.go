package server

import (
	"context"
	"net/http"

	"tutorbook/internal/auth"
	"tutorbook/internal/booking"
	"tutorbook/internal/config"
	"tutorbook/internal/credit"
	"tutorbook/internal/email"
	"tutorbook/internal/schedule"
	"tutorbook/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	bookingRepo := booking.NewRepository(db)
	scheduleRepo := schedule.NewRepository(db)
	scheduleService := schedule.NewService(
		scheduleRepo,
		bookingRepo,
		bookingRepo,
		schedule.DefaultTemplate(),
		cfg.BlockCascadeCancel,
	)
	scheduleHandler := schedule.NewHandler(scheduleService)

	bookingService := booking.NewService(bookingRepo, scheduleService, userRepo, emailService)
	bookingHandler := booking.NewHandler(bookingService)

	creditHandler := credit.NewHandler(db)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/availability", scheduleHandler.GetAvailability)
		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
		protected.DELETE("/bookings/:bookingID", bookingHandler.CancelBooking)
		protected.POST("/learners", userHandler.AddLearner)
		protected.GET("/learners", userHandler.ListLearners)
		protected.GET("/credits/history", creditHandler.GetMyHistory)
	}

	adminMiddleware := auth.RequireRole(auth.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/bookings", bookingHandler.ListBookingsByDate)
		admin.PATCH("/bookings/:bookingID/status", bookingHandler.UpdateStatus)
		admin.POST("/credits/adjustments", creditHandler.Adjust)
		admin.GET("/users/:userID/credits/history", creditHandler.GetUserHistory)
		admin.POST("/blocked-dates", scheduleHandler.BlockDate)
		admin.DELETE("/blocked-dates/:date", scheduleHandler.UnblockDate)
		admin.GET("/blocked-dates", scheduleHandler.ListBlockedDates)
		admin.POST("/custom-sessions", scheduleHandler.CreateCustomSession)
		admin.DELETE("/custom-sessions/:id", scheduleHandler.DeleteCustomSession)
		admin.GET("/custom-sessions", scheduleHandler.ListCustomSessions)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
