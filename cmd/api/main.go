package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/middleware"
	"venuebook/internal/modules/availability"
	"venuebook/internal/modules/booking"
	"venuebook/internal/modules/event"
	"venuebook/internal/modules/inventory"
	"venuebook/internal/modules/payment"
	"venuebook/internal/modules/reaper"
	"venuebook/internal/notification"
	"venuebook/internal/pkg/clock"
	jwtsvc "venuebook/internal/pkg/jwt"
	"venuebook/internal/pkg/lock"
	"venuebook/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadEngineRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}

	venueRepo := repository.NewVenueRepository(db)
	eventRepo := repository.NewEventRepository(db)
	packageRepo := repository.NewTicketPackageRepository(db)
	windowRepo := repository.NewAvailabilityWindowRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	clk := clock.NewSystem()

	var locks lock.Provider
	switch cfg.LockBackend {
	case "redis":
		locks = lock.NewRedisProvider(goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr}))
	default:
		locks = lock.NewKeyedMutex()
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	gateway := payment.NewGatewayFromEnv()
	notifs := notification.NewLogDispatcher()

	availabilitySvc := availability.NewService(windowRepo, venueRepo, clk)
	availabilityHandler := availability.NewHandler(availabilitySvc)

	inventorySvc := inventory.NewService(packageRepo, locks, clk)

	bookingSvc := booking.NewService(
		bookingRepo, eventRepo, windowRepo, inventorySvc,
		gateway, notifs, clk, cfg.Currency, cfg.GatewayTimeout,
	)
	bookingHandler := booking.NewHandler(bookingSvc)

	eventSvc := event.NewService(eventRepo, availabilitySvc, clk)
	eventHandler := event.NewHandler(eventSvc)

	paymentHandler := payment.NewHandler(bookingSvc, cfg.PaymentSecret, log.Printf)

	rp := reaper.New(bookingRepo, bookingSvc, clk, reaper.Config{
		SweepInterval:      cfg.SweepInterval,
		ReservationTimeout: cfg.ReservationTimeout,
		BatchSize:          cfg.ReaperBatchSize,
	})
	rp.Schedule(context.Background())
	defer rp.Stop()

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		availabilityHandler.RegisterPublicRoutes(v1)
		eventHandler.RegisterPublicRoutes(v1)
		paymentHandler.RegisterPublicRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(authMiddleware(j))
		{
			bookingHandler.RegisterRoutes(protected)
		}

		// admin
		admin := v1.Group("/admin")
		admin.Use(authMiddleware(j), middleware.AdminOnly())
		{
			eventHandler.RegisterAdminRoutes(admin)
			bookingHandler.RegisterAdminRoutes(admin)
		}
	}

	addr := ":" + envOrDefault("PORT", "8080")
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func authMiddleware(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing Authorization header",
				},
			})
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid Authorization header",
				},
			})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Empty token",
				},
			})
			return
		}

		claims, err := jwt.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid token",
				},
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}
