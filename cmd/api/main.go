package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/database"
	"github.com/clipix/backend/internal/handlers"
	"github.com/clipix/backend/internal/middleware"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/openpix"
	"github.com/clipix/backend/internal/resolver"
	"github.com/clipix/backend/internal/services"
	"github.com/clipix/backend/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("APP_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()

	db, rdb, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db, rdb)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	st := store.NewGorm(db)

	pixClient := openpix.NewClient(cfg.OpenPixBaseURL, cfg.OpenPixAppID)
	resolverClient := resolver.NewClient(cfg.ResolverAPIURL, cfg.ResolverAPIToken)

	downloadService := services.NewDownloadService(st, resolverClient, cfg)
	paymentService := services.NewPaymentService(st, pixClient, cfg)

	expiryService := services.NewSubscriptionExpiryService(paymentService, 60)
	expiryService.Start()

	app := fiber.New(fiber.Config{
		AppName:   "Clipix API v1.0",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*apperror.Error); ok {
				return c.Status(e.Status).JSON(fiber.Map{
					"success": false,
					"message": e.Message,
				})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"success": false,
					"message": e.Message,
				})
			}
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Erro interno do servidor",
			})
		},
	})

	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "clipix-api",
		})
	})

	authHandler := handlers.NewAuthHandler(st, cfg)
	userHandler := handlers.NewUserHandler(st, cfg)
	downloadHandler := handlers.NewDownloadHandler(downloadService)
	subscriptionHandler := handlers.NewSubscriptionHandler(st, paymentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, st)

	api := app.Group("/api")
	api.Use(middleware.RateLimiter(rdb, "api", 100, 15*time.Minute))

	// Auth routes. Login and register carry a tighter limit against
	// credential stuffing.
	auth := api.Group("/auth")
	authLimiter := middleware.RateLimiter(rdb, "auth", 5, 15*time.Minute)
	auth.Post("/register", authLimiter, authHandler.Register)
	auth.Post("/login", authLimiter, authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)

	// Provider callbacks are server-to-server, no cookie auth.
	api.Post("/payments/webhook", paymentHandler.Webhook)

	protected := api.Group("", middleware.AuthRequired(cfg))

	user := protected.Group("/user")
	user.Get("/profile", userHandler.Profile)
	user.Put("/profile", userHandler.UpdateProfile)
	user.Put("/password", userHandler.ChangePassword)
	user.Delete("/account", userHandler.DeleteAccount)

	downloads := protected.Group("/downloads")
	downloads.Post("/", middleware.RateLimiter(rdb, "downloads-create", 10, 1*time.Minute), downloadHandler.Create)
	downloads.Get("/", downloadHandler.List)
	downloads.Get("/stats", downloadHandler.Stats)
	downloads.Get("/:id", downloadHandler.Get)
	downloads.Get("/:id/file", downloadHandler.File)
	downloads.Delete("/:id", downloadHandler.Delete)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.Get("/", subscriptionHandler.Current)
	subscriptions.Get("/plans", subscriptionHandler.Plans)
	subscriptions.Post("/upgrade", subscriptionHandler.Upgrade)
	subscriptions.Post("/cancel", subscriptionHandler.Cancel)
	subscriptions.Get("/history", subscriptionHandler.History)

	payments := protected.Group("/payments")
	payments.Post("/create", paymentHandler.Create)
	payments.Post("/subscription/create", paymentHandler.CreateSubscription)
	payments.Post("/subscription/cancel", paymentHandler.CancelSubscription)
	payments.Get("/subscription/active", paymentHandler.ActiveSubscription)
	payments.Get("/upcoming-invoices",
		middleware.RequirePremiumPlan(st),
		middleware.RequireActiveSubscription(st),
		paymentHandler.UpcomingInvoices)
	payments.Get("/", paymentHandler.List)
	payments.Get("/:id", paymentHandler.Get)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		expiryService.Stop()
		app.Shutdown()
	}()

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Info().Str("addr", addr).Msg("starting clipix api server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
