package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"item-claim-system/config"
	"item-claim-system/handlers"
	"item-claim-system/middleware"
	"item-claim-system/models"
	"item-claim-system/services"
	"item-claim-system/utils"
	"item-claim-system/wizard"
	"item-claim-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		MaxAge:       86400, // 24 hours
	}))

	var (
		claimRepo services.ClaimRepository
		exportLog workers.ExportLog
	)

	switch cfg.ClaimStore {
	case config.StoreMemory:
		log.Println("⚠️  CLAIM_STORE=memory — claims are lost on restart")
		claimRepo = services.NewMemoryClaimRepository()
		exportLog = &workers.MemoryExportLog{}
	default:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetConnMaxIdleTime(30 * time.Second)
		}
		if err := db.AutoMigrate(&models.Claim{}, &models.ClaimExport{}); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		claimRepo = services.NewGormClaimRepository(db)
		exportLog = workers.NewGormExportLog(db)
	}

	robloxClient := services.NewRobloxClient(
		cfg.RobloxUsersURL,
		cfg.RobloxThumbnailsURL,
		cfg.RobloxPresenceURL,
		utils.NewHTTPClient(cfg.LookupTimeout),
	)
	validationService := services.NewValidationService(robloxClient)
	claimService := services.NewClaimService(claimRepo, robloxClient)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var exporter *workers.ClaimExporter
	if cfg.R2.Enabled() {
		uploader, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		exporter = workers.NewClaimExporter(claimRepo, uploader, exportLog, cfg.StoreName)
		exporter.SettleDelay = cfg.ExportSettleDelay
	} else {
		log.Println("⚠️  R2 not configured, claim export disabled")
	}

	sched, err := workers.StartScheduler(ctx, exporter, cfg.ExportInterval, limiter)
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	handlers.SetupOpsRoutes(app, claimService)
	handlers.SetupClaimRoutes(app, validationService, claimService, limiter, wizard.Options{BotUsername: cfg.BotUsername})
	handlers.SetupAdminRoutes(app, claimService, cfg.AdminAPIToken)

	// Built wizard frontend, with SPA fallback.
	if info, err := os.Stat("./public"); err == nil && info.IsDir() {
		app.Use("/", filesystem.New(filesystem.Config{
			Root:         http.Dir("./public"),
			Index:        "index.html",
			MaxAge:       3600,
			NotFoundFile: "index.html",
		}))
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
