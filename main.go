package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trophy-award-system/handlers"
	"trophy-award-system/middleware"
	"trophy-award-system/models"
	"trophy-award-system/services"
	"trophy-award-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Participant{},
		&models.ActivityRecord{},
		&models.TrophyDefinition{},
		&models.AwardRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	activityService := services.NewActivityService(db)
	participantService := services.NewParticipantService(db)
	catalogService := services.NewCatalogService(db)
	ledger := services.NewAwardLedger(db)
	awardingService := services.NewAwardingService(activityService, participantService, catalogService, ledger)

	if err := catalogService.EnsureSeedDefinitions(); err != nil {
		log.Fatal("failed to seed trophy catalog:", err)
	}

	// --- CONFIGURE profile service details for the participant mirror ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("TROPHY_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("TROPHY_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewParticipantSyncWorker(db, profileServiceURL, "/api/v1/public/participants", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Participant Sync Worker...")
		syncWorker.Start(ctx)
	}()

	awardingService.StartSweepScheduler()

	// ✅ Setup routes — enforced Gateway auth, user context on secured groups
	handlers.SetupActivityRoutes(app, activityService)
	handlers.SetupTrophyRoutes(app, awardingService, catalogService, participantService, ledger)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Participant Sync Worker running")
	log.Println("✅ Automatic sweep scheduler running")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
