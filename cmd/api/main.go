package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/caconnect/caconnect_be/internal/cache"
	"github.com/caconnect/caconnect_be/internal/config"
	"github.com/caconnect/caconnect_be/internal/db"
	"github.com/caconnect/caconnect_be/internal/handlers"
	"github.com/caconnect/caconnect_be/internal/logger"
	"github.com/caconnect/caconnect_be/internal/middleware"
	"github.com/caconnect/caconnect_be/internal/models"
	"github.com/caconnect/caconnect_be/internal/services/availability"
	"github.com/caconnect/caconnect_be/internal/services/refdata"
	"github.com/caconnect/caconnect_be/internal/services/uploads"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	appLog, err := logger.New(cfg.AppMode)
	if err != nil {
		log.Fatal(err)
	}
	defer appLog.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		appLog.Fatal("database connect failed", "error", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.State{},
		&models.District{},
		&models.Language{},
		&models.Specialization{},
	); err != nil {
		appLog.Fatal("auto-migrate failed", "error", err)
	}

	rdb := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// reference data falls back to the database when the cache is
		// unreachable
		appLog.Warn("redis unavailable, reference cache disabled", "error", err)
		rdb = nil
	}

	refSvc := refdata.NewService(gdb, rdb, appLog)
	availSvc := availability.NewService(gdb)
	uploadSvc := uploads.NewService(cfg.UploadDir, cfg.PublicBaseURL)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		Log:             appLog,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	roleH := &handlers.RoleSelectionHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	refH := &handlers.ReferenceHandler{Ref: refSvc}
	wizardH := &handlers.ProfileWizardHandler{
		DB:           gdb,
		Availability: availSvc,
		Uploads:      uploadSvc,
		Log:          appLog,
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 8 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)

	ref := api.Group("/reference")
	ref.Get("/languages", refH.GetLanguages)
	ref.Get("/specializations", refH.GetSpecializations)
	ref.Get("/states", refH.GetStates)
	ref.Get("/states/:stateId/districts", refH.GetDistricts)

	api.Get("/profiles/:state/:district/:username", wizardH.PublicProfile)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)
	protected.Post("/role", roleH.SelectRole)

	profile := protected.Group("/profile", middleware.RequireRoles("accountant"))
	profile.Get("/onboarding", wizardH.Get)
	profile.Get("/username-availability", wizardH.CheckUsername)
	profile.Post("/steps/personal-info", wizardH.SavePersonalInfo)
	profile.Post("/steps/verification", wizardH.SaveVerification)
	profile.Post("/steps/professional", wizardH.SaveProfessional)
	profile.Post("/steps/education", wizardH.SaveEducation)
	profile.Post("/avatar", wizardH.UploadAvatar)
	profile.Delete("/avatar", wizardH.DeleteAvatar)
	profile.Post("/certificate", wizardH.UploadCertificate)
	profile.Delete("/certificate", wizardH.DeleteCertificate)

	appLog.Info("listening", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
