package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"voyage-backend/internal/auth"
	"voyage-backend/internal/cache"
	"voyage-backend/internal/config"
	"voyage-backend/internal/database"
	"voyage-backend/internal/db"
	"voyage-backend/internal/handlers"
	"voyage-backend/internal/health"
	h "voyage-backend/internal/http"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/middleware"
	"voyage-backend/internal/repositories"
	"voyage-backend/internal/services"
	"voyage-backend/internal/storage"
	"voyage-backend/internal/timeutil"
	"voyage-backend/migrations"
	"voyage-backend/pkg/utils"
)

// runMigrations executes one -migrate action against the embedded scripts
func runMigrations(ctx context.Context, pool *pgxpool.Pool, action string, steps int) error {
	migrator := database.NewMigrator(pool, migrations.FS)

	switch action {
	case "up":
		n, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("applied", n).Msg("migrations up")
	case "down":
		n, err := migrator.Down(ctx, steps)
		if err != nil {
			return err
		}
		log.Info().Int("reverted", n).Msg("migrations down")
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pending"
			if s.AppliedAt != nil {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s  %-40s %s\n", s.Version, s.Name, applied)
		}
	default:
		return fmt.Errorf("unknown -migrate action %q (up, down, status)", action)
	}
	return nil
}

func main() {
	migrate := flag.String("migrate", "", "Run migrations and exit: up, down or status")
	steps := flag.Int("steps", 1, "Number of migrations to revert with -migrate=down")
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	if err := timeutil.SetLocation(cfg.Business.Timezone); err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Business.Timezone).Msg("invalid business timezone")
	}
	utils.ExposeErrors = cfg.IsDevelopment()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer pool.Close()

	if *migrate != "" {
		if err := runMigrations(ctx, pool, *migrate, *steps); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		return
	}

	// Schema is brought up to date on every start
	migrateCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	err = runMigrations(migrateCtx, pool, "up", 0)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Redis is optional: without it logout cannot revoke tokens
	var tokenCache *cache.Store
	var cacheProbe health.CacheProbe
	if cfg.Redis.Enabled {
		tokenCache, err = cache.Connect(cfg)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, token revocation disabled")
		} else {
			cacheProbe = tokenCache
			defer tokenCache.Close()
		}
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("document storage unavailable")
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	permissionRepo := repositories.NewPagePermissionRepository(pool)
	clientRepo := repositories.NewClientRepository(pool)
	dossierRepo := repositories.NewDossierVoyageRepository(pool)
	paiementRepo := repositories.NewPaiementRepository(pool)
	factureRepo := repositories.NewFactureRepository(pool)
	loginLogRepo := repositories.NewLoginLogRepository(pool)

	// Initialize services
	permissionService := services.NewPermissionService(permissionRepo, userRepo)
	userService := services.NewUserService(userRepo, permissionService, jwtManager)
	clientService := services.NewClientService(clientRepo)
	dossierService := services.NewDossierVoyageService(dossierRepo, clientRepo)
	factureService := services.NewFactureService(factureRepo, cfg.Business.DefaultTauxTVA)
	paiementService := services.NewPaiementService(paiementRepo, factureService)
	documentService := services.NewDocumentService(store, clientRepo, dossierRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokenCache, loginLogRepo)
	userHandler := handlers.NewUserHandler(userService)
	permissionHandler := handlers.NewPermissionHandler(permissionService)
	clientHandler := handlers.NewClientHandler(clientService, documentService)
	dossierHandler := handlers.NewDossierVoyageHandler(dossierService, documentService)
	paiementHandler := handlers.NewPaiementHandler(paiementService)
	factureHandler := handlers.NewFactureHandler(factureService, cfg.Business.Agence)
	documentHandler := handlers.NewDocumentHandler(documentService)
	loginLogHandler := handlers.NewLoginLogHandler(loginLogRepo)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool, cacheProbe, cfg.Upload.Dir))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo, permissionService, tokenCache)

	router := h.NewRouter(
		authHandler,
		userHandler,
		permissionHandler,
		clientHandler,
		dossierHandler,
		paiementHandler,
		factureHandler,
		documentHandler,
		loginLogHandler,
		healthHandler,
		authMiddleware,
		h.UploadLimits{MaxFiles: cfg.Upload.MaxFiles, MaxFileSize: cfg.Upload.MaxFileSize},
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.RequestLogger(log.Logger)(middleware.PanicRecovery(corsMiddleware(router)))

	go db.ReportPoolStats(ctx, pool, 15*time.Second)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
