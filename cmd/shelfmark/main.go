package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/db"
	"github.com/shelfmark/shelfmark/internal/filestore"
	"github.com/shelfmark/shelfmark/internal/handler"
	"github.com/shelfmark/shelfmark/internal/job"
	"github.com/shelfmark/shelfmark/internal/middleware"
	"github.com/shelfmark/shelfmark/internal/pkg/logutil"
	"github.com/shelfmark/shelfmark/internal/repo"
	"github.com/shelfmark/shelfmark/internal/schedule"
	"github.com/shelfmark/shelfmark/internal/search"
	"github.com/shelfmark/shelfmark/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "shelfmark",
		Short: "shelfmark backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run shelfmark server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := logutil.Init(cfg.Log); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logger := logutil.GetLogger(context.Background())
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	bookmarkRepo := repo.NewBookmarkRepo(conn)
	tagRepo := repo.NewTagRepo(conn)
	listRepo := repo.NewListRepo(conn)
	listBookmarkRepo := repo.NewListBookmarkRepo(conn)
	collaboratorRepo := repo.NewCollaboratorRepo(conn)
	invitationRepo := repo.NewInvitationRepo(conn)
	highlightRepo := repo.NewHighlightRepo(conn)
	importRepo := repo.NewImportRepo(conn)
	backupRepo := repo.NewBackupRepo(conn)
	searchRepo := repo.NewSearchRepo(conn)

	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	evaluator := search.NewEvaluator(searchRepo, search.NewJSONQueryParser())
	mailSender := service.NewEmailSender(cfg.Mail)
	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), jwtTTL)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, tagRepo, evaluator)
	listService := service.NewListService(listRepo, listBookmarkRepo, collaboratorRepo, bookmarkRepo, userRepo, evaluator)
	invitationService := service.NewInvitationService(invitationRepo, collaboratorRepo, listRepo, userRepo, mailSender)
	highlightService := service.NewHighlightService(highlightRepo, bookmarkRepo)
	importService := service.NewImportService(importRepo, bookmarkRepo, listRepo)
	backupService := service.NewBackupService(backupRepo, bookmarkRepo, tagRepo, listRepo, highlightRepo, blobs)
	exportService := service.NewExportService(bookmarkRepo, tagRepo, highlightRepo)

	deps := handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authService),
		Bookmarks:   handler.NewBookmarkHandler(bookmarkService),
		Lists:       handler.NewListHandler(listService),
		Invitations: handler.NewInvitationHandler(invitationService, listService),
		Highlights:  handler.NewHighlightHandler(highlightService),
		Imports:     handler.NewImportHandler(importService),
		Backups:     handler.NewBackupHandler(backupService),
		Export:      handler.NewExportHandler(exportService),
		JWTSecret:   []byte(cfg.JWTSecret),
		RateLimit: middleware.RateLimitConfig{
			Enabled: cfg.RateLimit.Enabled,
			Window:  time.Duration(cfg.RateLimit.WindowMS) * time.Millisecond,
			Max:     cfg.RateLimit.Max,
		},
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(nil))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	handler.RegisterRoutes(engine.Group("/api/v1"), deps)

	scheduler := schedule.NewCronScheduler()
	if cfg.Jobs.BackupPruneSpec != "" {
		if err := scheduler.AddJob(job.NewBackupPruneJob(backupService, cfg.Jobs.BackupMaxAgeDays), cfg.Jobs.BackupPruneSpec); err != nil {
			return err
		}
	}
	if cfg.Jobs.ImportCleanupSpec != "" {
		importMaxAge := time.Duration(cfg.Jobs.ImportMaxAgeHours) * time.Hour
		if err := scheduler.AddJob(job.NewImportCleanupJob(importService, importMaxAge), cfg.Jobs.ImportCleanupSpec); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: engine}
	logger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
