package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"

	"github.com/allears/helpdesk/internal/feat/helpdesk"
	"github.com/allears/helpdesk/internal/web"
	"github.com/allears/helpdesk/pkg/hd/app"
	"github.com/allears/helpdesk/pkg/hd/config"
	"github.com/allears/helpdesk/pkg/hd/database"
	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/allears/helpdesk/pkg/hd/mail"
	"github.com/allears/helpdesk/pkg/hd/middleware"
	"github.com/allears/helpdesk/pkg/hd/s3store"
)

//go:embed assets/migrations/sqlite/*.sql
var migrationsFS embed.FS

//go:embed assets/templates/*.html assets/templates/*/*.html
var templatesFS embed.FS

//go:embed assets/static
var staticFS embed.FS

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML configuration file")
	pflag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("error", "text").Errorf("Cannot load configuration: %v", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.LogFormat())

	log.Infof("Starting helpdesk [%s mode]", cfg.Env)
	log.Infof("Database: %s", cfg.Database.Path)

	db := database.New(migrationsFS, cfg, log)
	db.SetMigrationPath("assets/migrations/sqlite")

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		log.Errorf("Cannot set up notifications: %v", err)
		os.Exit(1)
	}

	var opts []helpdesk.Option
	if cfg.Storage.S3Bucket != "" {
		store, err := s3store.New(ctx, cfg.Storage.S3Region, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
		if err != nil {
			log.Errorf("Cannot set up attachment archive: %v", err)
			os.Exit(1)
		}
		opts = append(opts, helpdesk.WithArchiver(store))
		log.Infof("Archiving attachments to s3://%s/%s", cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
	}

	helpdeskService := helpdesk.NewService(db, helpdesk.DefaultTable(), notifier, cfg, log, opts...)
	helpdeskHandler := helpdesk.NewHandler(helpdeskService, templatesFS, cfg, log)

	router := chi.NewRouter()
	middleware.DefaultStack(router, cfg.Log.Level, cfg.Server.Timeout(), cfg.Server.TrustedProxies)

	fileServer := web.NewFileServer(staticFS, log)

	lc := app.Setup(log, db, helpdeskService, helpdeskHandler, fileServer)
	if err := lc.Start(ctx, router); err != nil {
		log.Errorf("Startup failed: %v", err)
		os.Exit(1)
	}

	srv := app.NewServer(cfg.Server.Addr, router)
	go func() {
		if err := app.Serve(srv); err != nil {
			log.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	}()
	log.Infof("Server listening on %s", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lc.Shutdown(srv)
	log.Info("Server stopped")
}

func newNotifier(cfg *config.Config, log logger.Logger) (helpdesk.Notifier, error) {
	if cfg.Mail.Enabled() {
		log.Infof("Sending notifications to %s via %s", cfg.Mail.To, cfg.Mail.Provider)
		return helpdesk.NewMailNotifier(mail.NewClient(cfg.Mail.APIKey), templatesFS, cfg, log)
	}
	log.Warn("Mail not configured, notifications will only be logged")
	return helpdesk.NewLogNotifier(templatesFS, cfg, log)
}
