package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"reminder-bot/config"
	"reminder-bot/routes"
	"reminder-bot/services"
	"reminder-bot/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	logger := config.NewLogger(os.Getenv("LOG_LEVEL"))

	app := &cli.App{
		Name:  "reminder-bot",
		Usage: "Text people friendly reminders for their scheduled events.",
		Commands: []*cli.Command{
			serveCommand(logger),
			runOnceCommand(logger),
			adminCredentialsCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the reminder scheduler and the ops HTTP API.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-http", Usage: "Do not start the ops HTTP API."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			service, audit, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler := services.NewScheduler(service, cfg.Schedule, cfg.Location, logger)
			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			var srv *http.Server
			if !c.Bool("no-http") {
				gin.SetMode(gin.ReleaseMode)
				router := routes.SetupRouter(routes.Dependencies{
					HTTP:      cfg.HTTP,
					Runner:    service,
					Previewer: service,
					Audit:     audit,
					Logger:    logger,
				})
				printRoutes(logger, router)

				srv = &http.Server{
					Addr:              ":" + cfg.HTTP.Port,
					Handler:           router,
					ReadHeaderTimeout: 10 * time.Second,
				}
				go func() {
					logger.Info("Ops API listening", "addr", srv.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Ops API stopped", "error", err)
						stop()
					}
				}()
			}

			<-ctx.Done()
			logger.Info("Shutting down.")

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Ops API shutdown failed", "error", err)
				}
			}
			<-scheduler.Stop().Done()
			logger.Info("Reminder scheduler stopped")
			return nil
		},
	}
}

func runOnceCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "run-once",
		Usage: "Run a single reminder pass and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			service, _, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			summary, err := service.Run(c.Context)
			if err != nil {
				return fmt.Errorf("reminder run %s failed: %w", summary.RunID, err)
			}
			logger.Info("Notifications sent and marked as sent", "run", summary.RunID, "sent", summary.Sent)
			return nil
		},
	}
}

func adminCredentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin-credentials",
		Usage: "Print ADMIN_PASSWORD_HASH and a fresh JWT_SECRET for the ops API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Usage: "Admin password to hash.", Required: true},
		},
		Action: func(c *cli.Context) error {
			hash, err := utils.HashPassword(c.String("password"))
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			secret, err := utils.GenerateJWTSecret()
			if err != nil {
				return fmt.Errorf("failed to generate JWT secret: %w", err)
			}
			fmt.Printf("ADMIN_PASSWORD_HASH=%s\nJWT_SECRET=%s\n", hash, secret)
			return nil
		},
	}
}

// buildService wires the store, composer, dispatcher and audit log.
func buildService(cfg *config.Config, logger *slog.Logger) (*services.ReminderService, services.AuditLog, error) {
	var audit services.AuditLog = services.NopAuditLog{}
	var store services.EventStore

	if cfg.DatabaseURL != "" {
		db, err := config.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		audit = services.NewGormAuditLog(db)
		if cfg.StoreBackend == config.BackendPostgres {
			store = services.NewPostgresStore(db)
		}
	}
	if store == nil {
		store = services.NewNotionStore(cfg.NotionAPIKey, cfg.NotionDatabaseID, cfg.Location, logger)
	}

	composer := services.NewOpenAIComposer(services.OpenAIConfig{
		APIKey:       cfg.OpenAIAPIKey,
		Organization: cfg.OpenAIOrganizationID,
		Project:      cfg.OpenAIProjectID,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
	}, logger)

	dispatcher := services.NewTwilioDispatcher(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)

	logger.Info("Reminder service configured",
		"store", cfg.StoreBackend,
		"audit", cfg.DatabaseURL != "",
		"timezone", cfg.Location.String(),
		"schedule", cfg.Schedule)

	return services.NewReminderService(store, composer, dispatcher, audit, cfg.Location, logger), audit, nil
}

func printRoutes(logger *slog.Logger, r *gin.Engine) {
	for _, route := range r.Routes() {
		logger.Debug("Route", "method", route.Method, "path", route.Path)
	}
}
