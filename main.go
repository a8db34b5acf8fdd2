package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cup-bot/bot"
	"cup-bot/config"
	"cup-bot/handlers"
	"cup-bot/models"
	"cup-bot/services"
	"cup-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cupbot",
	Short: "Say cup, earn cups, prestige",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, warning, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = utils.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		if warning != "" {
			logger.Warn(warning)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve the HTTP API",
	RunE:  runBot,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDB(); err != nil {
			return err
		}
		logger.Info("✅ Database migrated")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload one leaderboard snapshot to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("create discord session: %w", err)
		}
		platform := bot.NewDiscordPlatform(session, cfg.GuildID)

		exporter, err := newExporter(cmd.Context(), services.NewCounterStore(db), platform)
		if err != nil {
			return err
		}
		if exporter == nil {
			return fmt.Errorf("object storage is not configured")
		}
		url, err := exporter.Export(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, migrateCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	db, err := models.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newExporter returns nil when R2 is not configured.
func newExporter(ctx context.Context, store *services.CounterStore, platform *bot.DiscordPlatform) (*services.SnapshotExporter, error) {
	if !cfg.R2().Enabled() {
		return nil, nil
	}
	uploader, err := utils.NewR2Uploader(ctx, cfg.R2())
	if err != nil {
		return nil, err
	}
	guildName, err := platform.GuildName(ctx)
	if err != nil {
		logger.Warn("⚠️ Could not fetch guild name, using guild id", zap.Error(err))
		guildName = cfg.GuildID
	}
	return &services.SnapshotExporter{
		Store:     store,
		Uploader:  uploader,
		GuildID:   cfg.GuildID,
		GuildName: guildName,
		Clock:     clockwork.NewRealClock(),
		Logger:    logger,
	}, nil
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	platform := bot.NewDiscordPlatform(session, cfg.GuildID)

	app := bot.NewApp(cfg, platform, db, clockwork.NewRealClock(), logger)
	defer app.Deletions.Stop()
	app.Attach(ctx, session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer session.Close()

	exporter, err := newExporter(ctx, app.Store, platform)
	if err != nil {
		return err
	}
	if exporter != nil && cfg.ExportInterval > 0 {
		var sched gocron.Scheduler
		sched, err = exporter.StartExportScheduler(ctx, cfg.ExportInterval)
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	if cfg.AdminToken != "" {
		api := fiber.New(fiber.Config{DisableStartupMessage: true})
		handlers.SetupProgressionRoutes(api, handlers.ProgressionDeps{
			Store:      app.Store,
			Ranks:      app.Ranks,
			Exporter:   exporter,
			AdminToken: cfg.AdminToken,
			Logger:     logger,
		})
		go func() {
			if err := api.Listen(cfg.HTTPAddr); err != nil {
				logger.Error("❌ HTTP server error", zap.Error(err))
			}
		}()
		defer func() { _ = api.Shutdown() }()
		logger.Info("✅ HTTP API listening", zap.String("addr", cfg.HTTPAddr))
	} else {
		logger.Warn("⚠️  ADMIN_TOKEN not set, HTTP API disabled")
	}

	logger.Info("✅ Cup bot running", zap.String("guild_id", cfg.GuildID))
	<-ctx.Done()
	logger.Info("Shutting down...")
	return nil
}
