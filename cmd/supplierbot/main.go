package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yomasupply/supplierbot/internal/bot"
	"github.com/yomasupply/supplierbot/internal/catalog"
	"github.com/yomasupply/supplierbot/internal/correlation"
	"github.com/yomasupply/supplierbot/internal/messaging"
	"github.com/yomasupply/supplierbot/internal/session"
	"github.com/yomasupply/supplierbot/internal/store"
	"github.com/yomasupply/supplierbot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for supplier bot state data
	DefaultStateDir = "/var/lib/supplierbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "supplierbot.db"
	// DefaultWorksheet is the sheet tab holding the product rows
	DefaultWorksheet = "Products"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	if *flags.botToken == "" {
		slog.Error("No Telegram bot token configured, set TELEGRAM_BOT_TOKEN")
		os.Exit(1)
	}
	if *flags.spreadsheetID == "" {
		slog.Error("No spreadsheet configured, set SHEET_SPREADSHEET_ID")
		os.Exit(1)
	}

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping supplier bot with configured modules")
	slog.Debug("Final configuration",
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"worksheet", *flags.worksheet,
		"operator_chat_set", *flags.operatorChatID != 0)

	if err := run(flags); err != nil {
		slog.Error("Supplier bot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Supplier bot exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken       string
	OperatorChatID int64
	OperatorUser   string
	SpreadsheetID  string
	Worksheet      string
	StateDir       string
	DatabaseDSN    string
}

// Flags holds command line flag values
type Flags struct {
	botToken       *string
	operatorChatID *int64
	operatorUser   *string
	spreadsheetID  *string
	worksheet      *string
	stateDir       *string
	dbDSN          *string
}

// initializeLogger sets up structured logging at the level named by $LOG_LEVEL.
func initializeLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		OperatorChatID: util.ParseInt64Env("OPERATOR_CHAT_ID", 0),
		OperatorUser:   os.Getenv("OPERATOR_USERNAME"),
		SpreadsheetID:  os.Getenv("SHEET_SPREADSHEET_ID"),
		Worksheet:      util.GetEnvWithDefault("SHEET_WORKSHEET", DefaultWorksheet),
		StateDir:       util.GetEnvWithDefault("SUPPLIERBOT_STATE_DIR", DefaultStateDir),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
	}

	// If no database DSN is provided, default to SQLite in the state directory
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.BotToken != "",
		"OPERATOR_CHAT_ID_SET", config.OperatorChatID != 0,
		"OPERATOR_USERNAME", config.OperatorUser,
		"SHEET_SPREADSHEET_ID_SET", config.SpreadsheetID != "",
		"SHEET_WORKSHEET", config.Worksheet,
		"SUPPLIERBOT_STATE_DIR", config.StateDir,
		"DATABASE_DSN_SET", config.DatabaseDSN != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken:       flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		operatorChatID: flag.Int64("operator-chat-id", config.OperatorChatID, "operator chat id orders are forwarded to (overrides $OPERATOR_CHAT_ID)"),
		operatorUser:   flag.String("operator-username", config.OperatorUser, "operator username shown in contact instructions (overrides $OPERATOR_USERNAME)"),
		spreadsheetID:  flag.String("spreadsheet-id", config.SpreadsheetID, "Google Sheets spreadsheet id for the catalog (overrides $SHEET_SPREADSHEET_ID)"),
		worksheet:      flag.String("worksheet", config.Worksheet, "worksheet tab holding product rows (overrides $SHEET_WORKSHEET)"),
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for supplier bot data (overrides $SUPPLIERBOT_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseDSN, "database DSN for the profile store (overrides $DATABASE_DSN)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"botToken_set", *flags.botToken != "",
		"operatorChatID_set", *flags.operatorChatID != 0,
		"operatorUser", *flags.operatorUser,
		"spreadsheetID_set", *flags.spreadsheetID != "",
		"worksheet", *flags.worksheet,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "")

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseDSN && config.DatabaseDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

// buildProfileStore selects the store backend from the DSN.
func buildProfileStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Using Postgres profile store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Info("Using SQLite profile store", "path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// run wires the modules together and blocks until shutdown.
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, err := buildProfileStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiles.Close(); err != nil {
			slog.Error("Failed to close profile store", "error", err)
		}
	}()

	source := catalog.NewSheetsSource(*flags.spreadsheetID, *flags.worksheet)
	cache := catalog.NewCache(source)

	svc, err := messaging.NewTelegramService(messaging.WithToken(*flags.botToken))
	if err != nil {
		return err
	}

	orch := bot.NewOrchestrator(svc, cache, session.NewStore(), correlation.NewStore(), profiles, bot.Config{
		OperatorChatID:   *flags.operatorChatID,
		OperatorUsername: *flags.operatorUser,
	})
	dispatcher := bot.NewDispatcher(orch, svc.Events())

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			slog.Error("Failed to stop message service", "error", err)
		}
	}()

	slog.Info("Supplier bot running", "worksheet", *flags.worksheet)
	dispatcher.Run(ctx)
	return nil
}
