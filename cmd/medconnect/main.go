package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/brianmaseno/medtech/internal/api"
	"github.com/brianmaseno/medtech/internal/flow"
	"github.com/brianmaseno/medtech/internal/genai"
	"github.com/brianmaseno/medtech/internal/messaging"
	"github.com/brianmaseno/medtech/internal/orchestrator"
	"github.com/brianmaseno/medtech/internal/reminder"
	"github.com/brianmaseno/medtech/internal/scheduler"
	"github.com/brianmaseno/medtech/internal/session"
	"github.com/brianmaseno/medtech/internal/store"
	"github.com/brianmaseno/medtech/internal/twiliosms"
	"github.com/brianmaseno/medtech/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MedConnect state data
	DefaultStateDir = "/var/lib/medconnect"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "medconnect.db"
	// SessionSweepCron evicts idle sessions every five minutes
	SessionSweepCron = "*/5 * * * *"
	// ReminderCron runs reminder sweeps hourly during the day (EAT)
	ReminderCron = "0 8-18 * * *"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping MedConnect with configured modules")
	if err := run(flags); err != nil {
		slog.Error("MedConnect failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("MedConnect exited successfully")
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Domain store: SQLite by default, Postgres when the DSN says so.
	st, err := buildStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	if util.ParseBoolEnv("SEED_SAMPLE_DOCTORS", true) {
		if err := store.SeedSampleDoctors(ctx, st); err != nil {
			slog.Warn("Failed to seed sample doctors", "error", err)
		}
	}

	// Session store: Redis when configured, process-local memory otherwise.
	sessions, err := buildSessionStore(ctx, flags)
	if err != nil {
		return err
	}
	defer sessions.Close()

	aiClient, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		return err
	}

	msgService, err := buildMessagingService()
	if err != nil {
		return err
	}
	defer msgService.Stop()

	engine := flow.NewEngine(aiClient, st, st, flow.WithAuditLog(st))
	orch := orchestrator.New(engine, sessions, st,
		orchestrator.WithNotificationGateway(msgService),
		orchestrator.WithSessionTTL(util.ParseDurationEnv("SESSION_TTL", session.DefaultTTL)),
	)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(SessionSweepCron, func() { orch.Housekeep(context.Background()) }); err != nil {
		return err
	}
	reminders := reminder.NewService(st, msgService)
	if err := sched.AddJob(ReminderCron, func() {
		if _, err := reminders.Run(context.Background()); err != nil {
			slog.Error("Reminder sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	server := api.NewServer(orch, msgService, buildAPIOptions(flags)...)
	return server.Run(ctx)
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	RedisAddr   string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	apiAddr   *string
	redisAddr *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
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
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("MEDCONNECT_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No MEDCONNECT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"MEDCONNECT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"REDIS_ADDR_SET", config.RedisAddr != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for MedConnect data (overrides $MEDCONNECT_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "database DSN for the domain store (overrides $DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		redisAddr: flag.String("redis-addr", config.RedisAddr, "Redis address for session storage (overrides $REDIS_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"redisAddr_set", *flags.redisAddr != "")

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

// buildStore constructs the domain store from the DSN.
func buildStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// buildSessionStore constructs the session backend. Redis keeps sessions
// across restarts and processes; the in-memory store suits single instances.
func buildSessionStore(ctx context.Context, flags Flags) (session.Store, error) {
	if *flags.redisAddr != "" {
		slog.Debug("Configuring Redis session store", "addr", *flags.redisAddr)
		return session.NewRedisStore(ctx,
			session.WithAddr(*flags.redisAddr),
			session.WithPassword(os.Getenv("REDIS_PASSWORD")),
			session.WithTTL(util.ParseDurationEnv("SESSION_TTL", session.DefaultTTL)),
		)
	}
	slog.Debug("No Redis address provided, using in-memory session store")
	return session.NewMemoryStore(), nil
}

// buildMessagingService constructs the outbound SMS channel. Without Twilio
// credentials it degrades to a mock so local development works offline.
func buildMessagingService() (messaging.Service, error) {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		slog.Warn("TWILIO_ACCOUNT_SID not set, outbound SMS will be recorded in memory only")
		return messaging.NewMockService(), nil
	}
	client, err := twiliosms.NewClient()
	if err != nil {
		return nil, err
	}
	return messaging.NewTwilioService(client), nil
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
