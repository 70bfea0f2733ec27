package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AthenaAdvising/AthenaPipe/internal/api"
	"github.com/AthenaAdvising/AthenaPipe/internal/flow"
	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/store"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for AthenaPipe state data
	DefaultStateDir = "/var/lib/athenapipe"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "athenapipe.db"
	// DefaultMentorIndexFileName is the default mentor roster filename
	DefaultMentorIndexFileName = "mentors.json"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := os.MkdirAll(*flags.stateDir, 0o755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", *flags.stateDir)
		os.Exit(1)
	}

	st, err := store.NewStore(buildStoreOptions(flags)...)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	genAIClient, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		slog.Error("Failed to initialize GenAI client", "error", err)
		os.Exit(1)
	}

	roster, err := flow.LoadRoster(mentorIndexPath(flags))
	if err != nil {
		// The advisor still works without a roster; mentor matching just
		// never fires.
		slog.Warn("Mentor index unavailable, mentor matching disabled", "error", err)
		roster = nil
	}

	router := flow.NewRouter(st, genAIClient, roster)
	server := api.NewServer(router, st, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping AthenaPipe", "api_addr", *flags.apiAddr, "state_dir", *flags.stateDir, "mentors", len(roster))
	if err := server.Run(ctx); err != nil {
		slog.Error("AthenaPipe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("AthenaPipe exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	MentorIndex string
	CORSOrigin  string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	openaiKey   *string
	apiAddr     *string
	mentorIndex *string
	corsOrigin  *string
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

	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("ATHENAPIPE_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("ATHENAPIPE_API_ADDR"),
		MentorIndex: os.Getenv("ATHENAPIPE_MENTOR_INDEX"),
		CORSOrigin:  os.Getenv("ATHENAPIPE_CORS_ORIGIN"),
	}
}

// parseCommandLineFlags parses flags with environment values as defaults
func parseCommandLineFlags(config Config) Flags {
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}

	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "Directory for state data (database, mentor index)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "Database DSN (SQLite path or PostgreSQL URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server listen address"),
		mentorIndex: flag.String("mentor-index", config.MentorIndex, "Path to the mentor index JSON file"),
		corsOrigin:  flag.String("cors-origin", config.CORSOrigin, "Allowed CORS origin (empty disables CORS)"),
	}
	flag.Parse()
	return flags
}

func buildStoreOptions(flags Flags) []store.Option {
	dsn := *flags.dbDSN
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No DSN configured, defaulting to SQLite in state dir", "path", dsn)
		return []store.Option{store.WithSQLiteDSN(dsn)}
	}
	if store.DetectDSNType(dsn) == "postgres" {
		return []store.Option{store.WithPostgresDSN(dsn)}
	}
	return []store.Option{store.WithSQLiteDSN(dsn)}
}

func buildGenAIOptions(flags Flags) []genai.Option {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	return opts
}

func buildAPIOptions(flags Flags) []api.Option {
	opts := []api.Option{api.WithAddr(*flags.apiAddr)}
	if *flags.corsOrigin != "" {
		opts = append(opts, api.WithCORSOrigin(*flags.corsOrigin))
	}
	return opts
}

func mentorIndexPath(flags Flags) string {
	if *flags.mentorIndex != "" {
		return *flags.mentorIndex
	}
	return filepath.Join(*flags.stateDir, DefaultMentorIndexFileName)
}
