package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tandembot/tandem/internal/analytics"
	"github.com/tandembot/tandem/internal/bot"
	"github.com/tandembot/tandem/internal/genai"
	"github.com/tandembot/tandem/internal/lockfile"
	"github.com/tandembot/tandem/internal/messaging"
	"github.com/tandembot/tandem/internal/report"
	"github.com/tandembot/tandem/internal/room"
	"github.com/tandembot/tandem/internal/store"
	"github.com/tandembot/tandem/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Tandem state data
	DefaultStateDir = "/var/lib/tandem"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "tandem.db"
	// DefaultRedisAddr is the default Redis address
	DefaultRedisAddr = "127.0.0.1:6379"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("Tandem failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Tandem exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken    string
	RedisURL    string
	RedisAddr   string
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	Messaging   string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	redisURL  *string
	redisAddr *string
	dbDSN     *string
	botToken  *string
	messaging *string
	seedPack  *string
	seedFile  *string
	openaiKey string
}

// initializeLogger sets up structured logging. TANDEM_DEBUG=1 lowers the
// level to debug.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("TANDEM_DEBUG", false) {
		level = slog.LevelDebug
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
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:    os.Getenv("REDIS_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("TANDEM_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		Messaging:   os.Getenv("MESSAGING_BACKEND"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TANDEM_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.RedisAddr == "" {
		config.RedisAddr = DefaultRedisAddr
	}
	if config.Messaging == "" {
		config.Messaging = "telegram"
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.BotToken != "",
		"REDIS_URL_SET", config.RedisURL != "",
		"REDIS_ADDR", config.RedisAddr,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"TANDEM_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"MESSAGING_BACKEND", config.Messaging)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for Tandem data (overrides $TANDEM_STATE_DIR)"),
		redisURL:  flag.String("redis-url", config.RedisURL, "Redis connection URL (overrides $REDIS_URL)"),
		redisAddr: flag.String("redis-addr", config.RedisAddr, "Redis address, used when no URL is set (overrides $REDIS_ADDR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "analytics database DSN (overrides $DATABASE_URL)"),
		botToken:  flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		messaging: flag.String("messaging", config.Messaging, "messaging backend: telegram or twilio (overrides $MESSAGING_BACKEND)"),
		seedPack:  flag.String("seed-pack", "", "seed a question pack with this name from -seed-file and exit"),
		seedFile:  flag.String("seed-file", "", "file with one question per line, used with -seed-pack"),
		openaiKey: config.OpenAIKey,
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"redisURL_set", *flags.redisURL != "",
		"redisAddr", *flags.redisAddr,
		"dbDSN_set", *flags.dbDSN != "",
		"botToken_set", *flags.botToken != "",
		"messaging", *flags.messaging,
		"seedPack", *flags.seedPack)

	return flags
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openSessionStore(ctx, flags)
	if err != nil {
		return err
	}
	defer kv.Close()

	// Seeding is a one-shot maintenance action; no lock or bot needed.
	if *flags.seedPack != "" {
		return seedPack(ctx, kv, *flags.seedPack, *flags.seedFile)
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	sink, closeSink, err := openAnalyticsSink(flags)
	if err != nil {
		return err
	}
	defer closeSink()

	service, err := openMessagingService(flags)
	if err != nil {
		return err
	}
	if err := service.Start(ctx); err != nil {
		return err
	}
	defer service.Stop()

	composer := report.NewComposer(openPhraser(flags))

	slog.Info("Bootstrapping Tandem", "messaging", *flags.messaging, "state_dir", *flags.stateDir)
	err = bot.New(service, kv, sink, composer).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openSessionStore connects to Redis, preferring the URL form. REDIS_DB
// selects a database index for the address form.
func openSessionStore(ctx context.Context, flags Flags) (*store.RedisStore, error) {
	if *flags.redisURL != "" {
		return store.NewRedisStore(ctx, store.WithURL(*flags.redisURL))
	}
	return store.NewRedisStore(ctx,
		store.WithAddr(*flags.redisAddr),
		store.WithDB(util.ParseIntEnv("REDIS_DB", 0)))
}

// openAnalyticsSink picks Postgres when the DSN looks like a postgres URL,
// SQLite in the state directory otherwise.
func openAnalyticsSink(flags Flags) (analytics.Sink, func() error, error) {
	dsn := *flags.dbDSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sink, err := analytics.NewPostgresSink(analytics.WithDSN(dsn))
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Analytics sink: PostgreSQL")
		return sink, sink.Close, nil
	}

	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No analytics DSN provided, defaulting to SQLite", "sqlite_path", dsn)
	}
	sink, err := analytics.NewSQLiteSink(analytics.WithDSN(dsn))
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Analytics sink: SQLite", "path", dsn)
	return sink, sink.Close, nil
}

// openMessagingService builds the configured messaging backend. The Twilio
// backend is delivery-only and useful for notification-style deployments.
func openMessagingService(flags Flags) (messaging.Service, error) {
	switch *flags.messaging {
	case "twilio":
		client, err := messaging.NewTwilioClient()
		if err != nil {
			return nil, err
		}
		return messaging.NewTwilioService(client), nil
	default:
		return messaging.NewTelegramService(*flags.botToken)
	}
}

// openPhraser returns the optional report phraser, nil without an API key.
func openPhraser(flags Flags) report.Phraser {
	if flags.openaiKey == "" {
		slog.Debug("No OPENAI_API_KEY set, reports use the static template")
		return nil
	}
	client, err := genai.NewClient()
	if err != nil {
		slog.Warn("GenAI client unavailable, reports use the static template", "error", err)
		return nil
	}
	return client
}

// seedPack registers a named pack from a file with one question per line.
func seedPack(ctx context.Context, kv *store.RedisStore, name, file string) error {
	if file == "" {
		slog.Error("seed-pack requires -seed-file")
		return os.ErrInvalid
	}
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := room.NewPacks(kv).Seed(ctx, name, prompts); err != nil {
		return err
	}
	slog.Info("Seeded question pack", "pack", name, "questions", len(prompts))
	return nil
}
