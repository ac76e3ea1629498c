// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyBotToken     = "BOT_TOKEN"
	KeyPublicURL    = "PUBLIC_URL"
	KeyStoreBackend = "STORE_BACKEND"
	KeyUsersFile    = "USERS_FILE"
	KeyErrorLog     = "ERROR_LOG"
	KeyMongoURI     = "MONGO_URI"
	KeyMongoDB      = "MONGO_DB"
	KeyAppEnv       = "APP_ENV"
	KeyLogLevel     = "LOG_LEVEL"
	KeyHTTPPort     = "HTTP_PORT"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Ledger store backends.
	BackendFile  = "file"
	BackendMongo = "mongo"

	// Defaults for optional settings. The token and public URL fall back to
	// placeholders so the bot can boot for local inspection; real traffic
	// requires both to be set.
	DefaultBotToken  = "Place_Your_Token_Here"
	DefaultPublicURL = "https://your-app-name.onrender.com"
	DefaultBackend   = BackendFile
	DefaultUsersFile = "users.json"
	DefaultErrorLog  = "error.log"
	DefaultAppEnv    = EnvProduction
	DefaultLogLevel  = "info"
	DefaultHTTPPort  = 8080
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must
// rely on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyBotToken,
		Example:     "123:ABC",
		Default:     DefaultBotToken,
		Description: "Telegram Bot Token issued by BotFather.",
		Notes:       "The default is a placeholder; outbound calls fail until a real token is set.",
	},
	{
		Key:         KeyPublicURL,
		Example:     "https://earning-bot.onrender.com",
		Default:     DefaultPublicURL,
		Description: "Externally reachable base URL registered as the webhook target.",
	},
	{
		Key:         KeyStoreBackend,
		Example:     BackendFile + " / " + BackendMongo,
		Default:     DefaultBackend,
		Description: "Ledger store backend.",
		Notes:       "MONGO_URI and MONGO_DB become required when set to " + BackendMongo + ".",
	},
	{
		Key:         KeyUsersFile,
		Example:     DefaultUsersFile,
		Default:     DefaultUsersFile,
		Description: "Path of the JSON ledger document (file backend).",
	},
	{
		Key:         KeyErrorLog,
		Example:     DefaultErrorLog,
		Default:     DefaultErrorLog,
		Description: "Append-only plaintext error log path; empty disables the file log.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Description: "MongoDB connection string (mongo backend only).",
	},
	{
		Key:         KeyMongoDB,
		Example:     "earning_bot",
		Description: "MongoDB database name (mongo backend only).",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "Port of the webhook/diagnostics HTTP server.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	BotToken     string
	PublicURL    string
	StoreBackend string
	UsersFile    string
	ErrorLog     string
	MongoURI     string
	MongoDB      string
	AppEnv       string
	LogLevel     string
	HTTPPort     int
}

// Load resolves configuration from the environment (with optional dotenv in
// development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:       firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		BotToken:     firstNonEmpty(os.Getenv(KeyBotToken), DefaultBotToken),
		PublicURL:    firstNonEmpty(os.Getenv(KeyPublicURL), DefaultPublicURL),
		StoreBackend: firstNonEmpty(normalizeEnv(os.Getenv(KeyStoreBackend)), DefaultBackend),
		UsersFile:    firstNonEmpty(os.Getenv(KeyUsersFile), DefaultUsersFile),
		MongoURI:     strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:      strings.TrimSpace(os.Getenv(KeyMongoDB)),
		LogLevel:     firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:     DefaultHTTPPort,
	}

	if raw, set := os.LookupEnv(KeyErrorLog); set {
		cfg.ErrorLog = strings.TrimSpace(raw)
	} else {
		cfg.ErrorLog = DefaultErrorLog
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	if cfg.StoreBackend != BackendFile && cfg.StoreBackend != BackendMongo {
		return Config{}, fmt.Errorf("invalid %s: must be %q or %q", KeyStoreBackend, BackendFile, BackendMongo)
	}

	if cfg.StoreBackend == BackendMongo {
		missing := make([]string, 0)
		if cfg.MongoURI == "" {
			missing = append(missing, KeyMongoURI)
		}
		if cfg.MongoDB == "" {
			missing = append(missing, KeyMongoDB)
		}
		if len(missing) > 0 {
			return Config{}, fmt.Errorf("missing required environment variable(s) for %s backend: %s", BackendMongo, strings.Join(missing, ", "))
		}
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// BotID returns the numeric prefix of the bot token, used in invite links.
func (c Config) BotID() string {
	id, _, _ := strings.Cut(c.BotToken, ":")
	return id
}

// FormatRedacted renders a settings summary safe for logs: the token is
// masked, everything else is printed as resolved.
func FormatRedacted(cfg Config) string {
	token := "(unset)"
	if cfg.BotToken != "" {
		token = cfg.BotID() + ":***"
	}

	lines := []string{
		KeyBotToken + "=" + token,
		KeyPublicURL + "=" + cfg.PublicURL,
		KeyStoreBackend + "=" + cfg.StoreBackend,
		KeyUsersFile + "=" + cfg.UsersFile,
		KeyErrorLog + "=" + cfg.ErrorLog,
		KeyMongoDB + "=" + cfg.MongoDB,
		KeyAppEnv + "=" + cfg.AppEnv,
		KeyLogLevel + "=" + cfg.LogLevel,
		KeyHTTPPort + "=" + strconv.Itoa(cfg.HTTPPort),
	}

	return strings.Join(lines, "\n")
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
