package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// nolint:lll
type Config struct {
	Host string `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port int    `long:"http.port" env:"PORT" default:"8080" description:"port to listen on"`
	Env  string `long:"env" env:"ENV" default:"development" description:"deployment environment" choice:"development" choice:"production" choice:"test"`

	LogLevel string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`

	Store        string        `long:"store" env:"STORE" default:"mongo" description:"storage backend" choice:"mongo" choice:"memory"`
	StoreTimeout time.Duration `long:"store.timeout" env:"STORE_TIMEOUT" default:"5s" description:"timeout for a single store operation"`

	MongoURI      string `long:"mongo.uri" env:"MONGO_URI" default:"mongodb://localhost:27017" description:"mongodb connection uri"`
	MongoDatabase string `long:"mongo.database" env:"MONGO_DATABASE" default:"circle" description:"mongodb database name"`

	Postgres                   string `long:"postgres" env:"POSTGRES_URL" default:"host=localhost port=5432 user=postgres password=postgres dbname=circle sslmode=disable" description:"postgres dsn for notes"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`

	JWTSecret  string        `long:"jwt.secret" env:"JWT_SECRET" description:"HMAC secret for session tokens"`
	TokenTTL   time.Duration `long:"jwt.ttl" env:"JWT_TTL" default:"720h" description:"session token lifetime"`
	BcryptCost int           `long:"bcrypt.cost" env:"BCRYPT_COST" default:"10" description:"bcrypt cost factor"`

	FirebaseCredentialsPath string `long:"firebase.credentials" env:"FIREBASE_CREDENTIALS_PATH" description:"service account file; firebase login is disabled when empty"`

	BodyLimit     string        `long:"http.body_limit" env:"HTTP_BODY_LIMIT" default:"1M" description:"maximal request body size"`
	ShutdownGrace time.Duration `long:"http.shutdown_grace" env:"SHUTDOWN_GRACE" default:"10s" description:"time given to in-flight requests on shutdown"`
}

// ErrHelp is returned by Load when --help was requested and printed.
var ErrHelp = errors.New("help requested")

// Load reads an optional .env file and then parses flags and environment
// variables into a Config.
func Load(args []string) (*Config, error) {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = "Circle API"
	parser.LongDescription = "Social graph, posts and private notes API"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// Address is the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
