// Package config loads application configuration from environment variables.
package config

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Only the database fields of the selected backend
// are required.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	StoreBackend string // memory | file | redis | mysql | postgres
	StoreDir     string // directory of the file backend
	StoreQueue   int    // command buffer of the store actor

	DBUser      string // MySQL username
	DBPass      string // MySQL password (optional)
	DBHost      string // MySQL host address
	DBPort      string // MySQL port number
	DBName      string // MySQL database name
	DatabaseURL string // Postgres connection string

	RabbitURL string // AMQP url; empty disables booking events
	EventLog  string // file the booking consumer appends to

	TMDBKey     string
	TMDBBaseURL string
	TMDBTimeout time.Duration

	PaymentDelay    time.Duration // simulated processing time
	SessionTTL      time.Duration // idle wizard sessions are dropped after this
	JanitorEvery    time.Duration
	TicketSecret    string // secret used to sign ticket tokens
	BcryptCost      int    // bcrypt cost for password hashing
	CORSOrigins     []string
	Location        *time.Location // zone showtimes are interpreted in
	ShutdownTimeout time.Duration
}

// Load reads .env (when present) and the environment and returns a Config.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "8080"),
		StoreBackend: strings.ToLower(getenv("STORE_BACKEND", BackendMemory)),
		StoreDir:     getenv("STORE_DIR", "data"),
		StoreQueue:   envInt("STORE_QUEUE", 64),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		EventLog:     getenv("BOOKING_LOG", "logs/booking.log"),
		TMDBKey:      os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:  getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBTimeout:  envDur("TMDB_TIMEOUT", 10*time.Second),
		PaymentDelay: envDur("PAYMENT_DELAY", 2*time.Second),
		SessionTTL:   envDur("WIZARD_SESSION_TTL", 30*time.Minute),
		JanitorEvery: envDur("WIZARD_JANITOR_EVERY", time.Minute),
		TicketSecret: must("TICKET_SIGNING_SECRET"),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		CORSOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		Location:     loadLocation(getenv("TIMEZONE", "Local")),

		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	switch cfg.StoreBackend {
	case BackendMemory, BackendFile, BackendRedis:
	case BackendMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = getenv("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	case BackendPostgres:
		cfg.DatabaseURL = must("DATABASE_URL")
	default:
		log.Fatalf("unknown STORE_BACKEND: %q", cfg.StoreBackend)
	}
	return cfg
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", name, err)
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
