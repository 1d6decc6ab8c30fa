package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	MongoURI  string
	MongoDB   string
	TxTimeout time.Duration

	AccessSecret  string
	RefreshSecret string
	BcryptCost    int
	CookieSecure  bool
	VerifyTTL     time.Duration

	RedisAddr            string
	RegisterLimitPerHour int

	RabbitURL         string
	RabbitExchange    string
	RabbitQueue       string
	RabbitBindKey     string
	RabbitConcurrency int

	// PublicURL is where the notifier points verification links.
	PublicURL string

	DDEnabled bool
	DDService string
}

// Load reads the process environment. A .env file in the working directory, if present,
// fills variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                 getenv("APP_PORT", "8080"),
		Env:                  getenv("APP_ENV", "development"),
		MongoURI:             getenv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:              getenv("MONGO_DB", "rental_db"),
		TxTimeout:            time.Duration(getint("TX_TIMEOUT_SECONDS", 10)) * time.Second,
		AccessSecret:         getenv("ACCESS_TOKEN_SECRET", "dev_access_secret"),
		RefreshSecret:        getenv("REFRESH_TOKEN_SECRET", "dev_refresh_secret"),
		BcryptCost:           getint("BCRYPT_COST", 12),
		CookieSecure:         getbool("COOKIE_SECURE", true),
		VerifyTTL:            time.Duration(getint("VERIFY_TTL_HOURS", 24)) * time.Hour,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RegisterLimitPerHour: getint("REGISTER_LIMIT_PER_HOUR", 5),
		RabbitURL:            os.Getenv("RABBIT_URL"),
		RabbitExchange:       getenv("RABBIT_EXCHANGE", "auth.events"),
		RabbitQueue:          getenv("RABBIT_QUEUE", "auth.notify"),
		RabbitBindKey:        getenv("RABBIT_BIND_KEY", "user.*"),
		RabbitConcurrency:    getint("RABBIT_CONCURRENCY", 4),
		PublicURL:            getenv("PUBLIC_URL", "http://localhost:8080"),
		DDEnabled:            getbool("DD_ENABLED", false),
		DDService:            getenv("DD_SERVICE", "rental-service"),
	}
}

func (c Config) IsProduction() bool { return strings.EqualFold(c.Env, "production") }

var (
	ErrMissingSecret = errors.New("token secrets must be set")
	ErrSharedSecret  = errors.New("access and refresh secrets must differ")
)

// Validate checks the settings the server cannot run without.
func (c Config) Validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return ErrMissingSecret
	}
	if c.AccessSecret == c.RefreshSecret {
		return ErrSharedSecret
	}
	return nil
}

// getint falls back to def when k is unset, unparsable or not positive.
func getint(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
