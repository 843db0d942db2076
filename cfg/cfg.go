package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Secret struct {
	value []byte
}

func NewSecret(s string) Secret {
	return Secret{value: []byte(s)}
}
func (s Secret) Value() string {
	return string(s.value)
}
func (s Secret) Bytes() []byte {
	return s.value
}
func (s Secret) Wipe() {
	for i := range s.value {
		s.value[i] = 0
	}
}
func (s Secret) String() string {
	return "***REDACTED***"
}

type Cfg struct {
	Port                string
	Environment         string
	LogLevel            string
	StoreURI            Secret
	Pepper              Secret
	SecretsFromProvider bool
	StoreTimeout        time.Duration
	ContextTimeout      time.Duration
	DBMaxOpenConns      int
	DBMaxIdleConns      int
	RedisTLS            bool
	MongoDatabase       string
	MongoCollection     string
}

// Load reads an optional dotenv file (ENV_FILE, default .env) and then the
// process environment. Variables already set in the environment win.
func Load() (*Cfg, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(err, "load %s", envFile)
	}
	c := &Cfg{}
	c.Port = getEnv("PORT", "8080")
	c.Environment = getEnv("ENVIRONMENT", "development")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.StoreURI = NewSecret(getEnv("STORE_URI", getEnv("MONGODB_URI", "")))
	c.Pepper = NewSecret(getEnv("IP_PEPPER", ""))
	c.SecretsFromProvider = getEnv("SECRETS_FROM_PROVIDER", "false") == "true"
	c.RedisTLS = getEnv("REDIS_TLS", "false") == "true"
	c.MongoDatabase = getEnv("MONGO_DATABASE", "pastes")
	c.MongoCollection = getEnv("MONGO_COLLECTION", "pastes")
	var err error
	c.StoreTimeout, err = getDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.ContextTimeout, err = getDuration("CONTEXT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	c.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}
	c.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks everything that can be checked before secrets are resolved.
// When SecretsFromProvider is set the store URI and pepper may still be empty
// here; ValidateSecrets runs after the provider has filled them in.
func Validate(c *Cfg) error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be a number")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.ContextTimeout <= 0 {
		return errors.New("CONTEXT_TIMEOUT must be positive")
	}
	if c.DBMaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if c.MongoDatabase == "" || c.MongoCollection == "" {
		return errors.New("MONGO_DATABASE and MONGO_COLLECTION must not be empty")
	}
	if c.SecretsFromProvider {
		return nil
	}
	return ValidateSecrets(c)
}
func ValidateSecrets(c *Cfg) error {
	if c.StoreURI.Value() == "" {
		return errors.New("STORE_URI is required")
	}
	if c.Pepper.Value() == "" {
		return errors.New("IP_PEPPER is required")
	}
	uri := c.StoreURI.Value()
	if strings.HasPrefix(uri, "rediss://") && !c.RedisTLS {
		return errors.New("STORE_URI uses rediss:// but REDIS_TLS=false")
	}
	return nil
}
func (c *Cfg) Wipe() {
	c.StoreURI.Wipe()
	c.Pepper.Wipe()
}
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
func getInt(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
