package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	HTTP      HTTPConfig
	MySQL     MySQLConfig
	JWT       JWTConfig
	Tokens    TokenConfig
	Password  PasswordConfig
	Site      SiteConfig
	Cookie    CookieConfig
	Mail      MailConfig
	Redis     RedisConfig
	Log       LogConfig
	Providers map[string]ProviderConfig
}

type HTTPConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenConfig drives the signed links sent by email.
type TokenConfig struct {
	Secret            string
	VerifyTTL         time.Duration
	ResetTTL          time.Duration
	MaskUnknownEmails bool
}

type PasswordConfig struct {
	Policy     PasswordPolicy
	BcryptCost int
}

type SiteConfig struct {
	URL       string
	EventName string
}

// CookieConfig describes the cross-domain "logged in" marker cookie shared
// with the hackathon landing page.
type CookieConfig struct {
	Key    string
	Domain string
	MaxAge int
}

func (c CookieConfig) Enabled() bool {
	return c.Key != "" && c.Domain != ""
}

type MailConfig struct {
	SMTPAddr string
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// ProviderConfig holds the static settings of one external identity provider.
// Values are read from OAUTH_<NAME>_* variables.
type ProviderConfig struct {
	Name         string
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	TokenURL     string        `env:"TOKEN_URL"`
	UserURL      string        `env:"USER_URL"`
	Timeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.ClientID) != ""
}

var providerDefaults = map[string]ProviderConfig{
	"mlh": {
		TokenURL: "https://my.mlh.io/oauth/token",
		UserURL:  "https://my.mlh.io/api/v2/user.json",
	},
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, errors.New("TOKEN_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	providers, err := loadProviders(getEnv("OAUTH_PROVIDERS", "mlh"))
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTP: HTTPConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{DSN: mysqlDSN},
		JWT: JWTConfig{
			Secret:          jwtSecret,
			AccessTokenTTL:  getDurationEnv("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getDurationEnv("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Tokens: TokenConfig{
			Secret:            tokenSecret,
			VerifyTTL:         getDurationEnv("VERIFY_TOKEN_TTL", 3*24*time.Hour),
			ResetTTL:          getDurationEnv("RESET_TOKEN_TTL", 3*24*time.Hour),
			MaskUnknownEmails: getBoolEnv("RESET_MASK_UNKNOWN_EMAIL", true),
		},
		Password: PasswordConfig{
			Policy:     loadPasswordPolicy(),
			BcryptCost: getIntEnv("PASSWORD_BCRYPT_COST", bcrypt.DefaultCost),
		},
		Site: SiteConfig{
			URL:       strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
			EventName: getEnv("EVENT_NAME", "Hackathon"),
		},
		Cookie: CookieConfig{
			Key:    os.Getenv("LOGGED_IN_COOKIE_KEY"),
			Domain: getEnv("LOGGED_IN_COOKIE_DOMAIN", os.Getenv("HACKATHON_DOMAIN")),
			MaxAge: getIntEnv("SESSION_COOKIE_AGE", 14*24*60*60),
		},
		Mail: MailConfig{
			SMTPAddr: os.Getenv("SMTP_ADDR"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "no-reply@localhost"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Providers: providers,
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func loadProviders(names string) (map[string]ProviderConfig, error) {
	providers := make(map[string]ProviderConfig)
	for _, name := range strings.Split(names, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		provider := providerDefaults[name]
		prefix := "OAUTH_" + strings.ToUpper(name) + "_"
		if err := env.ParseWithOptions(&provider, env.Options{Prefix: prefix}); err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		provider.Name = name
		providers[name] = provider
	}
	return providers, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
	}
}
