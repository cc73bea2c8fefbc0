package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Policy        PolicyConfig        `mapstructure:"policy"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	MaxLoginAttempts     int           `mapstructure:"max_login_attempts"`
	LoginBlockWindow     time.Duration `mapstructure:"login_block_window"`
	AccountLockDuration  time.Duration `mapstructure:"account_lock_duration"`
	LoginCounterStore    string        `mapstructure:"login_counter_store"`
}

// PolicyConfig carries the credential-validation policy so tests can vary
// it per case instead of relying on package-level constants.
type PolicyConfig struct {
	PhoneCountryCode      string   `mapstructure:"phone_country_code"`
	PasswordBlocklist     []string `mapstructure:"password_blocklist"`
	KeyboardPatterns      []string `mapstructure:"keyboard_patterns"`
	BlockedEmailDomains   []string `mapstructure:"blocked_email_domains"`
	EmployeeEmailDomains  []string `mapstructure:"employee_email_domains"`
	MinIdentityFragment   int      `mapstructure:"min_identity_fragment"`
	PasswordSpecialRunes  string   `mapstructure:"password_special_runes"`
	PasswordMinimumLength int      `mapstructure:"password_minimum_length"`
}

type MailConfig struct {
	APIURL         string        `mapstructure:"api_url" validate:"required,url"`
	APIKey         string        `mapstructure:"api_key"`
	FromAddress    string        `mapstructure:"from_address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxWorkers     int           `mapstructure:"max_workers"`
	JobQueueSize   int           `mapstructure:"job_queue_size"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config entirely from environment variables,
// used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 10*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
			MaxLoginAttempts:     getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
			LoginBlockWindow:     getEnvAsDuration("LOGIN_BLOCK_WINDOW", 15*time.Minute),
			AccountLockDuration:  getEnvAsDuration("ACCOUNT_LOCK_DURATION", 30*time.Minute),
			LoginCounterStore:    getEnv("LOGIN_COUNTER_STORE", "memory"),
		},
		Policy: PolicyConfig{
			PhoneCountryCode:      getEnv("PHONE_COUNTRY_CODE", "263"),
			PasswordBlocklist:     getEnvAsSlice("PASSWORD_BLOCKLIST", DefaultPasswordBlocklist()),
			KeyboardPatterns:      getEnvAsSlice("KEYBOARD_PATTERNS", DefaultKeyboardPatterns()),
			BlockedEmailDomains:   getEnvAsSlice("BLOCKED_EMAIL_DOMAINS", DefaultBlockedEmailDomains()),
			EmployeeEmailDomains:  getEnvAsSlice("EMPLOYEE_EMAIL_DOMAINS", []string{"blitztechelectronics.co.zw"}),
			MinIdentityFragment:   getEnvAsInt("MIN_IDENTITY_FRAGMENT", 3),
			PasswordSpecialRunes:  getEnv("PASSWORD_SPECIAL_RUNES", DefaultPasswordSpecialRunes),
			PasswordMinimumLength: getEnvAsInt("PASSWORD_MINIMUM_LENGTH", 8),
		},
		Mail: MailConfig{
			APIURL:         getEnv("MAIL_API_URL", ""),
			APIKey:         getEnv("MAIL_API_KEY", ""),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "noreply@blitztechelectronics.co.zw"),
			RequestTimeout: getEnvAsDuration("MAIL_REQUEST_TIMEOUT", 10*time.Second),
			MaxWorkers:     getEnvAsInt("MAIL_MAX_WORKERS", 4),
			JobQueueSize:   getEnvAsInt("MAIL_JOB_QUEUE_SIZE", 100),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

const DefaultPasswordSpecialRunes = "!@#$%^&*()_+-=[]{}|;:,.<>?"

func DefaultPasswordBlocklist() []string {
	return []string{"123", "abc", "password", "admin", "user", "login", "blitztech", "electronics"}
}

func DefaultKeyboardPatterns() []string {
	return []string{"qwerty", "asdf", "zxcv", "1234", "abcd"}
}

func DefaultBlockedEmailDomains() []string {
	return []string{"tempmail.com", "guerrillamail.com", "10minutemail.com", "mailinator.com", "throwaway.email"}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// AllowedOriginList splits the comma-separated origins; a wildcard or
// empty value means any origin.
func (c *ServerConfig) AllowedOriginList() []string {
	if c.AllowedOrigins == "" || c.AllowedOrigins == "*" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.MaxLoginAttempts <= 0 {
		return errors.New("max_login_attempts must be positive")
	}
	if c.LoginBlockWindow <= 0 {
		return errors.New("login_block_window must be positive")
	}
	return nil
}

func (c *MailConfig) Validate() error {
	if c.APIURL == "" {
		return errors.New("mail api_url is required")
	}
	return nil
}
