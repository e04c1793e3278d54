package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	DemoMode       bool
	InviteOnly     bool
	AllowedOrigins []string

	CacheTTL        time.Duration
	MigrateOnStart  bool
	ShutdownTimeout time.Duration

	IncomeCatchUp          string
	IncomeSweepSchedule    string
	IncomeSweepConcurrency int

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_TTL", 168*time.Hour)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("DEMO_MODE", false)
	v.SetDefault("INVITE_ONLY", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("CACHE_TTL", time.Minute)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("INCOME_CATCH_UP", "single")
	v.SetDefault("INCOME_SWEEP_SCHEDULE", "@every 1h")
	v.SetDefault("INCOME_SWEEP_CONCURRENCY", 4)
	v.SetDefault("AMQP_EXCHANGE", "budget-bee")
	v.SetDefault("AMQP_QUEUE", "ledger.events")
	v.SetDefault("PLAID_ENV", "sandbox")
}

// Load reads an optional .env file and then the environment. Values already
// set on v (for instance bound command flags) take precedence.
func Load(v *viper.Viper) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		BcryptCost: v.GetInt("BCRYPT_COST"),

		DemoMode:       v.GetBool("DEMO_MODE"),
		InviteOnly:     v.GetBool("INVITE_ONLY"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		CacheTTL:        v.GetDuration("CACHE_TTL"),
		MigrateOnStart:  v.GetBool("MIGRATE_ON_START"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		IncomeCatchUp:          strings.ToLower(strings.TrimSpace(v.GetString("INCOME_CATCH_UP"))),
		IncomeSweepSchedule:    strings.TrimSpace(v.GetString("INCOME_SWEEP_SCHEDULE")),
		IncomeSweepConcurrency: v.GetInt("INCOME_SWEEP_CONCURRENCY"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		PlaidClientID: v.GetString("PLAID_CLIENT_ID"),
		PlaidSecret:   v.GetString("PLAID_SECRET"),
		PlaidEnv:      strings.ToLower(v.GetString("PLAID_ENV")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabaseURL reads only DATABASE_URL, for commands that need nothing else.
func DatabaseURL(v *viper.Viper) (string, error) {
	_ = godotenv.Load()
	v.AutomaticEnv()
	url := v.GetString("DATABASE_URL")
	if url == "" {
		return "", errors.New("DATABASE_URL is required")
	}
	return url, nil
}

func (c *Config) BankEnabled() bool {
	return c.PlaidClientID != "" && c.PlaidSecret != ""
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, "BCRYPT_COST must be between 4 and 31")
	}
	if c.IncomeCatchUp != "single" && c.IncomeCatchUp != "all" {
		problems = append(problems, "INCOME_CATCH_UP must be \"single\" or \"all\"")
	}
	if c.IncomeSweepConcurrency < 1 {
		problems = append(problems, "INCOME_SWEEP_CONCURRENCY must be at least 1")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		problems = append(problems, "AMQP_EXCHANGE and AMQP_QUEUE are required when AMQP_URL is set")
	}
	switch c.PlaidEnv {
	case "sandbox", "production":
	default:
		problems = append(problems, "PLAID_ENV must be \"sandbox\" or \"production\"")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("configuration validation failed:\n- " + strings.Join(problems, "\n- "))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
