package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/logicalc/loancalc/internal/domain/model"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
	pkgpostgres "github.com/logicalc/loancalc/pkg/postgres"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ConfigFileEnv names the optional YAML file loaded before the environment.
const ConfigFileEnv = "LOANCALC_CONFIG_FILE"

type DatabaseConfig struct {
	URL           string `yaml:"url"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"sslmode"`
	MaxConns      int    `yaml:"max_conns"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	CalculationTopic string   `yaml:"calculation_topic"`
	MessageTopic     string   `yaml:"message_topic"`
	RateTableTopic   string   `yaml:"rate_table_topic"`
	ConsumerGroup    string   `yaml:"consumer_group"`
	TLS              bool     `yaml:"tls"`
	SASLMechanism    string   `yaml:"sasl_mechanism"`
	SASLUsername     string   `yaml:"sasl_username"`
	SASLPassword     string   `yaml:"sasl_password"`
}

type RedisConfig struct {
	// Addr empty disables the rate table cache.
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SMTPConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	// BCC receives a copy of every company message when set.
	BCC      string        `yaml:"bcc"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	JWTSecret     string `yaml:"jwt_secret"`
	PublicKeyFile string `yaml:"public_key_file"`
	Issuer        string `yaml:"issuer"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type TelemetryConfig struct {
	LogLevel     string  `yaml:"log_level"`
	LogFormat    string  `yaml:"log_format"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	OTLPInsecure bool    `yaml:"otlp_insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// CalculatorConfig holds the estimates used when a borrower leaves them out.
// CollateralYear zero means the current year.
type CalculatorConfig struct {
	CreditScore     int             `yaml:"credit_score"`
	CollateralValue decimal.Decimal `yaml:"collateral_value"`
	MonthlyIncome   decimal.Decimal `yaml:"monthly_income"`
	MonthlyExpenses decimal.Decimal `yaml:"monthly_expenses"`
	CollateralYear  int             `yaml:"collateral_year"`
	MonthlyTerm     int             `yaml:"monthly_term"`
}

type Config struct {
	ServiceName string           `yaml:"service_name"`
	GRPCPort    int              `yaml:"grpc_port"`
	HTTPPort    int              `yaml:"http_port"`
	Storage     string           `yaml:"storage"`
	DB          DatabaseConfig   `yaml:"database"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Redis       RedisConfig      `yaml:"redis"`
	SMTP        SMTPConfig       `yaml:"smtp"`
	Auth        AuthConfig       `yaml:"auth"`
	TLS         TLSConfig        `yaml:"tls"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Calculator  CalculatorConfig `yaml:"calculator"`
}

// Defaults returns the configuration used when neither a file nor the
// environment says otherwise.
func Defaults() Config {
	return Config{
		ServiceName: "loancalc",
		GRPCPort:    9090,
		HTTPPort:    8080,
		Storage:     StorageMemory,
		DB: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "loancalc",
			Name:    "loancalc",
			SSLMode: "require",
		},
		Kafka: KafkaConfig{
			CalculationTopic: "loancalc.calculations",
			MessageTopic:     "loancalc.company-messages",
			RateTableTopic:   "loancalc.rate-tables",
			ConsumerGroup:    "loancalc-notifier",
		},
		Redis: RedisConfig{TTL: 10 * time.Minute},
		SMTP:  SMTPConfig{Port: 587, From: "no-reply@logicalc.example", Timeout: 30 * time.Second},
		Auth:  AuthConfig{Issuer: "loancalc"},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Calculator: CalculatorConfig{
			CreditScore:     model.DefaultCreditScore,
			CollateralValue: decimal.NewFromInt(1000),
			MonthlyIncome:   decimal.NewFromInt(5000),
			MonthlyExpenses: decimal.NewFromInt(2000),
			MonthlyTerm:     model.DefaultMonthlyTerm,
		},
	}
}

// Load builds the configuration from the defaults, the YAML file named by
// LOANCALC_CONFIG_FILE if any, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.GRPCPort = getEnvInt("GRPC_PORT", cfg.GRPCPort)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.Storage = strings.ToLower(getEnv("STORAGE", cfg.Storage))

	cfg.DB.URL = getEnv("DATABASE_URL", cfg.DB.URL)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnvInt("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.MaxConns = getEnvInt("DB_MAX_CONNS", cfg.DB.MaxConns)
	cfg.DB.RunMigrations = getEnvBool("DB_RUN_MIGRATIONS", cfg.DB.RunMigrations)

	cfg.Kafka.Brokers = getEnvList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.CalculationTopic = getEnv("KAFKA_CALCULATION_TOPIC", cfg.Kafka.CalculationTopic)
	cfg.Kafka.MessageTopic = getEnv("KAFKA_MESSAGE_TOPIC", cfg.Kafka.MessageTopic)
	cfg.Kafka.RateTableTopic = getEnv("KAFKA_RATE_TABLE_TOPIC", cfg.Kafka.RateTableTopic)
	cfg.Kafka.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", cfg.Kafka.ConsumerGroup)
	cfg.Kafka.TLS = getEnvBool("KAFKA_TLS", cfg.Kafka.TLS)
	cfg.Kafka.SASLMechanism = getEnv("KAFKA_SASL_MECHANISM", cfg.Kafka.SASLMechanism)
	cfg.Kafka.SASLUsername = getEnv("KAFKA_SASL_USERNAME", cfg.Kafka.SASLUsername)
	cfg.Kafka.SASLPassword = getEnv("KAFKA_SASL_PASSWORD", cfg.Kafka.SASLPassword)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTL = getEnvDuration("RATE_TABLE_CACHE_TTL", cfg.Redis.TTL)

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)
	cfg.SMTP.BCC = getEnv("SMTP_BCC", cfg.SMTP.BCC)
	cfg.SMTP.Timeout = getEnvDuration("SMTP_TIMEOUT", cfg.SMTP.Timeout)

	cfg.Auth.Enabled = getEnvBool("AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.PublicKeyFile = getEnv("JWT_PUBLIC_KEY_FILE", cfg.Auth.PublicKeyFile)
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", cfg.Auth.Issuer)

	cfg.TLS.CertFile = getEnv("TLS_CERT_FILE", cfg.TLS.CertFile)
	cfg.TLS.KeyFile = getEnv("TLS_KEY_FILE", cfg.TLS.KeyFile)

	cfg.Telemetry.LogLevel = getEnv("LOG_LEVEL", cfg.Telemetry.LogLevel)
	cfg.Telemetry.LogFormat = getEnv("LOG_FORMAT", cfg.Telemetry.LogFormat)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPInsecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Telemetry.OTLPInsecure)

	cfg.Calculator.CreditScore = getEnvInt("DEFAULT_CREDIT_SCORE", cfg.Calculator.CreditScore)
	cfg.Calculator.CollateralValue = getEnvDecimal("DEFAULT_COLLATERAL_VALUE", cfg.Calculator.CollateralValue)
	cfg.Calculator.MonthlyIncome = getEnvDecimal("DEFAULT_MONTHLY_INCOME", cfg.Calculator.MonthlyIncome)
	cfg.Calculator.MonthlyExpenses = getEnvDecimal("DEFAULT_MONTHLY_EXPENSES", cfg.Calculator.MonthlyExpenses)
	cfg.Calculator.CollateralYear = getEnvInt("DEFAULT_COLLATERAL_YEAR", cfg.Calculator.CollateralYear)
	cfg.Calculator.MonthlyTerm = getEnvInt("DEFAULT_MONTHLY_TERM", cfg.Calculator.MonthlyTerm)
}

// Validate reports every missing or inconsistent setting.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DB.URL == "" && c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD or DATABASE_URL is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage))
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" && c.Auth.PublicKeyFile == "" {
		errs = append(errs, errors.New("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required when AUTH_ENABLED is set"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	if c.Calculator.MonthlyTerm <= 0 {
		errs = append(errs, errors.New("DEFAULT_MONTHLY_TERM must be positive"))
	}
	if c.Calculator.MonthlyIncome.IsNegative() || c.Calculator.MonthlyExpenses.IsNegative() || c.Calculator.CollateralValue.IsNegative() {
		errs = append(errs, errors.New("calculator defaults must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateNotifier reports settings the notifier needs on top of Validate.
func (c Config) ValidateNotifier() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST is required"))
	}
	return errors.Join(errs...)
}

// CalculationDefaults returns the calculator defaults. An unset collateral
// year stays zero and is resolved per calculation.
func (c Config) CalculationDefaults() model.CalculationDefaults {
	return model.CalculationDefaults{
		CreditScore:     c.Calculator.CreditScore,
		CollateralValue: c.Calculator.CollateralValue,
		MonthlyIncome:   c.Calculator.MonthlyIncome,
		MonthlyExpenses: c.Calculator.MonthlyExpenses,
		CollateralYear:  c.Calculator.CollateralYear,
		MonthlyTerm:     c.Calculator.MonthlyTerm,
	}
}

// Postgres returns the pool configuration.
func (c Config) Postgres() pkgpostgres.Config {
	return pkgpostgres.Config{
		URL:      c.DB.URL,
		Host:     c.DB.Host,
		Port:     c.DB.Port,
		User:     c.DB.User,
		Password: c.DB.Password,
		Database: c.DB.Name,
		SSLMode:  c.DB.SSLMode,
		MaxConns: int32(c.DB.MaxConns),
	}
}

// KafkaClient returns the producer and consumer configuration.
func (c Config) KafkaClient() pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       c.Kafka.Brokers,
		ConsumerGroup: c.Kafka.ConsumerGroup,
		TLS:           c.Kafka.TLS,
		SASLEnabled:   c.Kafka.SASLMechanism != "",
		SASLMechanism: c.Kafka.SASLMechanism,
		SASLUsername:  c.Kafka.SASLUsername,
		SASLPassword:  c.Kafka.SASLPassword,
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
