package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverPgsql  = "pgsql"
	StoreDriverMemory = "memory"
	AuditStoreMongo   = "mongo"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	LogLevel       string
	EnableDBCheck  bool
	DBMaxConns     int32
	DBMinConns     int32
	MigrationsPath string
	StoreDriver    string

	JWTSecret          string
	JWTIssuer          string
	ServiceKeyHashes   map[string]string // service name -> bcrypt hash of its API key
	RateLimit          string
	CORSAllowedOrigins []string

	EntryNumberPrefix          string
	EntryNumberWidth           int
	NumberingMaxRetries        int
	PayableAccountCode         string
	SupplierAdvanceAccountCode string

	AuditStore    string
	AuditWorkers  int
	MongoURI      string
	MongoDatabase string

	KafkaBrokers      []string
	KafkaLedgerTopic  string
	KafkaWriteTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		DBMaxConns:     v.GetInt32("DB_MAX_CONNS"),
		DBMinConns:     v.GetInt32("DB_MIN_CONNS"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		StoreDriver:    strings.ToLower(v.GetString("STORE_DRIVER")),

		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		EntryNumberPrefix:          v.GetString("ENTRY_NUMBER_PREFIX"),
		EntryNumberWidth:           v.GetInt("ENTRY_NUMBER_WIDTH"),
		NumberingMaxRetries:        v.GetInt("NUMBERING_MAX_RETRIES"),
		PayableAccountCode:         v.GetString("PAYABLE_ACCOUNT_CODE"),
		SupplierAdvanceAccountCode: v.GetString("SUPPLIER_ADVANCE_ACCOUNT_CODE"),

		AuditStore:    strings.ToLower(v.GetString("AUDIT_STORE")),
		AuditWorkers:  v.GetInt("AUDIT_WORKERS"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		KafkaBrokers:      splitList(v.GetString("KAFKA_BROKERS")),
		KafkaLedgerTopic:  v.GetString("KAFKA_LEDGER_TOPIC"),
		KafkaWriteTimeout: v.GetDuration("KAFKA_WRITE_TIMEOUT"),
	}

	hashes, err := parseServiceKeyHashes(v.GetString("SERVICE_API_KEY_HASHES"))
	if err != nil {
		return nil, err
	}
	cfg.ServiceKeyHashes = hashes

	if cfg.StoreDriver == StoreDriverPgsql && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("STORE_DRIVER", StoreDriverPgsql)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "ledger-core")
	v.SetDefault("SERVICE_API_KEY_HASHES", "")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("ENTRY_NUMBER_PREFIX", "JE-")
	v.SetDefault("ENTRY_NUMBER_WIDTH", 6)
	v.SetDefault("NUMBERING_MAX_RETRIES", 3)
	v.SetDefault("PAYABLE_ACCOUNT_CODE", "2000")
	v.SetDefault("SUPPLIER_ADVANCE_ACCOUNT_CODE", "1400")
	v.SetDefault("AUDIT_STORE", StoreDriverPgsql)
	v.SetDefault("AUDIT_WORKERS", 8)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "ledger_audit")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_LEDGER_TOPIC", "ledger.journal-events")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "5s")
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPgsql, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StoreDriverPgsql, StoreDriverMemory)
	}
	switch c.AuditStore {
	case StoreDriverPgsql, AuditStoreMongo:
	default:
		return fmt.Errorf("invalid AUDIT_STORE %q: must be %s or %s", c.AuditStore, StoreDriverPgsql, AuditStoreMongo)
	}
	if c.EntryNumberWidth < 1 {
		return fmt.Errorf("ENTRY_NUMBER_WIDTH must be positive, got %d", c.EntryNumberWidth)
	}
	if c.NumberingMaxRetries < 0 {
		return fmt.Errorf("NUMBERING_MAX_RETRIES must not be negative, got %d", c.NumberingMaxRetries)
	}
	if c.AuditWorkers < 1 {
		return fmt.Errorf("AUDIT_WORKERS must be positive, got %d", c.AuditWorkers)
	}
	if c.PayableAccountCode == "" || c.SupplierAdvanceAccountCode == "" {
		return fmt.Errorf("PAYABLE_ACCOUNT_CODE and SUPPLIER_ADVANCE_ACCOUNT_CODE are required")
	}
	return nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseServiceKeyHashes parses "name:hash,name2:hash2".
func parseServiceKeyHashes(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range splitList(raw) {
		name, hash, ok := strings.Cut(pair, ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("invalid SERVICE_API_KEY_HASHES entry %q: want name:bcrypt-hash", pair)
		}
		out[name] = hash
	}
	return out, nil
}
