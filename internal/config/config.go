package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig   `json:"server"`
	Database   DatabaseConfig `json:"database"`
	Security   SecurityConfig `json:"security"`
	Identity   VendorConfig   `json:"identity_vendor"`
	Bureau     BureauConfig   `json:"credit_bureau"`
	Fraud      VendorConfig   `json:"fraud_vendor"`
	LoanSystem VendorConfig   `json:"loan_system"`
	SMS        SMSConfig      `json:"sms"`
	Storage    StorageConfig  `json:"storage"`
	Fees       FeesConfig     `json:"fees"`
	OTV        OTVConfig      `json:"otv"`
	Logging    LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// SecurityConfig holds the JWT signing secret and the secret the PII
// encryption key is derived from.
type SecurityConfig struct {
	JWTSecret        string `json:"jwt_secret"`
	EncryptionSecret string `json:"encryption_secret"`
}

// VendorConfig is the common account shape for vendors with a login handshake.
type VendorConfig struct {
	BaseURL  string `json:"base_url"`
	LoginID  string `json:"login_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// BureauConfig represents the credit bureau account. The bureau embeds
// credentials in the request path rather than a login handshake.
type BureauConfig struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Origin   string `json:"origin"`
}

// SMSConfig configures the outbound SMS channel
type SMSConfig struct {
	Region   string `json:"region"`
	SenderID string `json:"sender_id"`
}

// StorageConfig configures the document object store
type StorageConfig struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
}

// FeesConfig points at the regulated fee table file
type FeesConfig struct {
	TablePath string `json:"table_path"`
}

// OTVConfig configures the one-time verification link flow
type OTVConfig struct {
	VerificationBaseURL string `json:"verification_base_url"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "origination_portal",
			SSLMode: "disable",
		},
		SMS: SMSConfig{
			Region: "af-south-1",
		},
		Storage: StorageConfig{
			Region: "af-south-1",
			Bucket: "origination-documents",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if secret := os.Getenv("ENCRYPTION_SECRET"); secret != "" {
		config.Security.EncryptionSecret = secret
	}

	overrideVendorWithEnv(&config.Identity, "IDENTITY_VENDOR")
	overrideVendorWithEnv(&config.Fraud, "FRAUD_VENDOR")
	overrideVendorWithEnv(&config.LoanSystem, "LOAN_SYSTEM")

	if url := os.Getenv("CREDIT_BUREAU_BASE_URL"); url != "" {
		config.Bureau.BaseURL = url
	}
	if user := os.Getenv("CREDIT_BUREAU_USERNAME"); user != "" {
		config.Bureau.Username = user
	}
	if pass := os.Getenv("CREDIT_BUREAU_PASSWORD"); pass != "" {
		config.Bureau.Password = pass
	}
	if origin := os.Getenv("CREDIT_BUREAU_ORIGIN"); origin != "" {
		config.Bureau.Origin = origin
	}
	if bucket := os.Getenv("DOCUMENT_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if path := os.Getenv("FEE_TABLE_PATH"); path != "" {
		config.Fees.TablePath = path
	}
	if url := os.Getenv("OTV_VERIFICATION_BASE_URL"); url != "" {
		config.OTV.VerificationBaseURL = url
	}
}

func overrideVendorWithEnv(vendor *VendorConfig, prefix string) {
	if url := os.Getenv(prefix + "_BASE_URL"); url != "" {
		vendor.BaseURL = url
	}
	if id := os.Getenv(prefix + "_LOGIN_ID"); id != "" {
		vendor.LoginID = id
	}
	if user := os.Getenv(prefix + "_USERNAME"); user != "" {
		vendor.Username = user
	}
	if pass := os.Getenv(prefix + "_PASSWORD"); pass != "" {
		vendor.Password = pass
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
