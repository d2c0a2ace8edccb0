// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// minHistoryDays is the horizon the forecast windows need.
const minHistoryDays = 180

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Forecast ForecastConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds a postgres connection string from the individual settings.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	SnapshotTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Configured reports whether enough is set to reach an object store.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

type DriveConfig struct {
	CredentialsJSON string
	CredentialsFile string
	RootFolderID    string
}

// Credentials returns the service account key, inline or from
// CredentialsFile.
func (d DriveConfig) Credentials() ([]byte, error) {
	if d.CredentialsJSON != "" {
		return []byte(d.CredentialsJSON), nil
	}
	if d.CredentialsFile == "" {
		return nil, fmt.Errorf("google drive is not configured (GOOGLE_DRIVE_CREDENTIALS_JSON or GOOGLE_DRIVE_CREDENTIALS_FILE)")
	}
	data, err := os.ReadFile(d.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials: %w", err)
	}
	return data, nil
}

type ForecastConfig struct {
	// Snapshot is a file path, s3://bucket/key or gdrive://folder/file to
	// read snapshots from.
	// Empty selects the database.
	Snapshot              string
	OrderingCost          float64
	HoldingCostPercentage float64
	Workers               int
	HistoryDays           int
}

// Settings returns the cost parameters used when the data source stores none.
func (f ForecastConfig) Settings() domain.Settings {
	return domain.Settings{
		OrderingCost:          decimal.NewFromFloat(f.OrderingCost),
		HoldingCostPercentage: f.HoldingCostPercentage,
	}
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "partsight")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_SNAPSHOT_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "partsight")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_FILE", "")
	v.SetDefault("GOOGLE_DRIVE_ROOT_FOLDER_ID", "root")
	v.SetDefault("FORECAST_SNAPSHOT", "")
	v.SetDefault("FORECAST_ORDERING_COST", 0)
	v.SetDefault("FORECAST_HOLDING_COST_PERCENTAGE", 0)
	v.SetDefault("FORECAST_WORKERS", 8)
	v.SetDefault("FORECAST_HISTORY_DAYS", minHistoryDays)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) *Config {
	workers := v.GetInt("FORECAST_WORKERS")
	if workers < 1 {
		workers = 1
	}
	historyDays := v.GetInt("FORECAST_HISTORY_DAYS")
	if historyDays < minHistoryDays {
		historyDays = minHistoryDays
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			SnapshotTTLSeconds: v.GetInt("CACHE_SNAPSHOT_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			CredentialsFile: v.GetString("GOOGLE_DRIVE_CREDENTIALS_FILE"),
			RootFolderID:    v.GetString("GOOGLE_DRIVE_ROOT_FOLDER_ID"),
		},
		Forecast: ForecastConfig{
			Snapshot:              v.GetString("FORECAST_SNAPSHOT"),
			OrderingCost:          v.GetFloat64("FORECAST_ORDERING_COST"),
			HoldingCostPercentage: v.GetFloat64("FORECAST_HOLDING_COST_PERCENTAGE"),
			Workers:               workers,
			HistoryDays:           historyDays,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
