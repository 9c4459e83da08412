// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Reporting ReportingConfig
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

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Region     string
	UseSSL     bool
	DumpPrefix string
}

// ReportingConfig tunes the aggregation core.
type ReportingConfig struct {
	BreakdownTopN          int     // max buckets in supplier/destination/school-type breakdowns
	DefaultProcessingDays  float64 // returned when a processing-time sample is empty
	QuantityTolerance      float64 // cached-total vs line-item-sum mismatch threshold
	DefaultWarehouseID     string
	DefaultCouncilID       string
	DefaultSchoolID        string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "edusupply")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 60)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "edusupply-records")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_DUMP_PREFIX", "dumps/")
		viper.SetDefault("REPORT_BREAKDOWN_TOP_N", 10)
		viper.SetDefault("REPORT_DEFAULT_PROCESSING_DAYS", 0)
		viper.SetDefault("REPORT_QUANTITY_TOLERANCE", 0.5)
		viper.SetDefault("REPORT_DEFAULT_WAREHOUSE_ID", "")
		viper.SetDefault("REPORT_DEFAULT_COUNCIL_ID", "")
		viper.SetDefault("REPORT_DEFAULT_SCHOOL_ID", "")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ReportTTLSeconds: viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:   viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:  viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:  viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:     viper.GetString("STORAGE_BUCKET"),
				Region:     viper.GetString("STORAGE_REGION"),
				UseSSL:     viper.GetBool("STORAGE_USE_SSL"),
				DumpPrefix: viper.GetString("STORAGE_DUMP_PREFIX"),
			},
			Reporting: ReportingConfig{
				BreakdownTopN:         viper.GetInt("REPORT_BREAKDOWN_TOP_N"),
				DefaultProcessingDays: viper.GetFloat64("REPORT_DEFAULT_PROCESSING_DAYS"),
				QuantityTolerance:     viper.GetFloat64("REPORT_QUANTITY_TOLERANCE"),
				DefaultWarehouseID:    viper.GetString("REPORT_DEFAULT_WAREHOUSE_ID"),
				DefaultCouncilID:      viper.GetString("REPORT_DEFAULT_COUNCIL_ID"),
				DefaultSchoolID:       viper.GetString("REPORT_DEFAULT_SCHOOL_ID"),
			},
		}
	})

	return instance
}
