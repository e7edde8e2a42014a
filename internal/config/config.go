package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Tracking *trackingConfig
	Storage  *storageConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"downloader.db"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"DOWNLOADER_ADDRESS" default:":5000"`
	MetricsAddress  string   `envconfig:"DOWNLOADER_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"DOWNLOADER_LOG_LEVEL" default:"info"`
	LogFormat       string   `envconfig:"DOWNLOADER_LOG_FORMAT" default:"console"`
	AllowedOrigins  []string `envconfig:"DOWNLOADER_ALLOWED_ORIGINS" default:"*"`
	MigrationFolder string   `envconfig:"DOWNLOADER_MIGRATIONS_FOLDER" default:""`
	Download        downloadConfig
}

type downloadConfig struct {
	Folder          string        `envconfig:"DOWNLOADER_FOLDER" default:"downloads"`
	YtDlpPath       string        `envconfig:"DOWNLOADER_YTDLP_PATH" default:"yt-dlp"`
	CookiesFile     string        `envconfig:"DOWNLOADER_COOKIES_FILE" default:"cookies.txt"`
	MaxFileSize     string        `envconfig:"DOWNLOADER_MAX_FILESIZE" default:"500M"`
	MaxConcurrent   int64         `envconfig:"DOWNLOADER_MAX_CONCURRENT" default:"4"`
	JobTimeout      time.Duration `envconfig:"DOWNLOADER_JOB_TIMEOUT" default:"30m"`
	Retention       time.Duration `envconfig:"DOWNLOADER_RETENTION" default:"24h"`
	CleanupInterval time.Duration `envconfig:"DOWNLOADER_CLEANUP_INTERVAL" default:"1h"`
}

type trackingConfig struct {
	DSN        string        `envconfig:"TRACKING_DATABASE_URL" default:""`
	GeoURL     string        `envconfig:"TRACKING_GEO_URL" default:"https://ipapi.co"`
	GeoTimeout time.Duration `envconfig:"TRACKING_GEO_TIMEOUT" default:"3s"`
}

type storageConfig struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"S3_BUCKET" default:"downloads"`
	AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"true"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsPostgres() bool {
	return c.Database.Type == "pgsql"
}

func (c *Config) TrackingEnabled() bool {
	return c.Tracking.DSN != ""
}

func (c *Config) MirrorEnabled() bool {
	return c.Storage.Endpoint != ""
}
