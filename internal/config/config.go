package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FolderConfig names the object-key prefix each resource type uploads into.
type FolderConfig struct {
	Bikes   string
	Albums  string
	Gallery string
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	Region     string
	PublicBase string
	LinkSecret string
	Folders    FolderConfig
}

type SecurityConfig struct {
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	MaxSessions      int
}

type RateLimitConfig struct {
	Capacity   int64
	RefillRate int64
}

type WorkerConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	SweepGrace    time.Duration
	SweepSchedule string
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	Logging          LoggingConfig
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("RECONDITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	require := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	require(c.Postgres.DSN, "postgres.dsn")
	require(c.Storage.Endpoint, "storage.endpoint")
	require(c.Storage.AccessKey, "storage.accesskey")
	require(c.Storage.SecretKey, "storage.secretkey")
	require(c.Storage.Bucket, "storage.bucket")
	require(c.Storage.PublicBase, "storage.publicbase")
	require(c.Storage.LinkSecret, "storage.linksecret")
	require(c.Storage.Folders.Bikes, "storage.folders.bikes")
	require(c.Storage.Folders.Albums, "storage.folders.albums")
	require(c.Storage.Folders.Gallery, "storage.folders.gallery")
	require(c.Security.JWTAccessSecret, "security.jwtaccesssecret")
	require(c.Security.JWTRefreshSecret, "security.jwtrefreshsecret")

	if c.HTTP.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("http.maxuploadbytes must be positive"))
	}
	if c.Security.MaxSessions <= 0 {
		errs = append(errs, errors.New("security.maxsessions must be positive"))
	}

	return errors.Join(errs...)
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("logging.level", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "60s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.maxuploadbytes", 64<<20)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "recondition-media")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbase", "http://localhost:8080")
	v.SetDefault("storage.linksecret", "")
	v.SetDefault("storage.folders.bikes", "bikes")
	v.SetDefault("storage.folders.albums", "albums")
	v.SetDefault("storage.folders.gallery", "gallery")

	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtrefreshsecret", "")
	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "720h") // 30 days
	v.SetDefault("security.maxsessions", 5)

	v.SetDefault("ratelimit.capacity", 60)
	v.SetDefault("ratelimit.refillrate", 60)

	v.SetDefault("worker.stream", "blobs:orphaned")
	v.SetDefault("worker.group", "blob-reapers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "30s")
	v.SetDefault("worker.sweepgrace", "24h")
	v.SetDefault("worker.sweepschedule", "0 30 3 * * *")

	v.SetDefault("allowcorsorigins", []string{})
}
