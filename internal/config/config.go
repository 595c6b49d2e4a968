package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketOriginals string
	UseSSL          bool
	Region          string
}

type SecurityConfig struct {
	// ImageTokenSecret signs short-lived image access tokens. There is no
	// compiled-in fallback: deployments must set it.
	ImageTokenSecret string
	ImageTokenTTL    time.Duration
	JWTSecret        string
	JWTTTL           time.Duration
	AllowedOrigins   []string
}

type MediaConfig struct {
	WatermarkLabel string
	JPEGQuality    int
	ThumbnailMax   int
	MaxUploadBytes int64
}

type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	Max     int
}

type AppConfig struct {
	Environment string
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Security    SecurityConfig
	Media       MediaConfig
	RateLimit   RateLimitConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("LENSFOLIO")
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

	if cfg.Security.ImageTokenSecret == "" {
		return nil, fmt.Errorf("security.imagetokensecret must be set")
	}
	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("security.jwtsecret must be set")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketoriginals", "lensfolio-originals")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.imagetokenttl", "60s")
	v.SetDefault("security.jwtttl", "24h")
	v.SetDefault("security.allowedorigins", "http://localhost:5173,http://localhost:5174")

	v.SetDefault("media.watermarklabel", "SANKHANIL")
	v.SetDefault("media.jpegquality", 85)
	v.SetDefault("media.thumbnailmax", 400)
	v.SetDefault("media.maxuploadbytes", 25<<20)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.window", "15m")
	v.SetDefault("ratelimit.max", 1000)
}
