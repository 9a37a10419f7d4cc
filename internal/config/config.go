package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	DBDSN         string `envconfig:"DB_DSN" default:"superloja.db"`
	MediaDir      string `envconfig:"MEDIA_DIR" default:"./web/media"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	TemplatesDir  string `envconfig:"TEMPLATES_DIR" default:"./web/templates"`

	LogFile  string `envconfig:"LOG_FILE" default:"./superloja.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogMaxMB int    `envconfig:"LOG_MAX_MB" default:"50"`

	// Optional; an in-process cache is used when empty.
	RedisURL string `envconfig:"REDIS_URL"`

	// %s is replaced by the visitor IP.
	GeoIPURL      string        `envconfig:"GEOIP_URL" default:"https://ipapi.co/%s/json/"`
	GeoIPTimeout  time.Duration `envconfig:"GEOIP_TIMEOUT" default:"2s"`
	GeoIPCacheTTL time.Duration `envconfig:"GEOIP_CACHE_TTL" default:"6h"`

	SegmentationURL string `envconfig:"SEGMENTATION_URL"`

	AdminEmail   string `envconfig:"ADMIN_EMAIL" default:"admin@superloja.test"`
	AuctionSweep string `envconfig:"AUCTION_SWEEP" default:"@every 1m"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`
}

// Load reads the environment. Variable names carry no prefix.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.GeoIPTimeout <= 0 {
		return Config{}, fmt.Errorf("GEOIP_TIMEOUT must be positive, got %s", cfg.GeoIPTimeout)
	}
	return cfg, nil
}

// Testing returns a config suitable for in-memory tests.
func Testing() Config {
	return Config{
		Port:          "0",
		DBDSN:         ":memory:",
		MediaDir:      "",
		PublicBaseURL: "http://superloja.test",
		TemplatesDir:  "../../web/templates",
		LogLevel:      "debug",
		GeoIPURL:      "http://geo.invalid/%s/json/",
		GeoIPTimeout:  2 * time.Second,
		GeoIPCacheTTL: time.Hour,
		AdminEmail:    "admin@superloja.test",
		AuctionSweep:  "@every 1m",
	}
}
