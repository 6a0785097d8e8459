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

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type LoyaltyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls session persistence and revalidation. MinTTL is the
// floor applied to backend-issued expiry windows: a session never lives
// shorter than this, regardless of the token's own expires_in.
type SessionConfig struct {
	MinTTL             time.Duration
	RevalidateInterval time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Redis            RedisConfig
	OTP              OTPConfig
	Loyalty          LoyaltyConfig
	Session          SessionConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ACTIVECLUB")
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

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("otp.baseurl", "https://otp.activeclub.qa/api/v1/otp")
	v.SetDefault("otp.apikey", "")
	v.SetDefault("otp.timeout", "15s")

	v.SetDefault("loyalty.baseurl", "https://capillary.activeclub.qa/api/v1.1")
	v.SetDefault("loyalty.timeout", "15s")

	v.SetDefault("session.minttl", "720h") // 30 days
	v.SetDefault("session.revalidateinterval", "5m")
}
