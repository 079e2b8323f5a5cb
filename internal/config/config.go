package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`

	// PostgresURL empty selects the in-memory directory.
	PostgresURL    string   `mapstructure:"postgres_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicURL      string   `mapstructure:"public_url"`

	DefaultCapacity    int `mapstructure:"default_capacity"`
	MaxCapacity        int `mapstructure:"max_capacity"`
	InviteCodeLength   int `mapstructure:"invite_code_length"`
	InviteCodeAttempts int `mapstructure:"invite_code_attempts"`

	StrokeCacheSize int     `mapstructure:"stroke_cache_size"`
	StrokeRate      float64 `mapstructure:"stroke_rate"`
	StrokeBurst     int     `mapstructure:"stroke_burst"`
}

const envPrefix = "DRAWQUIZ"

// DevSecret is the default signing key. Release mode refuses to run with it.
const DevSecret = "dev-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", DevSecret)
	v.SetDefault("token_ttl", "720h")
	v.SetDefault("postgres_url", "")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("public_url", "http://localhost:5173")
	v.SetDefault("default_capacity", 8)
	v.SetDefault("max_capacity", 50)
	v.SetDefault("invite_code_length", 8)
	v.SetDefault("invite_code_attempts", 5)
	v.SetDefault("stroke_cache_size", 200)
	v.SetDefault("stroke_rate", 60)
	v.SetDefault("stroke_burst", 120)
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then DRAWQUIZ_* environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load without .env handling. A missing file leaves the defaults in place.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Mode == "release" && (cfg.Secret == "" || cfg.Secret == DevSecret) {
		return nil, fmt.Errorf("secret must be set in release mode (%s_SECRET)", envPrefix)
	}
	if cfg.MaxCapacity < cfg.DefaultCapacity {
		return nil, fmt.Errorf("max_capacity %d below default_capacity %d", cfg.MaxCapacity, cfg.DefaultCapacity)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Bool("postgres", cfg.PostgresURL != "").Msg("config ready")
	return &cfg, nil
}
