package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultConfigFile = "config.yaml"
	minSecretLength   = 32
	minBcryptCost     = 4
	maxBcryptCost     = 14
)

type Config struct {
	HTTP struct {
		Port              int           `koanf:"port"`
		ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
		IdleTimeout       time.Duration `koanf:"idleTimeout"`
		ShutdownTimeout   time.Duration `koanf:"shutdownTimeout"`
	} `koanf:"http"`

	Database struct {
		Path string `koanf:"path"`
	} `koanf:"database"`

	Auth struct {
		JWTSecret      string        `koanf:"jwtSecret"`
		TokenTTL       time.Duration `koanf:"tokenTTL"`
		PasswordHasher string        `koanf:"passwordHasher"`
		BcryptCost     int           `koanf:"bcryptCost"`
	} `koanf:"auth"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	// RateLimit applies to the /auth endpoints, per client IP.
	RateLimit struct {
		Rate  float64 `koanf:"rate"`
		Burst float64 `koanf:"burst"`
	} `koanf:"rateLimit"`
}

// envKeys maps the supported environment variables onto config paths.
var envKeys = map[string]string{
	"PORT":             "http.port",
	"DATABASE_PATH":    "database.path",
	"JWT_SECRET":       "auth.jwtSecret",
	"TOKEN_TTL":        "auth.tokenTTL",
	"PASSWORD_HASHER":  "auth.passwordHasher",
	"BCRYPT_COST":      "auth.bcryptCost",
	"LOG_LEVEL":        "log.level",
	"LOG_FORMAT":       "log.format",
	"RATE_LIMIT_RATE":  "rateLimit.rate",
	"RATE_LIMIT_BURST": "rateLimit.burst",
}

// Default returns the configuration used when neither file nor environment
// set a value. The JWT secret has no default.
func Default() *Config {
	cfg := new(Config)
	cfg.HTTP.Port = 3000
	cfg.HTTP.ReadHeaderTimeout = 10 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 5 * time.Second
	cfg.Database.Path = "tasks.db"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Auth.PasswordHasher = "sha256"
	cfg.Auth.BcryptCost = 12
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.RateLimit.Rate = 1
	cfg.RateLimit.Burst = 10
	return cfg
}

// Load reads the process environment. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(os.Environ)
}

// LoadFrom builds a Config from defaults, then the YAML file named by
// CONFIG_FILE (config.yaml if unset, skipped when absent), then the
// environment returned by environ. The result is validated.
func LoadFrom(environ func() []string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	path := lookup(environ, "CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	} else if explicit {
		return nil, errors.Wrapf(err, "config file %s", path)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			return envKeys[key], value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func lookup(environ func() []string, key string) string {
	prefix := key + "="
	for _, kv := range environ() {
		if v, ok := strings.CutPrefix(kv, prefix); ok {
			return v
		}
	}
	return ""
}

func (c *Config) Validate() error {
	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case len(c.Auth.JWTSecret) < minSecretLength:
		return errors.Errorf("JWT secret must be at least %d bytes for HMAC-SHA256", minSecretLength)
	case c.Auth.TokenTTL <= 0:
		return errors.Errorf("token TTL must be positive, got %s", c.Auth.TokenTTL)
	case c.Auth.PasswordHasher != "sha256" && c.Auth.PasswordHasher != "bcrypt":
		return errors.Errorf("unknown password hasher %q", c.Auth.PasswordHasher)
	case c.Auth.BcryptCost < minBcryptCost || c.Auth.BcryptCost > maxBcryptCost:
		return errors.Errorf("bcrypt cost must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, c.Auth.BcryptCost)
	case c.HTTP.Port < 1 || c.HTTP.Port > 65535:
		return errors.Errorf("invalid port %d", c.HTTP.Port)
	case c.RateLimit.Rate <= 0:
		return errors.Errorf("rate limit rate must be positive, got %v", c.RateLimit.Rate)
	case c.RateLimit.Burst < 1:
		return errors.Errorf("rate limit burst must be at least 1, got %v", c.RateLimit.Burst)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Logger builds the process logger from the log section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("unknown log format: %s", c.Log.Format)
	}
}

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log level: %s", level)
	}
}
