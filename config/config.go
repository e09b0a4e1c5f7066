// Package config loads the server configuration.
//
// Sources are layered, later ones win:
//
//  1. struct defaults
//  2. the optional YAML file: its "default" section, then the section named
//     after the active environment
//  3. environment variables prefixed REVIEWS_ ("__" separates nesting, so
//     REVIEWS_AUTH__SIGNING_KEY sets auth.signing_key)
//  4. command line flags
package config

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix          = "REVIEWS_"
	EnvironmentEnvVar  = "APP_ENV"
	DefaultEnvironment = "development"
	DefaultConfigFile  = "config/app.yml"
	defaultSection     = "default"
	insecureSigningKey = "development-signing-key-change-me"

	// ProductionEnvironment refuses to start with the built in signing key
	ProductionEnvironment = "production"
)

type Config struct {
	Environment string      `koanf:"environment"`
	Server      Server      `koanf:"server"`
	Persistence Persistence `koanf:"persistence"`
	Auth        Auth        `koanf:"auth"`
	Admin       Admin       `koanf:"admin"`
	Logging     Logging     `koanf:"logging"`
	Content     Content     `koanf:"content"`
}

type Server struct {
	Address string `koanf:"address"`
}

type Persistence struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	Debug  bool   `koanf:"debug"`
}

type Auth struct {
	SigningKey         string `koanf:"signing_key"`
	CookieName         string `koanf:"cookie_name"`
	CookieSecure       bool   `koanf:"cookie_secure"`
	Issuer             string `koanf:"issuer"`
	BcryptCost         int    `koanf:"bcrypt_cost"`
	UniformLoginErrors bool   `koanf:"uniform_login_errors"`
	UseHashid          bool   `koanf:"use_hashid"`
}

type Admin struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

type Logging struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type Content struct {
	PageSize int `koanf:"page_size"`
}

// Defaults returns the development configuration
func Defaults() Config {
	return Config{
		Environment: DefaultEnvironment,
		Server: Server{
			Address: ":3000",
		},
		Persistence: Persistence{
			Driver: "sqlite",
			DSN:    "file:reviews.db?cache=shared",
		},
		Auth: Auth{
			SigningKey: insecureSigningKey,
			CookieName: "auth",
			Issuer:     "go-reviews",
			BcryptCost: 10,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Content: Content{
			PageSize: 10,
		},
	}
}

// Options tune Load
type Options struct {
	// File is the YAML config path. A missing file is not an error.
	File string
	// Environment selects the YAML section. Falls back to APP_ENV.
	Environment string
	// Flags are parsed flags registered with RegisterFlags
	Flags *pflag.FlagSet
	// Overrides are applied last, keyed by dotted path
	Overrides map[string]any
	// Environ replaces os.Environ, mostly for tests
	Environ func() []string
}

// RegisterFlags adds the supported command line flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", DefaultConfigFile, "path to the YAML config file")
	fs.String("env", "", "config environment section (defaults to $APP_ENV)")
	fs.String("server.address", "", "listen address")
	fs.String("persistence.driver", "", "database driver: sqlite or postgres")
	fs.String("persistence.dsn", "", "database DSN")
	fs.Bool("persistence.debug", false, "log SQL queries")
	fs.String("logging.level", "", "log level: debug, info, warn, error")
	fs.String("logging.format", "", "log format: text or json")
}

// Load builds the configuration from every source
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "load config defaults")
	}

	environment := resolveEnvironment(opts)
	if err := loadFile(k, opts.File, environment); err != nil {
		return nil, err
	}

	if err := loadEnv(k, opts.Environ); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.Provider(opts.Flags, ".", k), nil); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "load config flags")
		}
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "load config overrides")
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "decode config")
	}
	cfg.Environment = environment

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolveEnvironment(opts Options) string {
	if opts.Environment != "" {
		return opts.Environment
	}
	if opts.Flags != nil {
		if v, err := opts.Flags.GetString("env"); err == nil && v != "" {
			return v
		}
	}
	if v := os.Getenv(EnvironmentEnvVar); v != "" {
		return v
	}
	return DefaultEnvironment
}

func loadFile(k *koanf.Koanf, path, environment string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.CategoryInternal, "stat config file")
	}

	raw := koanf.New(".")
	if err := raw.Load(file.Provider(path), yaml.Parser()); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "parse config file "+path)
	}

	for _, section := range []string{defaultSection, environment} {
		if !raw.Exists(section) {
			continue
		}
		if err := k.Merge(raw.Cut(section)); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "merge config section "+section)
		}
	}

	return nil
}

func loadEnv(k *koanf.Koanf, environ func() []string) error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}

	if environ == nil {
		if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "load config env")
		}
		return nil
	}

	values := map[string]any{}
	for _, kv := range environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		values[transform(key)] = value
	}

	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "load config env")
	}
	return nil
}

// Validate checks the values the server cannot start without
func (c Config) Validate() error {
	switch strings.ToLower(c.Persistence.Driver) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
	default:
		return errors.New("persistence.driver must be sqlite or postgres", errors.CategoryValidation).
			WithTextCode("INVALID_CONFIG")
	}

	if c.Persistence.DSN == "" {
		return errors.New("persistence.dsn is required", errors.CategoryValidation).
			WithTextCode("INVALID_CONFIG")
	}

	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required", errors.CategoryValidation).
			WithTextCode("INVALID_CONFIG")
	}

	if strings.EqualFold(c.Environment, ProductionEnvironment) && c.UsesInsecureSigningKey() {
		return errors.New("auth.signing_key must be set in production", errors.CategoryValidation).
			WithTextCode("INVALID_CONFIG")
	}

	if c.Content.PageSize < 0 {
		return errors.New("content.page_size must not be negative", errors.CategoryValidation).
			WithTextCode("INVALID_CONFIG")
	}

	return nil
}

// UsesInsecureSigningKey reports whether the built in development key is active
func (c Config) UsesInsecureSigningKey() bool {
	return c.Auth.SigningKey == insecureSigningKey
}
