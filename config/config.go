package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config - database, cache, migrations, rollout engine and logging settings
type Config struct {
	DB         DataBaseConfig  `envPrefix:"DB_"`
	Cache      CacheConfig     `envPrefix:"CACHE_"`
	Migrations MigrationConfig `envPrefix:"MIGRATION_"`
	Rollout    RolloutConfig   `envPrefix:"ROLLOUT_"`
	Log        LogConfig       `envPrefix:"LOG_"`
}

// NewConfig - load data from ENV (file or ENV variables)
func NewConfig(pathToEnv string) (*Config, error) {
	log.Print("config: config start")

	cfg := &Config{}
	if err := cfg.parse(pathToEnv); err != nil {
		return nil, fmt.Errorf("config: env.Parse error - {%w};", err)
	}

	log.Print("config: config created")

	return cfg, nil
}

func (cfg *Config) parse(pathToEnv string) error {
	if pathToEnv != "" {
		if err := godotenv.Load(pathToEnv); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("config: .env file error - {%v};", err)
				return err
			}
			// work with ENV
			log.Printf("config: .env file {%s} not found, using environment", pathToEnv)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	cfg.DB.URL = cfg.DB.url()

	log.Print("config: parse end")

	return nil
}

type DataBaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     uint16 `env:"PORT" envDefault:"5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`

	URL string `env:"-"`
}

func (cfgDB *DataBaseConfig) url() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(cfgDB.User, cfgDB.Password),
		Host:   fmt.Sprintf("%s:%d", cfgDB.Host, cfgDB.Port),
		Path:   "/" + cfgDB.Name,
	}
	if cfgDB.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfgDB.SSLMode}}.Encode()
	}
	return u.String()
}

type CacheConfig struct {
	TTLLRU  time.Duration `env:"TTL_LRU" envDefault:"5m"`
	SizeLRU int           `env:"SIZE_LRU" envDefault:"1000"`
}

type MigrationConfig struct {
	PathToMigrations string `env:"PATH" envDefault:"migrations"`
	Action           string `env:"ACTION" envDefault:"up"`
	Version          int64  `env:"VERSION"`
}

type RolloutConfig struct {
	// FlaggableTypes - record types database groups may be created for
	FlaggableTypes []string `env:"FLAGGABLE_TYPES" envSeparator:","`
	// GrepDirs - globs scanned by feature discovery
	GrepDirs    []string `env:"GREP_DIRS" envSeparator:"," envDefault:"."`
	CallPattern string   `env:"CALL_PATTERN"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}
