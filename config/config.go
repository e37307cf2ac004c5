// Package config loads service settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"projectboard/storage"
)

const (
	BackendMemory = "memory"
	BackendTable  = "table"
)

type Config struct {
	StorageBackend          string        `mapstructure:"storage_backend"`
	StorageConnectionString string        `mapstructure:"storage_connection_string"`
	ProjectsTable           string        `mapstructure:"projects_table"`
	TasksTable              string        `mapstructure:"tasks_table"`
	EmployeesTable          string        `mapstructure:"employees_table"`
	CategoriesTable         string        `mapstructure:"categories_table"`
	TablePartition          string        `mapstructure:"table_partition"`
	DomainEventsQueue       string        `mapstructure:"domain_events_queue"`
	RedisConnectionString   string        `mapstructure:"redis_connection_string"`
	CacheTTL                time.Duration `mapstructure:"cache_ttl"`
	SeedGuard               bool          `mapstructure:"seed_guard"`
	Auth0Domain             string        `mapstructure:"auth0_domain"`
	Auth0Audience           string        `mapstructure:"auth0_audience"`
	Auth0TestMode           bool          `mapstructure:"auth0_test_mode"`
	TestJWTSecret           string        `mapstructure:"test_jwt_secret"`
	JWKSCacheTTL            time.Duration `mapstructure:"jwks_cache_ttl"`
	ListenAddr              string        `mapstructure:"listen_addr"`
	Debug                   bool          `mapstructure:"debug"`
}

var defaults = map[string]any{
	"storage_backend":           BackendMemory,
	"storage_connection_string": "",
	"projects_table":            "Projects",
	"tasks_table":               "Tasks",
	"employees_table":           "Employees",
	"categories_table":          "Categories",
	"table_partition":           "board",
	"domain_events_queue":       "",
	"redis_connection_string":   "",
	"cache_ttl":                 "5m",
	"seed_guard":                false,
	"auth0_domain":              "",
	"auth0_audience":            "",
	"auth0_test_mode":           false,
	"test_jwt_secret":           "",
	"jwks_cache_ttl":            "15m",
	"listen_addr":               ":8080",
	"debug":                     false,
}

// Load reads path when it is non-empty, then applies environment overrides
// such as STORAGE_CONNECTION_STRING or CACHE_TTL.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	return cfg, nil
}

// Validate checks that the selected backend and auth mode are fully
// configured.
func (c *Config) Validate() error {
	var errs []error
	switch c.StorageBackend {
	case BackendMemory:
	case BackendTable:
		if c.StorageConnectionString == "" {
			errs = append(errs, errors.New("missing storage config"))
		}
		if c.RedisConnectionString == "" {
			errs = append(errs, errors.New("missing redis config"))
		}
		if c.CacheTTL <= 0 {
			errs = append(errs, errors.New("invalid CACHE_TTL: must be greater than zero"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.SeedGuard && c.RedisConnectionString == "" {
		errs = append(errs, errors.New("SEED_GUARD requires REDIS_CONNECTION_STRING"))
	}
	if c.DomainEventsQueue != "" && c.StorageConnectionString == "" {
		errs = append(errs, errors.New("DOMAIN_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING"))
	}
	if c.Auth0TestMode {
		if c.TestJWTSecret == "" {
			errs = append(errs, errors.New("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE=1"))
		}
	} else if c.Auth0Domain == "" || c.Auth0Audience == "" {
		errs = append(errs, errors.New("missing Auth0 config"))
	}
	return errors.Join(errs...)
}

// JWKSURL is the key set location of the configured Auth0 tenant.
func (c *Config) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", c.Auth0Domain)
}

func (c *Config) Issuer() string {
	if c.Auth0Domain == "" {
		return ""
	}
	return "https://" + c.Auth0Domain + "/"
}

func (c *Config) TableConfig() storage.TableConfig {
	return storage.TableConfig{
		ConnectionString: c.StorageConnectionString,
		Partition:        c.TablePartition,
		ProjectsTable:    c.ProjectsTable,
		TasksTable:       c.TasksTable,
		EmployeesTable:   c.EmployeesTable,
		CategoriesTable:  c.CategoriesTable,
		CacheTTL:         c.CacheTTL,
	}
}

// Tables lists every table the table backend uses.
func (c *Config) Tables() []string {
	return []string{c.ProjectsTable, c.TasksTable, c.EmployeesTable, c.CategoriesTable}
}

func (c *Config) Queues() []string {
	if c.DomainEventsQueue == "" {
		return nil
	}
	return []string{c.DomainEventsQueue}
}

// RedisOptions accepts a redis:// URL or the Azure style
// "host:port,password=...,ssl=true" form.
func (c *Config) RedisOptions() (*redis.Options, error) {
	return ParseRedis(c.RedisConnectionString)
}

func ParseRedis(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, errors.New("missing redis config")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}
