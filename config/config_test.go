package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendMemory || cfg.ListenAddr != ":8080" || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.TablePartition != "board" || cfg.CategoriesTable != "Categories" {
		t.Fatalf("unexpected table defaults: %#v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	data := "storage_backend: table\nprojects_table: FileProjects\ncache_ttl: 30s\nauth0_domain: file.example.com\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PROJECTS_TABLE", "EnvProjects")
	t.Setenv("AUTH0_TEST_MODE", "1")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendTable || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("file values not applied: %#v", cfg)
	}
	if cfg.ProjectsTable != "EnvProjects" {
		t.Fatalf("env must override file, got %q", cfg.ProjectsTable)
	}
	if !cfg.Auth0TestMode || !cfg.Debug {
		t.Fatalf("boolean env values not applied: %#v", cfg)
	}
	if cfg.Issuer() != "https://file.example.com/" || cfg.JWKSURL() != "https://file.example.com/.well-known/jwks.json" {
		t.Fatalf("unexpected auth0 urls %q %q", cfg.Issuer(), cfg.JWKSURL())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"memory test mode", Config{StorageBackend: BackendMemory, Auth0TestMode: true, TestJWTSecret: "s"}, ""},
		{"memory auth0", Config{StorageBackend: BackendMemory, Auth0Domain: "d", Auth0Audience: "a"}, ""},
		{"missing auth0", Config{StorageBackend: BackendMemory}, "missing Auth0 config"},
		{"missing secret", Config{StorageBackend: BackendMemory, Auth0TestMode: true}, "TEST_JWT_SECRET"},
		{"table without storage", Config{StorageBackend: BackendTable, RedisConnectionString: "r", CacheTTL: time.Minute, Auth0TestMode: true, TestJWTSecret: "s"}, "missing storage config"},
		{"table without redis", Config{StorageBackend: BackendTable, StorageConnectionString: "c", CacheTTL: time.Minute, Auth0TestMode: true, TestJWTSecret: "s"}, "missing redis config"},
		{"guard without redis", Config{StorageBackend: BackendMemory, SeedGuard: true, Auth0TestMode: true, TestJWTSecret: "s"}, "SEED_GUARD"},
		{"unknown backend", Config{StorageBackend: "mongo", Auth0TestMode: true, TestJWTSecret: "s"}, "unsupported STORAGE_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseRedis(t *testing.T) {
	opts, err := ParseRedis("cache.redis.example.net:6380,password=secret,ssl=True,abortConnect=False")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "cache.redis.example.net:6380" || opts.Password != "secret" || opts.TLSConfig == nil {
		t.Fatalf("unexpected options: %#v", opts)
	}
	opts, err = ParseRedis("redis://:pw@localhost:6379/2")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected url options: %#v", opts)
	}
	if _, err := ParseRedis(""); err == nil {
		t.Fatalf("expected error for empty connection string")
	}
}
