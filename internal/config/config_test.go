package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minioadmin")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minioadmin")
}

func TestLoad_DefaultsWithRequiredEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Fatalf("unexpected default api port %d", cfg.API.Port)
	}
	if cfg.Database.Name != "cardforge" || cfg.Database.SSLMode != "disable" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Worker.Concurrency != 10 {
		t.Fatalf("unexpected worker concurrency %d", cfg.Worker.Concurrency)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CLAMD_ADDR", "tcp://clamd:3310")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Fatalf("expected port override, got %d", cfg.API.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Fatalf("expected db host override, got %q", cfg.Database.Host)
	}
	if got := cfg.Redis.RedisAddr(); got != "redis.internal:6380" {
		t.Fatalf("unexpected redis addr %q", got)
	}
	if cfg.Clamd.Addr != "tcp://clamd:3310" {
		t.Fatalf("unexpected clamd addr %q", cfg.Clamd.Addr)
	}
}

func TestLoad_RejectsMissingCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without minio credentials")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, Name: "n", User: "u", Password: "p", SSLMode: "disable"}
	want := "host=h port=5432 user=u password=p dbname=n sslmode=disable"
	if got := d.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}
