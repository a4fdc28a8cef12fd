package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %s", cfg.Env)
	}
	if cfg.Mongo.Database != "incident_system" {
		t.Errorf("Mongo.Database = %s", cfg.Mongo.Database)
	}
	if cfg.AutoCloseAfter != 24*time.Hour {
		t.Errorf("AutoCloseAfter = %s", cfg.AutoCloseAfter)
	}
	if cfg.SweepSchedule != "@every 10m" {
		t.Errorf("SweepSchedule = %s", cfg.SweepSchedule)
	}
	if cfg.JWTSecret == "" {
		t.Errorf("development fallback secret missing")
	}
	if cfg.Production() {
		t.Errorf("development config reported production")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("AUTO_CLOSE_AFTER", "48h")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" || !cfg.Production() {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.AutoCloseAfter != 48*time.Hour {
		t.Errorf("AutoCloseAfter = %s", cfg.AutoCloseAfter)
	}
	if cfg.Auth.LoginMaxAttempts != 3 {
		t.Errorf("LoginMaxAttempts = %d", cfg.Auth.LoginMaxAttempts)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGO_URI", "mongodb://db:27017")

	if _, err := Load(); err == nil {
		t.Fatalf("production without JWT_SECRET must fail")
	}
}

func TestLoad_ProductionRequiresMongoURI(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("MONGO_URI", "")

	if _, err := Load(); err == nil {
		t.Fatalf("production without MONGO_URI must fail")
	}
}
