package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SESSION_IDLE_MINUTES", "5")
	t.Setenv("PAYMENT_METHODS_ENABLED", "cash, card")
	t.Setenv("CURRENCY_QUOTED", "ves")

	cfg := Load()

	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Fatalf("expected 5m idle timeout, got %s", cfg.Session.IdleTimeout)
	}
	if len(cfg.Currency.EnabledPaymentMethods) != 2 || cfg.Currency.EnabledPaymentMethods[1] != "card" {
		t.Fatalf("unexpected payment methods: %v", cfg.Currency.EnabledPaymentMethods)
	}
	if cfg.Currency.Quoted != "VES" {
		t.Fatalf("expected VES, got %q", cfg.Currency.Quoted)
	}
}

func TestLoadDoesNotInjectJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if cfg := Load(); cfg.JWT.Secret != "" {
		t.Fatalf("expected empty JWT secret when unset, got %q", cfg.JWT.Secret)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %v", got)
	}
}
