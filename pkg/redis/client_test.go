package redis

import (
	"testing"
	"time"

	"github.com/kasuwahq/kasuwa-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		Address:      "localhost:6379",
		Password:     "pw",
		DB:           2,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 5 {
		t.Fatalf("options not applied: %+v", opts)
	}
}

func TestOptionsFromConfigURLWins(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:     "redis://localhost:6400/3",
		Address: "ignored:1",
	})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6400" || opts.DB != 3 {
		t.Fatalf("url not honored: %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	if got := OTPKey("email-verify", "user-1"); got != "ksw:otp:email-verify:user-1" {
		t.Fatalf("otp key = %q", got)
	}
	if got := IdempotencyKey("checkout", "abc"); got != "ksw:idempotency:checkout:abc" {
		t.Fatalf("idempotency key = %q", got)
	}
}
