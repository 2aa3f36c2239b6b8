package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/internal/mailer"
	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/redis"
)

type memEntry struct {
	value     string
	expiresAt time.Time
}

type memStore struct {
	now     time.Time
	entries map[string]memEntry
	counts  map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		now:     time.Now(),
		entries: map[string]memEntry{},
		counts:  map[string]int64{},
	}
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.entries[key] = memEntry{value: value.(string), expiresAt: m.now.Add(ttl)}
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	entry, ok := m.entries[key]
	if !ok || m.now.After(entry.expiresAt) {
		return "", redis.Nil
	}
	return entry.value, nil
}

func (m *memStore) Incr(_ context.Context, key string) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
		delete(m.counts, key)
	}
	return nil
}

type captureSender struct {
	last mailer.Message
}

func (c *captureSender) Send(_ context.Context, msg mailer.Message) error {
	c.last = msg
	return nil
}

type verifyRecorder struct {
	verified []uuid.UUID
}

func (v *verifyRecorder) MarkEmailVerified(_ context.Context, userID uuid.UUID) error {
	v.verified = append(v.verified, userID)
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func testService() (*memStore, *captureSender, *verifyRecorder, Service) {
	store := newMemStore()
	sender := &captureSender{}
	accounts := &verifyRecorder{}
	svc := NewService(store, accounts, sender, config.OTPConfig{
		TTL: 10 * time.Minute, Length: 6, MaxAttempts: 5,
	}, nil)
	return store, sender, accounts, svc
}

func TestRequestConfirmRoundTrip(t *testing.T) {
	_, sender, accounts, svc := testService()
	ctx := context.Background()
	userID := uuid.New()

	if err := svc.Request(ctx, userID, "a@example.com"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if sender.last.To != "a@example.com" {
		t.Fatalf("mail recipient = %q", sender.last.To)
	}
	match := codePattern.FindStringSubmatch(sender.last.Body)
	if match == nil {
		t.Fatalf("no code in mail body %q", sender.last.Body)
	}

	if err := svc.Confirm(ctx, userID, match[1]); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(accounts.verified) != 1 || accounts.verified[0] != userID {
		t.Fatalf("verified = %v", accounts.verified)
	}

	// The code is single use.
	if err := svc.Confirm(ctx, userID, match[1]); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error on reuse, got %v", err)
	}
}

func TestConfirmWrongCode(t *testing.T) {
	_, _, accounts, svc := testService()
	ctx := context.Background()
	userID := uuid.New()

	if err := svc.Request(ctx, userID, "a@example.com"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := svc.Confirm(ctx, userID, "000000"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(accounts.verified) != 0 {
		t.Fatal("wrong code must not verify the account")
	}
}

func TestConfirmExpiredCode(t *testing.T) {
	store, sender, _, svc := testService()
	ctx := context.Background()
	userID := uuid.New()

	if err := svc.Request(ctx, userID, "a@example.com"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	store.now = store.now.Add(11 * time.Minute)

	match := codePattern.FindStringSubmatch(sender.last.Body)
	if err := svc.Confirm(ctx, userID, match[1]); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error after expiry, got %v", err)
	}
}

func TestConfirmAttemptLockout(t *testing.T) {
	_, sender, _, svc := testService()
	ctx := context.Background()
	userID := uuid.New()

	if err := svc.Request(ctx, userID, "a@example.com"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := svc.Confirm(ctx, userID, "999999"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("attempt %d: expected validation error, got %v", i, err)
		}
	}

	// Even the right code is refused once the budget is spent.
	match := codePattern.FindStringSubmatch(sender.last.Body)
	if err := svc.Confirm(ctx, userID, match[1]); !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected lockout, got %v", err)
	}

	// A new request resets the counter.
	if err := svc.Request(ctx, userID, "a@example.com"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	match = codePattern.FindStringSubmatch(sender.last.Body)
	if err := svc.Confirm(ctx, userID, match[1]); err != nil {
		t.Fatalf("Confirm after reset: %v", err)
	}
}
