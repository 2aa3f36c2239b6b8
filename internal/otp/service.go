package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/internal/mailer"
	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
	"github.com/kasuwahq/kasuwa-backend/pkg/redis"
)

const scopeEmailVerify = "email-verify"

// Store is the slice of the redis client the OTP flow needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

type accountVerifier interface {
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
}

// Service issues and checks one-time codes for email verification. Only a
// sha256 digest of the code is stored, so a leaked redis snapshot does not
// leak live codes.
type Service interface {
	Request(ctx context.Context, userID uuid.UUID, email string) error
	Confirm(ctx context.Context, userID uuid.UUID, code string) error
}

type service struct {
	store    Store
	accounts accountVerifier
	sender   mailer.Sender
	cfg      config.OTPConfig
	logg     *logger.Logger
}

func NewService(store Store, accounts accountVerifier, sender mailer.Sender, cfg config.OTPConfig, logg *logger.Logger) Service {
	return &service{store: store, accounts: accounts, sender: sender, cfg: cfg, logg: logg}
}

func (s *service) Request(ctx context.Context, userID uuid.UUID, email string) error {
	code, err := randomDigits(s.cfg.Length)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating code")
	}

	key := redis.OTPKey(scopeEmailVerify, userID.String())
	if err := s.store.Set(ctx, key, digest(code), s.cfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing code")
	}
	// A fresh code resets the attempt counter.
	if err := s.store.Del(ctx, attemptsKey(userID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resetting attempts")
	}

	if err := s.sender.Send(ctx, mailer.Message{
		To:      email,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %s.", code, s.cfg.TTL),
	}); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "otp mail delivery failed: "+err.Error())
	}
	return nil
}

func (s *service) Confirm(ctx context.Context, userID uuid.UUID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	attempts, err := s.store.Incr(ctx, attemptsKey(userID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting attempts")
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "too many attempts, request a new code")
	}

	key := redis.OTPKey(scopeEmailVerify, userID.String())
	stored, err := s.store.Get(ctx, key)
	if err != nil {
		if err == redis.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "code expired or not requested")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading code")
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(digest(code))) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid code")
	}

	if err := s.store.Del(ctx, key, attemptsKey(userID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming code")
	}
	if err := s.accounts.MarkEmailVerified(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking email verified")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "email verified")
	}
	return nil
}

func attemptsKey(userID uuid.UUID) string {
	return redis.OTPKey(scopeEmailVerify, userID.String()) + ":attempts"
}

func digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func randomDigits(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
