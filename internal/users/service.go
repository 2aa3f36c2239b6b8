package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
	"github.com/kasuwahq/kasuwa-backend/pkg/security"
)

const referralCodeLength = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type referralCodeReader interface {
	FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error)
}

type signupCreditor interface {
	CreditForSignup(ctx context.Context, referrerUserID uuid.UUID) error
}

type inviteTracker interface {
	MarkJoined(ctx context.Context, email string) error
}

// SignupInput carries everything the signup flow needs. ReferralCode is
// optional; when present it must belong to an existing profile.
type SignupInput struct {
	Email        string
	Username     string
	Password     string
	FirstName    string
	LastName     string
	PhoneNumber  string
	ReferralCode string
}

// UpdateProfileInput holds the mutable profile fields.
type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
}

// AddressInput is one address book entry.
type AddressInput struct {
	Label   string
	Street  string
	City    string
	State   string
	Country string
}

type Service interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.Profile, error)
	AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	db        txRunner
	repo      Repository
	referrals signupCreditor
	codes     referralCodeReader
	invites   inviteTracker
	cfg       config.PasswordConfig
	logg      *logger.Logger
}

// Deps wires the signup side effects. Referrals and invites may be nil in
// tests that do not exercise them.
type Deps struct {
	DB        txRunner
	Repo      Repository
	Referrals signupCreditor
	Codes     referralCodeReader
	Invites   inviteTracker
	Password  config.PasswordConfig
	Logger    *logger.Logger
}

func NewService(deps Deps) Service {
	return &service{
		db:        deps.DB,
		repo:      deps.Repo,
		referrals: deps.Referrals,
		codes:     deps.Codes,
		invites:   deps.Invites,
		cfg:       deps.Password,
		logg:      deps.Logger,
	}
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and username are required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	var referrerID *uuid.UUID
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referrer, err := s.codes.FindProfileByReferralCode(ctx, code)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown referral code")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving referral code")
		}
		referrerID = &referrer.UserID
	}

	hash, err := security.HashPassword(input.Password, s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Email:        email,
		Username:     input.Username,
		PasswordHash: hash,
		Profile: &models.Profile{
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			PhoneNumber:  input.PhoneNumber,
			ReferralCode: newReferralCode(),
			ReferrerID:   referrerID,
		},
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateUser(ctx, user)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating account")
	}

	// Signup bonus and invite bookkeeping ride after the commit; a failure
	// there must not undo the account.
	var side error
	if referrerID != nil && s.referrals != nil {
		if err := s.referrals.CreditForSignup(ctx, *referrerID); err != nil {
			side = multierr.Append(side, err)
		}
	}
	if s.invites != nil {
		if err := s.invites.MarkJoined(ctx, email); err != nil {
			side = multierr.Append(side, err)
		}
	}
	if side != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "signup side effects incomplete: "+side.Error())
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "account created")
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}
	return user, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindProfileByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading profile")
	}
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.FirstName = input.FirstName
	profile.LastName = input.LastName
	profile.PhoneNumber = input.PhoneNumber
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating profile")
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if input.Street == "" || input.City == "" || input.State == "" || input.Country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street, city, state, and country are required")
	}
	address := &models.Address{
		UserID:  userID,
		Label:   input.Label,
		Street:  input.Street,
		City:    input.City,
		State:   input.State,
		Country: input.Country,
	}
	if err := s.repo.CreateAddress(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving address")
	}
	return address, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing addresses")
	}
	return addresses, nil
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	deleted, err := s.repo.DeleteAddress(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting address")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func newReferralCode() string {
	buf := make([]byte, referralCodeLength/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in real trouble; fall
		// back to a uuid so signup still works.
		return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:referralCodeLength])
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
