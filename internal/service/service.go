package service

import (
	"context"
	"errors"

	"referral_app/internal/model"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound   = errors.New("user not found")
	ErrDuplicateIdentity = errors.New("email or username already exists")
	ErrInvalidCredential = errors.New("invalid password")
	ErrNoFreeUsername    = errors.New("could not derive a free username")
)

// ValidationError reports input that can't be processed. Message is safe to
// show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

type RegisterInput struct {
	Name             string
	Username         string
	Email            string
	Password         string
	ReferrerUsername string
}

type AccountServiceI interface {
	Register(ctx context.Context, in RegisterInput) (*model.Session, error)
	Login(ctx context.Context, emailOrUsername, password string) (*model.Session, error)
	Me(ctx context.Context, accountID uuid.UUID) (*model.AccountProfile, error)
	Referrals(ctx context.Context, accountID uuid.UUID) ([]*model.ReferredAccount, error)
	UpdatePassword(ctx context.Context, accountID uuid.UUID, password string) error
	Exists(ctx context.Context, accountID uuid.UUID) (bool, error)
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account, referrerID *uuid.UUID) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	GetAccountByLogin(ctx context.Context, emailOrUsername string) (*model.Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]*model.Referral, error)
	ListReferredAccounts(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferredAccount, error)
}

type FormServiceI interface {
	Submit(ctx context.Context, answers model.FormData, referrerUsername string) error
}

type FormRepository interface {
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SaveFormSubmission(ctx context.Context, candidate *model.Account, referrerID *uuid.UUID) (*model.Account, error)
}

type DashboardServiceI interface {
	Dashboard(ctx context.Context, username string) (*model.Dashboard, error)
	Watch(accountID uuid.UUID) (<-chan struct{}, func())
}

type DashboardRepository interface {
	FindAccountByUsernameFold(ctx context.Context, username string) (*model.Account, error)
	ListReferredAccounts(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferredAccount, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
	Placeholder() (string, error)
}

type TokenIssuer interface {
	Issue(accountID uuid.UUID, email string) (string, error)
}

type Mailer interface {
	SendReferralLink(to, name, link string) error
}

// LedgerNotifier is told about every write to a referrer's ledger.
type LedgerNotifier interface {
	Publish(accountID uuid.UUID)
}

type LedgerWatcher interface {
	Subscribe(accountID uuid.UUID) (<-chan struct{}, func())
}
