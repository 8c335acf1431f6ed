package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral_app/internal/model"
	"referral_app/internal/repository"
	"referral_app/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountService struct {
	repo     AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	mailer   Mailer
	notifier LedgerNotifier
	links    LinkBuilder
}

func NewAccountService(
	repo AccountRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	mailer Mailer,
	notifier LedgerNotifier,
	links LinkBuilder,
) *AccountService {
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		notifier: notifier,
		links:    links,
	}
}

// Register creates an account and, when the referrer resolves, appends a
// pending entry to the referrer's ledger. An unknown referrer is ignored.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ReferrerUsername = strings.TrimSpace(in.ReferrerUsername)

	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, invalid("All fields are required")
	}
	if !validEmail(in.Email) {
		return nil, invalid("Invalid email address")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, invalid("Password is too long")
	}

	referrer, err := s.resolveReferrer(ctx, in.ReferrerUsername)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &model.Account{
		ID:           uuid.New(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FormData:     model.FormData{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var referrerID *uuid.UUID
	if referrer != nil {
		account.ReferredBy = &referrer.Username
		referrerID = &referrer.ID
	}

	if err := s.repo.CreateAccount(ctx, account, referrerID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if referrer != nil {
		s.notifier.Publish(referrer.ID)
	}

	session, err := s.session(account)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendReferralLink(account.Email, account.Name, session.Account.ReferralLink); err != nil {
		logger.Logger().Warn("failed to send referral link mail",
			zap.String("account_id", account.ID.String()),
			zap.Error(err))
	}

	return session, nil
}

func (s *AccountService) resolveReferrer(ctx context.Context, username string) (*model.Account, error) {
	if username == "" {
		return nil, nil
	}

	referrer, err := s.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve referrer: %w", err)
	}

	return referrer, nil
}

func (s *AccountService) Login(ctx context.Context, emailOrUsername, password string) (*model.Session, error) {
	emailOrUsername = strings.TrimSpace(emailOrUsername)
	if emailOrUsername == "" || password == "" {
		return nil, invalid("Email or username and password are required")
	}

	account, err := s.repo.GetAccountByLogin(ctx, emailOrUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	ok, err := s.hasher.Verify(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredential
	}

	return s.session(account)
}

func (s *AccountService) session(account *model.Account) (*model.Session, error) {
	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	return &model.Session{
		Account: s.summary(account),
		Token:   token,
	}, nil
}

func (s *AccountService) summary(account *model.Account) *model.AccountSummary {
	return &model.AccountSummary{
		ID:           account.ID,
		Name:         account.Name,
		Username:     account.Username,
		Email:        account.Email,
		ReferredBy:   account.ReferredBy,
		ReferralLink: s.links.ReferralLink(account.Username),
	}
}

func (s *AccountService) getAccount(ctx context.Context, accountID uuid.UUID) (*model.Account, error) {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *AccountService) Exists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	_, err := s.getAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AccountService) Me(ctx context.Context, accountID uuid.UUID) (*model.AccountProfile, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	referrals, err := s.repo.ListReferrals(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	return &model.AccountProfile{
		AccountSummary: *s.summary(account),
		Referrals:      referrals,
	}, nil
}

func (s *AccountService) Referrals(ctx context.Context, accountID uuid.UUID) ([]*model.ReferredAccount, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	referrals, err := s.repo.ListReferredAccounts(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referred accounts: %w", err)
	}

	return referrals, nil
}

func (s *AccountService) UpdatePassword(ctx context.Context, accountID uuid.UUID, password string) error {
	if password == "" {
		return invalid("Password is required to update")
	}
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return invalid("Password must be at least 6 characters")
	}
	if len(password) > maxPasswordBytes {
		return invalid("Password is too long")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
