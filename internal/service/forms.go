package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral_app/internal/model"
	"referral_app/internal/repository"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	usernameSuffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
	usernameSuffixLength  = 5
	usernameAttempts      = 5
	submitAttempts        = 3
)

type FormService struct {
	repo     FormRepository
	hasher   PasswordHasher
	notifier LedgerNotifier
}

func NewFormService(repo FormRepository, hasher PasswordHasher, notifier LedgerNotifier) *FormService {
	return &FormService{
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
	}
}

// Submit stores the survey answers on the submitter's account, creating the
// account on first submission, and marks the submitter as filled on the
// referrer's ledger. An unknown referrer is skipped.
func (s *FormService) Submit(ctx context.Context, answers model.FormData, referrerUsername string) error {
	name, _ := answers["name"].(string)
	email, _ := answers["email"].(string)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" {
		return invalid("Name and email are required")
	}
	if !validEmail(email) {
		return invalid("Invalid email address")
	}

	payload := make(model.FormData, len(answers))
	for k, v := range answers {
		payload[k] = v
	}
	delete(payload, "referrerUsername")
	payload["name"] = name
	payload["email"] = email

	referrer, err := s.resolveReferrer(ctx, strings.TrimSpace(referrerUsername))
	if err != nil {
		return err
	}

	var referrerID *uuid.UUID
	if referrer != nil {
		referrerID = &referrer.ID
	}

	var saved *model.Account
	for attempt := 0; ; attempt++ {
		candidate, err := s.candidate(ctx, name, email, payload)
		if err != nil {
			return err
		}

		saved, err = s.repo.SaveFormSubmission(ctx, candidate, referrerID)
		if err == nil {
			break
		}
		// Another submission took the derived username in the meantime.
		if errors.Is(err, repository.ErrDuplicate) && attempt+1 < submitAttempts {
			continue
		}
		return fmt.Errorf("failed to save form submission: %w", err)
	}

	if referrer != nil && referrer.ID != saved.ID {
		s.notifier.Publish(referrer.ID)
	}

	return nil
}

// candidate returns the account the answers will be stored on: the existing
// account with that email, or a new one with a derived username.
func (s *FormService) candidate(ctx context.Context, name, email string, payload model.FormData) (*model.Account, error) {
	now := time.Now().UTC()

	existing, err := s.repo.GetAccountByEmail(ctx, email)
	if err == nil {
		existing.FormData = payload
		existing.UpdatedAt = now
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	username, err := s.freeUsername(ctx, emailLocalPart(email))
	if err != nil {
		return nil, err
	}

	placeholder, err := s.hasher.Placeholder()
	if err != nil {
		return nil, err
	}

	return &model.Account{
		ID:           uuid.New(),
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: placeholder,
		FormData:     payload,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// freeUsername returns base when it is unused, otherwise base with a short
// random suffix.
func (s *FormService) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < usernameAttempts; i++ {
		exists, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !exists {
			return candidate, nil
		}

		suffix, err := gonanoid.Generate(usernameSuffixCharset, usernameSuffixLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate username suffix: %w", err)
		}
		candidate = base + "-" + suffix
	}

	return "", ErrNoFreeUsername
}

func (s *FormService) resolveReferrer(ctx context.Context, username string) (*model.Account, error) {
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
