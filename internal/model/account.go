package model

import (
	"time"

	"github.com/google/uuid"
)

// FormData holds the answers of a survey submission as an open document.
type FormData map[string]any

type Account struct {
	ID           uuid.UUID
	Name         string
	Username     string
	Email        string
	PasswordHash string
	ReferredBy   *string
	FormData     FormData
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AccountSummary struct {
	ID           uuid.UUID
	Name         string
	Username     string
	Email        string
	ReferredBy   *string
	ReferralLink string
}

type Session struct {
	Account *AccountSummary
	Token   string
}

type AccountProfile struct {
	AccountSummary
	Referrals []*Referral
}
