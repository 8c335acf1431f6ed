package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralStatusPending ReferralStatus = "pending"
	ReferralStatusFilled  ReferralStatus = "filled"
)

func (s ReferralStatus) IsValid() bool {
	switch s {
	case ReferralStatusPending, ReferralStatusFilled:
		return true
	default:
		return false
	}
}

// Referral is one entry of a referrer's ledger.
type Referral struct {
	ReferrerID uuid.UUID
	ReferredID uuid.UUID
	Status     ReferralStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReferredAccount is a ledger entry joined with the account it points at.
// Account fields are nil when the referenced account can't be resolved.
type ReferredAccount struct {
	ReferredID       uuid.UUID
	Status           ReferralStatus
	Name             *string
	Username         *string
	Email            *string
	AccountCreatedAt *time.Time
}
