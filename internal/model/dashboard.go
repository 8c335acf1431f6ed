package model

import "github.com/google/uuid"

// UnknownReferral is shown for ledger entries whose account can't be resolved.
const UnknownReferral = "Unknown"

type Dashboard struct {
	AccountID       uuid.UUID
	Name            string
	Username        string
	Email           string
	ReferralLink    string
	TotalReferrals  int
	FilledReferrals int
	Referrals       []DashboardRow
}

type DashboardRow struct {
	Name   string
	Email  string
	Status ReferralStatus
}
