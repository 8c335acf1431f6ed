package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral_app/internal/model"
	"referral_app/internal/repository"

	"github.com/google/uuid"
)

type DashboardService struct {
	repo    DashboardRepository
	watcher LedgerWatcher
	links   LinkBuilder
}

func NewDashboardService(repo DashboardRepository, watcher LedgerWatcher, links LinkBuilder) *DashboardService {
	return &DashboardService{
		repo:    repo,
		watcher: watcher,
		links:   links,
	}
}

func (s *DashboardService) Dashboard(ctx context.Context, username string) (*model.Dashboard, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("Username is required")
	}

	account, err := s.repo.FindAccountByUsernameFold(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	entries, err := s.repo.ListReferredAccounts(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referred accounts: %w", err)
	}

	dashboard := aggregate(entries)
	dashboard.AccountID = account.ID
	dashboard.Name = account.Name
	dashboard.Username = account.Username
	dashboard.Email = account.Email
	dashboard.ReferralLink = s.links.ReferralLink(account.Username)

	return dashboard, nil
}

// Watch subscribes to ledger changes of the account.
func (s *DashboardService) Watch(accountID uuid.UUID) (<-chan struct{}, func()) {
	return s.watcher.Subscribe(accountID)
}

// aggregate counts the ledger entries and renders one row per entry in
// ledger order.
func aggregate(entries []*model.ReferredAccount) *model.Dashboard {
	d := &model.Dashboard{
		TotalReferrals: len(entries),
		Referrals:      make([]model.DashboardRow, 0, len(entries)),
	}

	for _, e := range entries {
		if e.Status == model.ReferralStatusFilled {
			d.FilledReferrals++
		}

		row := model.DashboardRow{
			Name:   model.UnknownReferral,
			Email:  model.UnknownReferral,
			Status: e.Status,
		}
		if e.Name != nil {
			row.Name = *e.Name
		}
		if e.Email != nil {
			row.Email = *e.Email
		}
		d.Referrals = append(d.Referrals, row)
	}

	return d
}
