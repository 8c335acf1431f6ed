package repository

import (
	"context"
	"fmt"
	"time"

	"referral_app/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type Referral struct {
	ReferrerID uuid.UUID `db:"referrer_id"`
	ReferredID uuid.UUID `db:"referred_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type referredAccount struct {
	ReferredID       uuid.UUID  `db:"referred_id"`
	Status           string     `db:"status"`
	Name             *string    `db:"name"`
	Username         *string    `db:"username"`
	Email            *string    `db:"email"`
	AccountCreatedAt *time.Time `db:"account_created_at"`
}

// addPendingReferralQuery never touches an existing entry, so a filled
// referral can't go back to pending.
func addPendingReferralQuery(referrerID, referredID uuid.UUID, now time.Time) squirrel.InsertBuilder {
	return squirrel.
		Insert("referrals").
		Columns("referrer_id", "referred_id", "status", "created_at", "updated_at").
		Values(referrerID, referredID, string(model.ReferralStatusPending), now, now).
		Suffix("ON CONFLICT (referrer_id, referred_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)
}

// markReferralFilledQuery inserts the entry as filled or moves an existing
// one to filled in a single statement.
func markReferralFilledQuery(referrerID, referredID uuid.UUID, now time.Time) squirrel.InsertBuilder {
	return squirrel.
		Insert("referrals").
		Columns("referrer_id", "referred_id", "status", "created_at", "updated_at").
		Values(referrerID, referredID, string(model.ReferralStatusFilled), now, now).
		Suffix("ON CONFLICT (referrer_id, referred_id) DO UPDATE SET status = 'filled', updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
}

func parseStatus(s string) (model.ReferralStatus, error) {
	status := model.ReferralStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown referral status %q", s)
	}
	return status, nil
}

func (r *Repository) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]*model.Referral, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("referrer_id", "referred_id", "status", "created_at", "updated_at").
		From("referrals").
		Where(squirrel.Eq{"referrer_id": referrerID}).
		OrderBy("seq ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build referrals query: %w", err)
	}

	var rows []Referral
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	refs := make([]*model.Referral, len(rows))
	for i, row := range rows {
		status, err := parseStatus(row.Status)
		if err != nil {
			return nil, err
		}
		refs[i] = &model.Referral{
			ReferrerID: row.ReferrerID,
			ReferredID: row.ReferredID,
			Status:     status,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
		}
	}

	return refs, nil
}

// ListReferredAccounts returns the referrer's ledger in insertion order with
// the referenced accounts resolved where they still exist.
func (r *Repository) ListReferredAccounts(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferredAccount, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := referredAccountsQuery(referrerID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build referred accounts query: %w", err)
	}

	var rows []referredAccount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list referred accounts: %w", err)
	}

	out := make([]*model.ReferredAccount, len(rows))
	for i, row := range rows {
		status, err := parseStatus(row.Status)
		if err != nil {
			return nil, err
		}
		out[i] = &model.ReferredAccount{
			ReferredID:       row.ReferredID,
			Status:           status,
			Name:             row.Name,
			Username:         row.Username,
			Email:            row.Email,
			AccountCreatedAt: row.AccountCreatedAt,
		}
	}

	return out, nil
}

func referredAccountsQuery(referrerID uuid.UUID) squirrel.SelectBuilder {
	return squirrel.
		Select(
			"r.referred_id",
			"r.status",
			"a.name",
			"a.username",
			"a.email",
			"a.created_at AS account_created_at",
		).
		From("referrals r").
		LeftJoin("accounts a ON a.id = r.referred_id").
		Where(squirrel.Eq{"r.referrer_id": referrerID}).
		OrderBy("r.seq ASC").
		PlaceholderFormat(squirrel.Dollar)
}
