package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral_app/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var accountColumns = []string{
	"id",
	"name",
	"username",
	"email",
	"password_hash",
	"referred_by",
	"form_data",
	"created_at",
	"updated_at",
}

type Account struct {
	ID           uuid.UUID    `db:"id"`
	Name         string       `db:"name"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	ReferredBy   *string      `db:"referred_by"`
	FormData     formDocument `db:"form_data"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (a *Account) toModel() *model.Account {
	return &model.Account{
		ID:           a.ID,
		Name:         a.Name,
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		ReferredBy:   a.ReferredBy,
		FormData:     model.FormData(a.FormData),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// formDocument stores the survey answers as a JSONB document.
type formDocument map[string]any

func (d formDocument) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}

	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return nil, fmt.Errorf("failed to encode form data: %w", err)
	}

	return string(b), nil
}

func (d *formDocument) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = formDocument{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan form data, %v", value)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode form data: %w", err)
	}

	*d = doc
	return nil
}

func (r *Repository) CreateAccount(ctx context.Context, account *model.Account, referrerID *uuid.UUID) error {
	err := r.Transaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		taken, err := identityTaken(ctx, tx, account.Username, account.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}

		query, args, err := squirrel.
			Insert("accounts").
			SetMap(map[string]interface{}{
				"id":            account.ID,
				"name":          account.Name,
				"username":      account.Username,
				"email":         account.Email,
				"password_hash": account.PasswordHash,
				"referred_by":   account.ReferredBy,
				"form_data":     formDocument(account.FormData),
				"created_at":    account.CreatedAt,
				"updated_at":    account.UpdatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build account insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}

		if referrerID != nil {
			query, args, err := addPendingReferralQuery(*referrerID, account.ID, account.CreatedAt).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build referral insert query: %w", err)
			}

			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert referral: %w", err)
			}
		}

		return nil
	})
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	return err
}

func identityTaken(ctx context.Context, q sqlx.QueryerContext, username, email string) (bool, error) {
	query, args, err := squirrel.
		Select("COUNT(*) > 0").
		From("accounts").
		Where(squirrel.Or{
			squirrel.Eq{"username": username},
			squirrel.Eq{"email": email},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build identity check query: %w", err)
	}

	var taken bool
	if err := sqlx.GetContext(ctx, q, &taken, query, args...); err != nil {
		return false, fmt.Errorf("failed to check identity: %w", err)
	}

	return taken, nil
}

// SaveFormSubmission creates the submitting account or replaces its form
// data, then marks the referral on the referrer's ledger as filled.
func (r *Repository) SaveFormSubmission(ctx context.Context, candidate *model.Account, referrerID *uuid.UUID) (*model.Account, error) {
	var saved Account

	err := r.Transaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		query, args, err := upsertFormAccountQuery(candidate).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build account upsert query: %w", err)
		}

		if err := tx.GetContext(ctx, &saved, query, args...); err != nil {
			return fmt.Errorf("failed to upsert account: %w", err)
		}

		if referrerID == nil || *referrerID == saved.ID {
			return nil
		}

		query, args, err = markReferralFilledQuery(*referrerID, saved.ID, saved.UpdatedAt).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referral upsert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert referral: %w", err)
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return saved.toModel(), nil
}

func upsertFormAccountQuery(a *model.Account) squirrel.InsertBuilder {
	return squirrel.
		Insert("accounts").
		SetMap(map[string]interface{}{
			"id":            a.ID,
			"name":          a.Name,
			"username":      a.Username,
			"email":         a.Email,
			"password_hash": a.PasswordHash,
			"referred_by":   a.ReferredBy,
			"form_data":     formDocument(a.FormData),
			"created_at":    a.CreatedAt,
			"updated_at":    a.UpdatedAt,
		}).
		Suffix("ON CONFLICT (email) DO UPDATE SET form_data = EXCLUDED.form_data, updated_at = EXCLUDED.updated_at").
		Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *Repository) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.getAccount(ctx, squirrel.Eq{"id": id}, "")
}

func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.getAccount(ctx, squirrel.Eq{"username": username}, "")
}

// FindAccountByUsernameFold matches the username case-insensitively. When
// several accounts only differ by case the oldest one wins.
func (r *Repository) FindAccountByUsernameFold(ctx context.Context, username string) (*model.Account, error) {
	return r.getAccount(ctx, squirrel.Expr("LOWER(username) = LOWER(?)", username), "created_at ASC")
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getAccount(ctx, squirrel.Eq{"email": email}, "")
}

// GetAccountByLogin matches either the email or the username exactly.
func (r *Repository) GetAccountByLogin(ctx context.Context, emailOrUsername string) (*model.Account, error) {
	return r.getAccount(ctx, squirrel.Or{
		squirrel.Eq{"email": emailOrUsername},
		squirrel.Eq{"username": emailOrUsername},
	}, "created_at ASC")
}

func (r *Repository) getAccount(ctx context.Context, pred squirrel.Sqlizer, orderBy string) (*model.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	builder := squirrel.
		Select(accountColumns...).
		From("accounts").
		Where(pred).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
	if orderBy != "" {
		builder = builder.OrderBy(orderBy)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build account select query: %w", err)
	}

	var account Account
	err = r.db.GetContext(ctx, &account, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account.toModel(), nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("COUNT(*) > 0").
		From("accounts").
		Where(squirrel.Eq{"username": username}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build username check query: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}

	return exists, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("accounts").
		SetMap(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    time.Now().UTC(),
		}).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build password update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
