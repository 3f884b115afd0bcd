package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoangle-dev/storefront/internal/auth"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Update(ctx context.Context, a *Account) error
	List(ctx context.Context, filter Filter, page Page) ([]Account, error)
	// IsShipper reports whether the account exists, is active, and holds
	// the shipper role.
	IsShipper(ctx context.Context, accountID uuid.UUID) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const accountColumns = "id, email, full_name, role, password_hash, active, created_at, updated_at"

func (r *postgresRepository) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate account id: %w", err)
		}
		a.ID = id
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, full_name, role, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.Email, a.FullName, string(a.Role), a.PasswordHash, a.Active, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert account: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id).Scan(
		&a.ID, &a.Email, &a.FullName, &a.Role, &a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("repository: failed to select account %s: %w", id, err)
	}

	return &a, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *Account) error {
	query := `
		UPDATE accounts
		SET full_name = $1, role = $2, active = $3, updated_at = $4
		WHERE id = $5
	`

	cmdTag, err := r.db.Exec(ctx, query, a.FullName, string(a.Role), a.Active, time.Now().UTC(), a.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update account %s: %w", a.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter, page Page) ([]Account, error) {
	page = page.Normalize()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []interface{}{}

	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}

	args = append(args, page.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, page.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		var a Account
		err := rows.Scan(&a.ID, &a.Email, &a.FullName, &a.Role, &a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating accounts: %w", err)
	}

	return accounts, nil
}

func (r *postgresRepository) IsShipper(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND role = $2 AND active)`,
		accountID, string(auth.RoleShipper),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check shipper role for %s: %w", accountID, err)
	}
	return ok, nil
}
