package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrLineNotFound = errors.New("cart line not found")

type Repository interface {
	// UpsertAdd inserts a line or atomically increments an existing one,
	// returning the resulting quantity.
	UpsertAdd(ctx context.Context, accountID, productID uuid.UUID, quantity int) (int, error)
	// AdjustQuantity applies delta to an existing line under a row lock.
	// A result at or below zero deletes the line. Returns ErrLineNotFound
	// if no line exists.
	AdjustQuantity(ctx context.Context, accountID, productID uuid.UUID, delta int) error
	// Remove deletes a line; absent lines are a no-op.
	Remove(ctx context.Context, accountID, productID uuid.UUID) error
	Clear(ctx context.Context, accountID uuid.UUID) error
	GetQuantity(ctx context.Context, accountID, productID uuid.UUID) (int, error)
	// ListLines reads the authoritative cart joined with live product data.
	ListLines(ctx context.Context, accountID uuid.UUID) ([]ViewLine, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) UpsertAdd(ctx context.Context, accountID, productID uuid.UUID, quantity int) (int, error) {
	// The ON CONFLICT arithmetic runs on the locked row, so concurrent adds
	// for the same (account, product) serialize in the database.
	query := `
		INSERT INTO cart_lines (account_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (account_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING quantity
	`

	var newQuantity int
	err := r.db.QueryRow(ctx, query, accountID, productID, quantity, time.Now().UTC()).Scan(&newQuantity)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to upsert cart line: %w", err)
	}

	return newQuantity, nil
}

func (r *postgresRepository) AdjustQuantity(ctx context.Context, accountID, productID uuid.UUID, delta int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback cart adjustment")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit cart adjustment: %w", commitErr)
		}
	}()

	var current int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_lines WHERE account_id = $1 AND product_id = $2 FOR UPDATE`,
		accountID, productID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLineNotFound
		}
		return fmt.Errorf("repository: failed to lock cart line: %w", err)
	}

	newQuantity := current + delta
	if newQuantity <= 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM cart_lines WHERE account_id = $1 AND product_id = $2`,
			accountID, productID,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to delete cart line: %w", err)
		}
		return nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE cart_lines SET quantity = $1, updated_at = $2 WHERE account_id = $3 AND product_id = $4`,
		newQuantity, time.Now().UTC(), accountID, productID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart line: %w", err)
	}

	return nil
}

func (r *postgresRepository) Remove(ctx context.Context, accountID, productID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM cart_lines WHERE account_id = $1 AND product_id = $2`,
		accountID, productID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to remove cart line: %w", err)
	}
	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetQuantity(ctx context.Context, accountID, productID uuid.UUID) (int, error) {
	var quantity int
	err := r.db.QueryRow(ctx,
		`SELECT quantity FROM cart_lines WHERE account_id = $1 AND product_id = $2`,
		accountID, productID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLineNotFound
		}
		return 0, fmt.Errorf("repository: failed to select cart line: %w", err)
	}
	return quantity, nil
}

func (r *postgresRepository) ListLines(ctx context.Context, accountID uuid.UUID) ([]ViewLine, error) {
	query := `
		SELECT cl.product_id, p.name, p.price, cl.quantity, p.stock, p.active
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.account_id = $1
		ORDER BY cl.created_at
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]ViewLine, 0)
	for rows.Next() {
		var l ViewLine
		err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.Stock, &l.Active)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line: %w", err)
		}
		l.LineTotal = l.UnitPrice * int64(l.Quantity)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines: %w", err)
	}

	return lines, nil
}
