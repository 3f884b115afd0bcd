package order

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

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrCartCleared    = errors.New("cart cleared concurrently")
)

type Repository interface {
	// CreateFromCart inserts the order with its lines and clears the
	// customer's cart in a single transaction. If any step fails the cart
	// is left untouched.
	CreateFromCart(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter Filter, page Page) ([]Order, error)
	// UpdateStatus applies a conditional update: it succeeds only if the
	// order's status still equals expectedFrom at commit time, otherwise
	// returns ErrStatusConflict.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, expectedFrom, to Status, cancelReason *string) error
	// AssignShipper sets the shipper while the order is still active.
	AssignShipper(ctx context.Context, orderID, shipperID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateFromCart(ctx context.Context, o *Order) (err error) {
	if o.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order id: %w", genErr)
		}
		o.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id", o.ID).Msg("panic during CreateFromCart, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id", o.ID).Msg("transaction for CreateFromCart failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", o.ID).Msg("failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	// Lock the cart rows and re-count before inserting anything. A checkout
	// on another instance that already consumed this cart commits its DELETE
	// first; this one then counts zero rows and fails instead of writing a
	// second order for the same cart.
	var lineCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT 1 FROM cart_lines WHERE account_id = $1 FOR UPDATE
		) locked
	`, o.CustomerID).Scan(&lineCount)
	if err != nil {
		return fmt.Errorf("repository: failed to lock cart for order %s: %w", o.ID, err)
	}
	if lineCount == 0 {
		err = ErrCartCleared
		return err
	}

	now := time.Now().UTC()
	o.OrderDate = now
	o.CreatedAt = now
	o.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, customer_id, shipper_id, status, shipping_address, note, cancel_reason,
		                    subtotal, shipping_fee, total_amount, order_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.Exec(ctx, queryOrder,
		o.ID, o.CustomerID, o.ShipperID, string(o.Status), o.ShippingAddress, o.Note, o.CancelReason,
		o.Subtotal, o.ShippingFee, o.TotalAmount, o.OrderDate, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryLine := `
		INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range o.Lines {
		line := &o.Lines[i]

		lineID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order line id: %w", genErr)
		}
		line.ID = lineID
		line.OrderID = o.ID
		line.CreatedAt = now

		_, err = tx.Exec(ctx, queryLine,
			line.ID, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order line for order %s: %w", o.ID, err)
		}
	}

	// Clearing the cart inside the same transaction is what makes placement
	// atomic: a failed insert leaves the cart intact, and a concurrent
	// checkout that commits after this one re-reads an empty cart.
	_, err = tx.Exec(ctx, `DELETE FROM cart_lines WHERE account_id = $1`, o.CustomerID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart for order %s: %w", o.ID, err)
	}

	return nil
}

const orderColumns = `id, customer_id, shipper_id, status, shipping_address, note, cancel_reason,
	subtotal, shipping_fee, total_amount, order_date, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.CustomerID, &o.ShipperID, &o.Status, &o.ShippingAddress, &o.Note, &o.CancelReason,
		&o.Subtotal, &o.ShippingFee, &o.TotalAmount, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var o Order
	err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", orderID, err)
	}

	queryLines := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_lines
		WHERE order_id = $1
	`
	rows, err := r.db.Query(ctx, queryLines, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for order %s: %w", orderID, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var line Line
		err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for order %s: %w", orderID, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for order %s: %w", orderID, err)
	}

	o.Lines = lines
	return &o, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter, page Page) ([]Order, error) {
	page = page.Normalize()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.ShipperID != nil {
		args = append(args, *filter.ShipperID)
		query += fmt.Sprintf(" AND shipper_id = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND order_date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND order_date <= $%d", len(args))
	}
	if filter.MinTotal != nil {
		args = append(args, *filter.MinTotal)
		query += fmt.Sprintf(" AND total_amount >= $%d", len(args))
	}
	if filter.MaxTotal != nil {
		args = append(args, *filter.MaxTotal)
		query += fmt.Sprintf(" AND total_amount <= $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (shipping_address ILIKE $%d OR id::text ILIKE $%d)", len(args), len(args))
	}

	direction := "ASC"
	if page.Desc {
		direction = "DESC"
	}
	args = append(args, page.Limit)
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d", sortColumns[page.Sort], direction, len(args))
	args = append(args, page.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	orderRows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		if err := scanOrder(orderRows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryLines := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_lines
		WHERE order_id = ANY($1)
	`
	lineRows, err := r.db.Query(ctx, queryLines, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var line Line
		err := lineRows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		if o, ok := ordersMap[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	if err = lineRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines: %w", err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if o, ok := ordersMap[id]; ok {
			result = append(result, *o)
		}
	}

	return result, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, expectedFrom, to Status, cancelReason *string) error {
	// Compare-and-swap on status: the WHERE clause makes concurrent
	// conflicting transitions lose instead of silently overwriting.
	query := `
		UPDATE orders
		SET status = $1, cancel_reason = COALESCE($2, cancel_reason), updated_at = $3
		WHERE id = $4 AND status = $5
	`

	cmdTag, err := r.db.Exec(ctx, query, string(to), cancelReason, time.Now().UTC(), orderID, string(expectedFrom))
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(to)).
			Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status for %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); checkErr != nil {
			return fmt.Errorf("repository: failed to check order existence for %s: %w", orderID, checkErr)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}

	return nil
}

func (r *postgresRepository) AssignShipper(ctx context.Context, orderID, shipperID uuid.UUID) error {
	query := `
		UPDATE orders
		SET shipper_id = $1, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`

	cmdTag, err := r.db.Exec(ctx, query, shipperID, time.Now().UTC(), orderID,
		string(StatusProcessing), string(StatusShipping))
	if err != nil {
		return fmt.Errorf("repository: failed to assign shipper for order %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); checkErr != nil {
			return fmt.Errorf("repository: failed to check order existence for %s: %w", orderID, checkErr)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}

	return nil
}
