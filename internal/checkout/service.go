// Package checkout converts a live cart into an immutable order exactly once
// per attempt. The cart is re-read from the store at submit time, priced
// server-side, and frozen into the order inside the same transaction that
// clears it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
	"github.com/hoangle-dev/storefront/internal/cart"
	"github.com/hoangle-dev/storefront/internal/order"
	"github.com/hoangle-dev/storefront/internal/pricing"
	"github.com/hoangle-dev/storefront/internal/product"
)

type Input struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
	Note            string `json:"note" validate:"max=500"`
}

type Service interface {
	PlaceOrder(ctx context.Context, actor auth.Actor, input Input) (*order.Order, error)
}

type service struct {
	carts         cart.Repository
	products      product.Repository
	orders        order.Repository
	pricingCfg    pricing.Config
	validate      *validator.Validate
	inflight      *inflightGuard
	maxConcurrent int
}

func NewService(carts cart.Repository, products product.Repository, orders order.Repository, pricingCfg pricing.Config) Service {
	return &service{
		carts:         carts,
		products:      products,
		orders:        orders,
		pricingCfg:    pricingCfg,
		validate:      validator.New(),
		inflight:      newInflightGuard(),
		maxConcurrent: 10,
	}
}

func (s *service) PlaceOrder(ctx context.Context, actor auth.Actor, input Input) (*order.Order, error) {
	// Double-submit guard: a second PlaceOrder for the same account while
	// one is in flight fails fast instead of creating a duplicate order.
	// Across instances the transactional cart clear is the backstop: the
	// loser re-reads an already-empty cart.
	if !s.inflight.acquire(actor.AccountID) {
		return nil, apperr.Conflict("checkout already in progress for this account")
	}
	defer s.inflight.release(actor.AccountID)

	// A whitespace-only address must fail the required check the same way an
	// absent one does.
	input.ShippingAddress = strings.TrimSpace(input.ShippingAddress)
	input.Note = strings.TrimSpace(input.Note)

	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return nil, apperr.Validation("missing or invalid checkout fields", fields...)
		}
		return nil, fmt.Errorf("service: failed to validate checkout input: %w", err)
	}

	// The authoritative cart, never a client-cached copy: between viewing
	// checkout and clicking submit the cart may have changed in another tab.
	lines, err := s.carts.ListLines(ctx, actor.AccountID)
	if err != nil {
		log.Error().Err(err).Stringer("account_id", actor.AccountID).Msg("service: failed to read cart for checkout")
		return nil, fmt.Errorf("service: failed to read cart for checkout: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperr.EmptyCart("cart is empty")
	}

	orderLines, err := s.freezeLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	priced := make([]pricing.Line, len(orderLines))
	for i, l := range orderLines {
		priced[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	subtotal := pricing.Subtotal(priced)
	fee := pricing.ShippingFee(subtotal, s.pricingCfg)

	o := &order.Order{
		CustomerID:      actor.AccountID,
		Status:          order.StatusProcessing,
		ShippingAddress: input.ShippingAddress,
		Note:            input.Note,
		Lines:           orderLines,
		Subtotal:        subtotal,
		ShippingFee:     fee,
		TotalAmount:     pricing.Total(subtotal, fee),
	}

	// Order insert and cart clear commit together; a failed insert leaves
	// the cart untouched.
	if err := s.orders.CreateFromCart(ctx, o); err != nil {
		if errors.Is(err, order.ErrCartCleared) {
			// Another instance consumed this cart first.
			return nil, apperr.EmptyCart("cart is empty")
		}
		log.Error().Err(err).Stringer("account_id", actor.AccountID).Msg("service: failed to create order from cart")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Stringer("customer_id", o.CustomerID).
		Int("lines", len(o.Lines)).Int64("total_amount", o.TotalAmount).
		Msg("service: order placed")

	return o, nil
}

// freezeLines fetches each product's current state concurrently and captures
// its price as the frozen unit price for the order.
func (s *service) freezeLines(ctx context.Context, lines []cart.ViewLine) ([]order.Line, error) {
	orderLines := make([]order.Line, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range lines {
		g.Go(func() error {
			l := lines[idx]
			if l.Quantity <= 0 {
				return apperr.Validation(fmt.Sprintf("invalid quantity for product %s", l.ProductID), "quantity")
			}

			p, err := s.products.GetByID(ctx, l.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrProductNotFound) {
					return apperr.Validation(fmt.Sprintf("product %s is no longer available", l.ProductID), "product_id")
				}
				return fmt.Errorf("service: failed to fetch product %s: %w", l.ProductID, err)
			}
			if !p.Active {
				return apperr.Validation(fmt.Sprintf("product %q is no longer available", p.Name), "product_id")
			}
			if l.Quantity > p.Stock {
				return apperr.Validation(fmt.Sprintf("only %d of %q in stock", p.Stock, p.Name), "quantity")
			}

			orderLines[idx] = order.Line{
				ProductID: p.ID,
				Quantity:  l.Quantity,
				UnitPrice: p.Price,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return orderLines, nil
}

// inflightGuard tracks accounts with a checkout in progress in this process.
type inflightGuard struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{accounts: make(map[uuid.UUID]struct{})}
}

func (g *inflightGuard) acquire(accountID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.accounts[accountID]; busy {
		return false
	}
	g.accounts[accountID] = struct{}{}
	return true
}

func (g *inflightGuard) release(accountID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.accounts, accountID)
}
