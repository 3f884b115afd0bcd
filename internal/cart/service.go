package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
	"github.com/hoangle-dev/storefront/internal/pricing"
	"github.com/hoangle-dev/storefront/internal/product"
)

// Service is the single source of truth for an account's in-progress cart.
// Every mutation re-reads the persisted cart before returning, so the view a
// caller gets back is always the authoritative state, never an optimistic
// local one.
type Service interface {
	AddItem(ctx context.Context, actor auth.Actor, productID uuid.UUID, quantity int) (*View, error)
	IncreaseQuantity(ctx context.Context, actor auth.Actor, productID uuid.UUID, delta int) (*View, error)
	DecreaseQuantity(ctx context.Context, actor auth.Actor, productID uuid.UUID, delta int) (*View, error)
	RemoveItem(ctx context.Context, actor auth.Actor, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, actor auth.Actor) (*View, error)
	View(ctx context.Context, actor auth.Actor) (*View, error)
}

type service struct {
	repo       Repository
	products   product.Repository
	pricingCfg pricing.Config
}

func NewService(repo Repository, products product.Repository, pricingCfg pricing.Config) Service {
	return &service{repo: repo, products: products, pricingCfg: pricingCfg}
}

func (s *service) AddItem(ctx context.Context, actor auth.Actor, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1", "quantity")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("service: failed to fetch product for cart add: %w", err)
	}
	if !p.Active {
		return nil, apperr.NotFound("product not found")
	}

	// Stock is advisory: checked against the current line, not reserved.
	current, err := s.repo.GetQuantity(ctx, actor.AccountID, productID)
	if err != nil && !errors.Is(err, ErrLineNotFound) {
		return nil, fmt.Errorf("service: failed to read cart line: %w", err)
	}
	if current+quantity > p.Stock {
		return nil, apperr.Validation(
			fmt.Sprintf("only %d of %q in stock", p.Stock, p.Name), "quantity")
	}

	if _, err := s.repo.UpsertAdd(ctx, actor.AccountID, productID, quantity); err != nil {
		log.Error().Err(err).Stringer("account_id", actor.AccountID).Stringer("product_id", productID).
			Msg("service: failed to add cart item")
		return nil, fmt.Errorf("service: failed to add cart item: %w", err)
	}

	return s.View(ctx, actor)
}

func (s *service) IncreaseQuantity(ctx context.Context, actor auth.Actor, productID uuid.UUID, delta int) (*View, error) {
	if delta < 1 {
		return nil, apperr.Validation("delta must be at least 1", "delta")
	}

	if err := s.repo.AdjustQuantity(ctx, actor.AccountID, productID, delta); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return nil, apperr.NotFound("product is not in the cart")
		}
		return nil, fmt.Errorf("service: failed to increase quantity: %w", err)
	}

	return s.View(ctx, actor)
}

func (s *service) DecreaseQuantity(ctx context.Context, actor auth.Actor, productID uuid.UUID, delta int) (*View, error) {
	if delta < 1 {
		return nil, apperr.Validation("delta must be at least 1", "delta")
	}

	err := s.repo.AdjustQuantity(ctx, actor.AccountID, productID, -delta)
	if err != nil && !errors.Is(err, ErrLineNotFound) {
		return nil, fmt.Errorf("service: failed to decrease quantity: %w", err)
	}
	// Decreasing an absent line behaves like removing it: a no-op.

	return s.View(ctx, actor)
}

func (s *service) RemoveItem(ctx context.Context, actor auth.Actor, productID uuid.UUID) (*View, error) {
	if err := s.repo.Remove(ctx, actor.AccountID, productID); err != nil {
		return nil, fmt.Errorf("service: failed to remove cart item: %w", err)
	}
	return s.View(ctx, actor)
}

func (s *service) Clear(ctx context.Context, actor auth.Actor) (*View, error) {
	if err := s.repo.Clear(ctx, actor.AccountID); err != nil {
		return nil, fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return s.View(ctx, actor)
}

func (s *service) View(ctx context.Context, actor auth.Actor) (*View, error) {
	lines, err := s.repo.ListLines(ctx, actor.AccountID)
	if err != nil {
		log.Error().Err(err).Stringer("account_id", actor.AccountID).Msg("service: failed to read cart")
		return nil, fmt.Errorf("service: failed to read cart: %w", err)
	}

	return buildView(lines, s.pricingCfg), nil
}

func buildView(lines []ViewLine, cfg pricing.Config) *View {
	priced := make([]pricing.Line, len(lines))
	for i, l := range lines {
		priced[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}

	subtotal := pricing.Subtotal(priced)
	fee := pricing.ShippingFee(subtotal, cfg)

	return &View{
		Lines:       lines,
		Subtotal:    subtotal,
		ShippingFee: fee,
		TotalAmount: pricing.Total(subtotal, fee),
	}
}
