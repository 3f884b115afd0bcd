package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
)

type Service interface {
	Create(ctx context.Context, actor auth.Actor, p *Product) (*Product, error)
	Update(ctx context.Context, actor auth.Actor, p *Product) (*Product, error)
	GetByID(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Product, error)
	List(ctx context.Context, actor auth.Actor, filter Filter, page Page) ([]Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, p *Product) (*Product, error) {
	if !actor.Role.IsBackOffice() {
		return nil, apperr.Forbidden("only admin or staff may manage products")
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return p, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, p *Product) (*Product, error) {
	if !actor.Role.IsBackOffice() {
		return nil, apperr.Forbidden("only admin or staff may manage products")
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	return s.GetByID(ctx, actor, p.ID)
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	// Inactive products are a back-office concern only.
	if !p.Active && !actor.Role.IsBackOffice() {
		return nil, apperr.NotFound("product not found")
	}

	return p, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter, page Page) ([]Product, error) {
	if !actor.Role.IsBackOffice() {
		filter.ActiveOnly = true
	}

	products, err := s.repo.List(ctx, filter, page)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return products, nil
}

func validateProduct(p *Product) error {
	var fields []string
	if p.Name == "" {
		fields = append(fields, "name")
	}
	if p.Price < 0 {
		fields = append(fields, "price")
	}
	if p.Stock < 0 {
		fields = append(fields, "stock")
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid product", fields...)
	}
	return nil
}
