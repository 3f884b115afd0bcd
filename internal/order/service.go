package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
)

// ShipperDirectory answers whether an account is an active shipper. Backed
// by the accounts repository.
type ShipperDirectory interface {
	IsShipper(ctx context.Context, accountID uuid.UUID) (bool, error)
}

type Service interface {
	GetByID(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Order, error)
	List(ctx context.Context, actor auth.Actor, filter Filter, page Page) ([]Order, error)
	TransitionStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, to Status, cancelReason string) (*Order, error)
	AssignShipper(ctx context.Context, actor auth.Actor, orderID, shipperID uuid.UUID) (*Order, error)
}

type service struct {
	repo     Repository
	shippers ShipperDirectory
}

func NewService(repo Repository, shippers ShipperDirectory) Service {
	return &service{repo: repo, shippers: shippers}
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	if !visibleTo(o, actor) {
		// Cross-actor leakage reads the same as absence.
		return nil, apperr.NotFound("order not found")
	}

	return o, nil
}

// List returns orders scoped to the actor: customers see their own orders,
// shippers the orders assigned to them, back office everything.
func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter, page Page) ([]Order, error) {
	switch actor.Role {
	case auth.RoleCustomer:
		filter.CustomerID = &actor.AccountID
		filter.ShipperID = nil
	case auth.RoleShipper:
		filter.ShipperID = &actor.AccountID
		filter.CustomerID = nil
	case auth.RoleAdmin, auth.RoleStaff:
		// Unrestricted.
	default:
		return nil, apperr.Forbidden("role may not list orders")
	}

	orders, err := s.repo.List(ctx, filter, page)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

func (s *service) TransitionStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, to Status, cancelReason string) (*Order, error) {
	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if err := ValidateTransition(current, to, actor, cancelReason); err != nil {
		log.Warn().
			Stringer("order_id", current.ID).
			Stringer("current_status", current.Status).
			Stringer("new_status", to).
			Str("actor_role", actor.Role.String()).
			Err(err).
			Msg("service: rejected status transition")
		return nil, err
	}

	var reason *string
	if to == StatusCancelled {
		trimmed := strings.TrimSpace(cancelReason)
		reason = &trimmed
	}

	err = s.repo.UpdateStatus(ctx, orderID, current.Status, to, reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, apperr.NotFound("order not found")
		case errors.Is(err, ErrStatusConflict):
			return nil, apperr.Conflict("order status changed concurrently, re-read and retry")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", to).
			Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", current.Status).Stringer("new_status", to).
		Msg("service: order status updated")

	return s.repo.GetByID(ctx, orderID)
}

func (s *service) AssignShipper(ctx context.Context, actor auth.Actor, orderID, shipperID uuid.UUID) (*Order, error) {
	if !actor.Role.IsBackOffice() {
		return nil, apperr.Forbidden("only admin or staff may assign shippers")
	}

	ok, err := s.shippers.IsShipper(ctx, shipperID)
	if err != nil {
		log.Error().Err(err).Stringer("shipper_id", shipperID).Msg("service: failed to verify shipper")
		return nil, fmt.Errorf("service: failed to verify shipper: %w", err)
	}
	if !ok {
		return nil, apperr.Validation("account is not an active shipper", "shipper_id")
	}

	err = s.repo.AssignShipper(ctx, orderID, shipperID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, apperr.NotFound("order not found")
		case errors.Is(err, ErrStatusConflict):
			return nil, apperr.InvalidTransition("shipper can only be assigned while the order is active")
		}
		return nil, fmt.Errorf("service: failed to assign shipper: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("shipper_id", shipperID).Msg("service: shipper assigned")

	return s.repo.GetByID(ctx, orderID)
}

func visibleTo(o *Order, actor auth.Actor) bool {
	switch actor.Role {
	case auth.RoleAdmin, auth.RoleStaff:
		return true
	case auth.RoleCustomer:
		return o.CustomerID == actor.AccountID
	case auth.RoleShipper:
		return o.ShipperID != nil && *o.ShipperID == actor.AccountID
	}
	return false
}
