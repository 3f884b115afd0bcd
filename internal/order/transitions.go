package order

import (
	"strings"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusProcessing: {
		StatusShipping:  true,
		StatusCancelled: true,
	},
	StatusShipping: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Shippers must explain a cancellation; back-office staff may give any
// non-empty reason.
const minShipperCancelReasonLen = 10

// ValidateTransition checks whether actor may move o from its current status
// to the requested one. It validates only; applying the change is the
// repository's conditional update.
func ValidateTransition(o *Order, to Status, actor auth.Actor, cancelReason string) error {
	if !to.Valid() {
		return apperr.InvalidTransition("unknown status " + string(to))
	}

	if o.Status.IsTerminal() {
		return apperr.InvalidTransition("order is already " + string(o.Status))
	}

	switch actor.Role {
	case auth.RoleAdmin, auth.RoleStaff:
		// Back office may drive any listed transition.
	case auth.RoleShipper:
		if o.ShipperID == nil || *o.ShipperID != actor.AccountID {
			return apperr.Forbidden("order is not assigned to this shipper")
		}
	default:
		return apperr.Forbidden("role may not change order status")
	}

	if !allowedTransitions[o.Status][to] {
		return apperr.InvalidTransition("cannot move order from " + string(o.Status) + " to " + string(to))
	}

	if to == StatusCancelled {
		reason := strings.TrimSpace(cancelReason)
		if reason == "" {
			return apperr.InvalidTransition("cancellation reason required")
		}
		if actor.Role == auth.RoleShipper && len([]rune(reason)) < minShipperCancelReasonLen {
			return apperr.InvalidTransition("cancellation reason too short")
		}
	}

	return nil
}
