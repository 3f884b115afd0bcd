package order_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
	"github.com/hoangle-dev/storefront/internal/order"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.FromString(s)
	require.NoError(t, err)
	return id
}

func testOrder(t *testing.T, status order.Status, shipperID *uuid.UUID) *order.Order {
	t.Helper()
	return &order.Order{
		ID:         mustUUID(t, "550e8400-e29b-41d4-a716-446655440000"),
		CustomerID: mustUUID(t, "123e4567-e89b-12d3-a456-426614174000"),
		ShipperID:  shipperID,
		Status:     status,
	}
}

func TestValidateTransition_Table(t *testing.T) {
	shipperID := mustUUID(t, "9f0e8400-e29b-41d4-a716-446655440001")
	statuses := []order.Status{order.StatusProcessing, order.StatusShipping, order.StatusDelivered, order.StatusCancelled}

	allowed := map[order.Status]map[order.Status]bool{
		order.StatusProcessing: {order.StatusShipping: true, order.StatusCancelled: true},
		order.StatusShipping:   {order.StatusDelivered: true, order.StatusCancelled: true},
		order.StatusDelivered:  {},
		order.StatusCancelled:  {},
	}

	actors := []auth.Actor{
		{AccountID: mustUUID(t, "aa0e8400-e29b-41d4-a716-446655440002"), Role: auth.RoleAdmin},
		{AccountID: mustUUID(t, "bb0e8400-e29b-41d4-a716-446655440003"), Role: auth.RoleStaff},
		{AccountID: shipperID, Role: auth.RoleShipper},
	}

	for _, actor := range actors {
		for _, from := range statuses {
			for _, to := range statuses {
				o := testOrder(t, from, &shipperID)
				err := order.ValidateTransition(o, to, actor, "damaged parcel, customer unreachable")

				name := string(actor.Role) + "_" + string(from) + "_to_" + string(to)
				if allowed[from][to] {
					assert.NoError(t, err, name)
				} else {
					assert.Error(t, err, name)
					assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err), name)
				}
			}
		}
	}
}

func TestValidateTransition_CustomerForbidden(t *testing.T) {
	customer := auth.Actor{
		AccountID: mustUUID(t, "123e4567-e89b-12d3-a456-426614174000"),
		Role:      auth.RoleCustomer,
	}

	o := testOrder(t, order.StatusProcessing, nil)
	err := order.ValidateTransition(o, order.StatusShipping, customer, "")

	assert.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestValidateTransition_UnassignedShipperForbidden(t *testing.T) {
	assignedID := mustUUID(t, "9f0e8400-e29b-41d4-a716-446655440001")
	otherShipper := auth.Actor{
		AccountID: mustUUID(t, "cc0e8400-e29b-41d4-a716-446655440004"),
		Role:      auth.RoleShipper,
	}

	tests := []struct {
		name      string
		shipperID *uuid.UUID
	}{
		{name: "assigned_to_someone_else", shipperID: &assignedID},
		{name: "unassigned", shipperID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder(t, order.StatusProcessing, tt.shipperID)
			err := order.ValidateTransition(o, order.StatusShipping, otherShipper, "")

			assert.Error(t, err)
			assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		})
	}
}

func TestValidateTransition_CancelReason(t *testing.T) {
	shipperID := mustUUID(t, "9f0e8400-e29b-41d4-a716-446655440001")
	admin := auth.Actor{AccountID: mustUUID(t, "aa0e8400-e29b-41d4-a716-446655440002"), Role: auth.RoleAdmin}
	shipper := auth.Actor{AccountID: shipperID, Role: auth.RoleShipper}

	tests := []struct {
		name     string
		actor    auth.Actor
		reason   string
		wantKind apperr.Kind
	}{
		{name: "admin_missing_reason", actor: admin, reason: "", wantKind: apperr.KindInvalidTransition},
		{name: "admin_whitespace_reason", actor: admin, reason: "   ", wantKind: apperr.KindInvalidTransition},
		{name: "admin_short_reason_ok", actor: admin, reason: "dup"},
		{name: "shipper_missing_reason", actor: shipper, reason: "", wantKind: apperr.KindInvalidTransition},
		{name: "shipper_short_reason", actor: shipper, reason: "too short", wantKind: apperr.KindInvalidTransition},
		{name: "shipper_long_reason_ok", actor: shipper, reason: "recipient refused the delivery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder(t, order.StatusProcessing, &shipperID)
			err := order.ValidateTransition(o, order.StatusCancelled, tt.actor, tt.reason)

			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTransition_TerminalStates(t *testing.T) {
	shipperID := mustUUID(t, "9f0e8400-e29b-41d4-a716-446655440001")
	actors := []auth.Actor{
		{AccountID: mustUUID(t, "aa0e8400-e29b-41d4-a716-446655440002"), Role: auth.RoleAdmin},
		{AccountID: mustUUID(t, "bb0e8400-e29b-41d4-a716-446655440003"), Role: auth.RoleStaff},
		{AccountID: shipperID, Role: auth.RoleShipper},
	}

	for _, terminal := range []order.Status{order.StatusDelivered, order.StatusCancelled} {
		for _, actor := range actors {
			for _, to := range []order.Status{order.StatusProcessing, order.StatusShipping, order.StatusDelivered, order.StatusCancelled} {
				o := testOrder(t, terminal, &shipperID)
				err := order.ValidateTransition(o, to, actor, "order was placed by mistake")

				assert.Error(t, err, "%s from %s to %s", actor.Role, terminal, to)
				assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
			}
		}
	}
}

func TestValidateTransition_UnknownStatus(t *testing.T) {
	admin := auth.Actor{AccountID: mustUUID(t, "aa0e8400-e29b-41d4-a716-446655440002"), Role: auth.RoleAdmin}
	o := testOrder(t, order.StatusProcessing, nil)

	err := order.ValidateTransition(o, order.Status("PAID"), admin, "")

	assert.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}
