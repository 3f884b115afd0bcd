package order_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
	"github.com/hoangle-dev/storefront/internal/order"
)

type mockOrderRepository struct {
	createFromCartFunc func(ctx context.Context, o *order.Order) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	listFunc           func(ctx context.Context, filter order.Filter, page order.Page) ([]order.Order, error)
	updateStatusFunc   func(ctx context.Context, orderID uuid.UUID, expectedFrom, to order.Status, cancelReason *string) error
	assignShipperFunc  func(ctx context.Context, orderID, shipperID uuid.UUID) error
}

func (m *mockOrderRepository) CreateFromCart(ctx context.Context, o *order.Order) error {
	return m.createFromCartFunc(ctx, o)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrderRepository) List(ctx context.Context, filter order.Filter, page order.Page) ([]order.Order, error) {
	return m.listFunc(ctx, filter, page)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, expectedFrom, to order.Status, cancelReason *string) error {
	return m.updateStatusFunc(ctx, orderID, expectedFrom, to, cancelReason)
}

func (m *mockOrderRepository) AssignShipper(ctx context.Context, orderID, shipperID uuid.UUID) error {
	return m.assignShipperFunc(ctx, orderID, shipperID)
}

type mockShipperDirectory struct {
	isShipperFunc func(ctx context.Context, accountID uuid.UUID) (bool, error)
}

func (m *mockShipperDirectory) IsShipper(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return m.isShipperFunc(ctx, accountID)
}

var (
	orderID    = uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))
	customerID = uuid.Must(uuid.FromString("123e4567-e89b-12d3-a456-426614174000"))
	shipperID  = uuid.Must(uuid.FromString("9f0e8400-e29b-41d4-a716-446655440001"))
	adminActor = auth.Actor{
		AccountID: uuid.Must(uuid.FromString("aa0e8400-e29b-41d4-a716-446655440002")),
		Role:      auth.RoleAdmin,
	}
)

func storedOrder(status order.Status, withShipper bool) *order.Order {
	o := &order.Order{
		ID:          orderID,
		CustomerID:  customerID,
		Status:      status,
		Subtotal:    500_000,
		ShippingFee: 30_000,
		TotalAmount: 530_000,
	}
	if withShipper {
		sid := shipperID
		o.ShipperID = &sid
	}
	return o
}

func TestOrderService_GetByID_Scoping(t *testing.T) {
	tests := []struct {
		name     string
		actor    auth.Actor
		stored   *order.Order
		wantKind apperr.Kind
	}{
		{
			name:   "owner_sees_own_order",
			actor:  auth.Actor{AccountID: customerID, Role: auth.RoleCustomer},
			stored: storedOrder(order.StatusProcessing, false),
		},
		{
			name: "other_customer_gets_not_found",
			actor: auth.Actor{
				AccountID: uuid.Must(uuid.FromString("dddddddd-dddd-dddd-dddd-dddddddddddd")),
				Role:      auth.RoleCustomer,
			},
			stored:   storedOrder(order.StatusProcessing, false),
			wantKind: apperr.KindNotFound,
		},
		{
			name:   "assigned_shipper_sees_order",
			actor:  auth.Actor{AccountID: shipperID, Role: auth.RoleShipper},
			stored: storedOrder(order.StatusShipping, true),
		},
		{
			name:     "unassigned_shipper_gets_not_found",
			actor:    auth.Actor{AccountID: shipperID, Role: auth.RoleShipper},
			stored:   storedOrder(order.StatusProcessing, false),
			wantKind: apperr.KindNotFound,
		},
		{
			name:   "admin_sees_everything",
			actor:  adminActor,
			stored: storedOrder(order.StatusDelivered, true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return tt.stored, nil
				},
			}
			svc := order.NewService(repo, &mockShipperDirectory{})

			o, err := svc.GetByID(context.Background(), tt.actor, orderID)
			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.stored, o)
			}
		})
	}
}

func TestOrderService_List_ForcesScope(t *testing.T) {
	tests := []struct {
		name         string
		actor        auth.Actor
		wantCustomer *uuid.UUID
		wantShipper  *uuid.UUID
	}{
		{
			name:         "customer_scope",
			actor:        auth.Actor{AccountID: customerID, Role: auth.RoleCustomer},
			wantCustomer: &customerID,
		},
		{
			name:        "shipper_scope",
			actor:       auth.Actor{AccountID: shipperID, Role: auth.RoleShipper},
			wantShipper: &shipperID,
		},
		{
			name:  "admin_unrestricted",
			actor: adminActor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter order.Filter
			repo := &mockOrderRepository{
				listFunc: func(ctx context.Context, filter order.Filter, page order.Page) ([]order.Order, error) {
					gotFilter = filter
					return []order.Order{}, nil
				},
			}
			svc := order.NewService(repo, &mockShipperDirectory{})

			// The caller tries to widen the scope; the service must override it.
			other := uuid.Must(uuid.FromString("eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee"))
			_, err := svc.List(context.Background(), tt.actor, order.Filter{CustomerID: &other}, order.Page{})
			require.NoError(t, err)

			if tt.wantCustomer != nil {
				require.NotNil(t, gotFilter.CustomerID)
				assert.Equal(t, *tt.wantCustomer, *gotFilter.CustomerID)
				assert.Nil(t, gotFilter.ShipperID)
			}
			if tt.wantShipper != nil {
				require.NotNil(t, gotFilter.ShipperID)
				assert.Equal(t, *tt.wantShipper, *gotFilter.ShipperID)
				assert.Nil(t, gotFilter.CustomerID)
			}
			if tt.wantCustomer == nil && tt.wantShipper == nil {
				assert.NotNil(t, gotFilter.CustomerID, "admin keeps the requested filter")
			}
		})
	}
}

func TestOrderService_TransitionStatus(t *testing.T) {
	tests := []struct {
		name             string
		actor            auth.Actor
		stored           *order.Order
		to               order.Status
		cancelReason     string
		updateStatusFunc func(ctx context.Context, orderID uuid.UUID, expectedFrom, to order.Status, cancelReason *string) error
		wantKind         apperr.Kind
		wantReason       *string
	}{
		{
			name:   "admin_ships_processing_order",
			actor:  adminActor,
			stored: storedOrder(order.StatusProcessing, false),
			to:     order.StatusShipping,
		},
		{
			name:         "admin_cancels_with_reason",
			actor:        adminActor,
			stored:       storedOrder(order.StatusProcessing, false),
			to:           order.StatusCancelled,
			cancelReason: "duplicate",
		},
		{
			name:     "cancel_without_reason_rejected",
			actor:    adminActor,
			stored:   storedOrder(order.StatusShipping, false),
			to:       order.StatusCancelled,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:     "customer_forbidden",
			actor:    auth.Actor{AccountID: customerID, Role: auth.RoleCustomer},
			stored:   storedOrder(order.StatusProcessing, false),
			to:       order.StatusCancelled,
			wantKind: apperr.KindForbidden,
		},
		{
			name:   "concurrent_change_maps_to_conflict",
			actor:  adminActor,
			stored: storedOrder(order.StatusProcessing, false),
			to:     order.StatusShipping,
			updateStatusFunc: func(ctx context.Context, orderID uuid.UUID, expectedFrom, to order.Status, cancelReason *string) error {
				return order.ErrStatusConflict
			},
			wantKind: apperr.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReason *string
			updateFunc := tt.updateStatusFunc
			if updateFunc == nil {
				updateFunc = func(ctx context.Context, orderID uuid.UUID, expectedFrom, to order.Status, cancelReason *string) error {
					gotReason = cancelReason
					return nil
				}
			}

			repo := &mockOrderRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return tt.stored, nil
				},
				updateStatusFunc: updateFunc,
			}
			svc := order.NewService(repo, &mockShipperDirectory{})

			_, err := svc.TransitionStatus(context.Background(), tt.actor, orderID, tt.to, tt.cancelReason)
			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}

			require.NoError(t, err)
			if tt.to == order.StatusCancelled {
				require.NotNil(t, gotReason)
				assert.Equal(t, tt.cancelReason, *gotReason)
			}
		})
	}
}

func TestOrderService_AssignShipper(t *testing.T) {
	tests := []struct {
		name      string
		actor     auth.Actor
		isShipper bool
		assignErr error
		wantKind  apperr.Kind
	}{
		{name: "admin_assigns_active_shipper", actor: adminActor, isShipper: true},
		{
			name:     "customer_forbidden",
			actor:    auth.Actor{AccountID: customerID, Role: auth.RoleCustomer},
			wantKind: apperr.KindForbidden,
		},
		{name: "not_a_shipper", actor: adminActor, isShipper: false, wantKind: apperr.KindValidation},
		{
			name:      "terminal_order_rejected",
			actor:     adminActor,
			isShipper: true,
			assignErr: order.ErrStatusConflict,
			wantKind:  apperr.KindInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return storedOrder(order.StatusProcessing, true), nil
				},
				assignShipperFunc: func(ctx context.Context, orderID, sid uuid.UUID) error {
					return tt.assignErr
				},
			}
			dir := &mockShipperDirectory{
				isShipperFunc: func(ctx context.Context, accountID uuid.UUID) (bool, error) {
					return tt.isShipper, nil
				},
			}
			svc := order.NewService(repo, dir)

			_, err := svc.AssignShipper(context.Background(), tt.actor, orderID, shipperID)
			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
