package account_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoangle-dev/storefront/internal/account"
	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
)

type mockAccountRepository struct {
	createFunc    func(ctx context.Context, a *account.Account) error
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (*account.Account, error)
	updateFunc    func(ctx context.Context, a *account.Account) error
	listFunc      func(ctx context.Context, filter account.Filter, page account.Page) ([]account.Account, error)
	isShipperFunc func(ctx context.Context, accountID uuid.UUID) (bool, error)
}

func (m *mockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	return m.createFunc(ctx, a)
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockAccountRepository) Update(ctx context.Context, a *account.Account) error {
	return m.updateFunc(ctx, a)
}

func (m *mockAccountRepository) List(ctx context.Context, filter account.Filter, page account.Page) ([]account.Account, error) {
	return m.listFunc(ctx, filter, page)
}

func (m *mockAccountRepository) IsShipper(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return m.isShipperFunc(ctx, accountID)
}

var adminActor = auth.Actor{
	AccountID: uuid.Must(uuid.FromString("aa0e8400-e29b-41d4-a716-446655440002")),
	Role:      auth.RoleAdmin,
}

func TestAccountService_Create(t *testing.T) {
	validInput := account.CreateInput{
		Email:    "shipper@example.com",
		FullName: "Trần Văn B",
		Role:     auth.RoleShipper,
		Password: "s3cret-pass",
	}

	tests := []struct {
		name       string
		actor      auth.Actor
		input      account.CreateInput
		createFunc func(ctx context.Context, a *account.Account) error
		wantKind   apperr.Kind
	}{
		{
			name:       "success",
			actor:      adminActor,
			input:      validInput,
			createFunc: func(ctx context.Context, a *account.Account) error { return nil },
		},
		{
			name:     "staff_forbidden",
			actor:    auth.Actor{AccountID: adminActor.AccountID, Role: auth.RoleStaff},
			input:    validInput,
			wantKind: apperr.KindForbidden,
		},
		{
			name:  "missing_fields",
			actor: adminActor,
			input: account.CreateInput{
				Email: "not-an-email",
				Role:  auth.RoleCustomer,
			},
			wantKind: apperr.KindValidation,
		},
		{
			name:  "short_password",
			actor: adminActor,
			input: account.CreateInput{
				Email:    "a@example.com",
				FullName: "A",
				Role:     auth.RoleCustomer,
				Password: "short",
			},
			wantKind: apperr.KindValidation,
		},
		{
			name:       "duplicate_email",
			actor:      adminActor,
			input:      validInput,
			createFunc: func(ctx context.Context, a *account.Account) error { return account.ErrEmailExists },
			wantKind:   apperr.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockAccountRepository{createFunc: tt.createFunc}
			svc := account.NewService(repo)

			created, err := svc.Create(context.Background(), tt.actor, tt.input)
			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.True(t, created.Active)
			assert.NotEqual(t, tt.input.Password, created.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(tt.input.Password)))
		})
	}
}

func TestAccountService_GetByID_OwnAccountOnly(t *testing.T) {
	ownID := uuid.Must(uuid.FromString("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"))
	otherID := uuid.Must(uuid.FromString("cccccccc-cccc-cccc-cccc-cccccccccccc"))

	repo := &mockAccountRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*account.Account, error) {
			return &account.Account{ID: id, Role: auth.RoleCustomer}, nil
		},
	}
	svc := account.NewService(repo)

	customer := auth.Actor{AccountID: ownID, Role: auth.RoleCustomer}

	_, err := svc.GetByID(context.Background(), customer, ownID)
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), customer, otherID)
	assert.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
