package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
)

type CreateInput struct {
	Email    string    `json:"email" validate:"required,email"`
	FullName string    `json:"full_name" validate:"required"`
	Role     auth.Role `json:"role" validate:"required"`
	Password string    `json:"password" validate:"required,min=8"`
}

type UpdateInput struct {
	FullName string    `json:"full_name" validate:"required"`
	Role     auth.Role `json:"role" validate:"required"`
	Active   bool      `json:"active"`
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Account, error)
	GetByID(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Account, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Account, error)
	List(ctx context.Context, actor auth.Actor, filter Filter, page Page) ([]Account, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) Service {
	return &service{repo: repo, validate: validator.New()}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Account, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, apperr.Forbidden("only admin may create accounts")
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if _, err := auth.ParseRole(string(input.Role)); err != nil {
		return nil, apperr.Validation("unknown role", "role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	a := &Account{
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         input.Role,
		PasswordHash: string(hash),
		Active:       true,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, apperr.Conflict("email already registered")
		}
		log.Error().Err(err).Msg("service: failed to create account")
		return nil, fmt.Errorf("service: failed to create account: %w", err)
	}

	log.Info().Stringer("account_id", a.ID).Str("role", a.Role.String()).Msg("service: account created")
	return a, nil
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Account, error) {
	// Customers and shippers may only read their own account.
	if !actor.Role.IsBackOffice() && actor.AccountID != id {
		return nil, apperr.Forbidden("cannot read another account")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, apperr.NotFound("account not found")
		}
		log.Error().Err(err).Stringer("account_id", id).Msg("service: failed to fetch account")
		return nil, fmt.Errorf("service: failed to fetch account: %w", err)
	}

	return a, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Account, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, apperr.Forbidden("only admin may update accounts")
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if _, err := auth.ParseRole(string(input.Role)); err != nil {
		return nil, apperr.Validation("unknown role", "role")
	}

	a := &Account{ID: id, FullName: input.FullName, Role: input.Role, Active: input.Active}
	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, apperr.NotFound("account not found")
		}
		log.Error().Err(err).Stringer("account_id", id).Msg("service: failed to update account")
		return nil, fmt.Errorf("service: failed to update account: %w", err)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter, page Page) ([]Account, error) {
	if !actor.Role.IsBackOffice() {
		return nil, apperr.Forbidden("only admin or staff may list accounts")
	}

	accounts, err := s.repo.List(ctx, filter, page)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list accounts")
		return nil, fmt.Errorf("service: failed to list accounts: %w", err)
	}

	return accounts, nil
}

func (s *service) validateInput(input interface{}) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return apperr.Validation("missing or invalid account fields", fields...)
	}
	return fmt.Errorf("service: failed to validate account input: %w", err)
}
