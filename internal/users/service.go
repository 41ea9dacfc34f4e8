package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/pkg/config"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
	"github.com/gamevault/gamevault-backend/pkg/security"
)

type accountReconciler interface {
	Run(ctx context.Context, userID uuid.UUID) error
}

type registrationNotifier interface {
	UserRegistered(ctx context.Context, userID uuid.UUID, email string)
}

// Service manages user accounts.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	CountByRole(ctx context.Context, role enums.Role) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        enums.Role
	TaxID       *string
	PayoutEmail *string
}

// UpdateInput carries mutable profile fields; nil means unchanged.
type UpdateInput struct {
	Name        *string
	TaxID       *string
	PayoutEmail *string
}

type service struct {
	repo      Repository
	reconcile accountReconciler
	notifier  registrationNotifier
	passwords config.PasswordConfig
	logg      *logger.Logger
}

// NewService wires the users service.
func NewService(repo Repository, reconcile accountReconciler, notifier registrationNotifier, passwords config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if reconcile == nil {
		return nil, fmt.Errorf("account reconciler required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("registration notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		reconcile: reconcile,
		notifier:  notifier,
		passwords: passwords,
		logg:      logg,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	if _, err := s.repo.FindActiveByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email uniqueness")
	}

	hash, err := security.HashPassword(input.Password, s.passwords)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		TaxID:        input.TaxID,
		PayoutEmail:  input.PayoutEmail,
		Active:       true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.notifier.UserRegistered(ctx, user.ID, user.Email)
	return user, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.TaxID != nil {
		updates["tax_id"] = *input.TaxID
	}
	if input.PayoutEmail != nil {
		updates["payout_email"] = *input.PayoutEmail
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	return s.GetByID(ctx, id)
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	if active {
		user, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if existing, err := s.repo.FindActiveByEmail(ctx, user.Email); err == nil && existing.ID != id {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered to an active account")
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email uniqueness")
		}
	}

	if err := s.repo.Update(ctx, id, map[string]any{"active": active}); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	user, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user by email")
	}
	return user, nil
}

func (s *service) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users by role")
	}
	return users, nil
}

func (s *service) CountByRole(ctx context.Context, role enums.Role) (int64, error) {
	if !role.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	count, err := s.repo.CountByRole(ctx, role)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users by role")
	}
	return count, nil
}

// Delete removes the account and every row that references it, via the
// reconcile pipeline. Ledger amounts survive with their links nulled.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return s.reconcile.Run(ctx, id)
}
