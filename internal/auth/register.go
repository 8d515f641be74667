package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/internal/brands"
	"github.com/spooltrack/spooltrack-backend/internal/users"
	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
	"github.com/spooltrack/spooltrack-backend/pkg/security"
)

// RegisterRequest contains the payload required for creating a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=40"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterResponse returns the newly created user.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerBrandRepository interface {
	Upsert(ctx context.Context, userID uuid.UUID, brand string) (*models.QuickBrand, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// Repo factories default to the concrete GORM repos when unset.
type RegisterServiceParams struct {
	TxRunner         TxRunner
	UserRepoFactory  func(tx *gorm.DB) registerUserRepository
	BrandRepoFactory func(tx *gorm.DB) registerBrandRepository
	PasswordConfig   config.PasswordConfig
}

type registerService struct {
	tx          TxRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	brandRepos  func(tx *gorm.DB) registerBrandRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.BrandRepoFactory == nil {
		params.BrandRepoFactory = func(tx *gorm.DB) registerBrandRepository {
			return brands.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		brandRepos:  params.BrandRepoFactory,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		brandRepo := s.brandRepos(tx)

		if _, err := userRepo.FindByUsername(ctx, username); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "username already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "account already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		for _, brand := range brands.DefaultBrands {
			if _, err := brandRepo.Upsert(ctx, user.ID, brand); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed quick brands")
			}
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{User: created}, nil
}
