package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	pkgvalidator "github.com/velesk/marketplace-api/internal/pkg/validator"
)

// TokenIssuer mints access tokens for authenticated users
type TokenIssuer interface {
	GenerateAccessToken(user *domain.User) (string, error)
}

// RegisterInput is the validated payload for account registration
type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     domain.Role
}

// Service handles account registration and login
type Service struct {
	repo     domain.UserRepository
	tokens   TokenIssuer
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new user service
func NewService(repo domain.UserRepository, tokens TokenIssuer, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		validate: pkgvalidator.Get(),
		logger:   log,
	}
}

// Register creates a new account. The role defaults to buyer when empty;
// a duplicate email returns ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Role == "" {
		input.Role = domain.RoleBuyer
	}
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidInput
	}

	if err := s.validate.Struct(input); err != nil {
		s.logger.Error("Registration validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return nil, domain.ErrInternal
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if err == domain.ErrAlreadyExists {
			s.logger.Debugf("Email already registered: %s", input.Email)
		} else {
			s.logger.Error("Failed to create user", err)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered successfully")

	return user, nil
}

// Login verifies credentials and returns a signed access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrNotFound {
			return "", nil, domain.ErrUnauthorized
		}
		s.logger.Error("Failed to get user by email", err)
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("Failed to issue access token", err)
		return "", nil, domain.ErrInternal
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("User logged in")

	return token, user, nil
}
