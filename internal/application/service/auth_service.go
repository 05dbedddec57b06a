package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/application/session"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/utils"
)

const minPasswordLength = 8

// AuthService handles operator login, logout and accounts
type AuthService struct {
	userRepo   repository.UserRepository
	sessions   *session.Manager
	jwtManager *utils.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	sessions *session.Manager,
	jwtManager *utils.JWTManager,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		sessions:   sessions,
		jwtManager: jwtManager,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User        *entity.User
	SessionID   uuid.UUID
	AccessToken string
}

// Login authenticates an operator, opens a session and returns a token bound to it
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	sessionID, err := s.sessions.Start(user.ID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, sessionID, user.Email, string(user.Role))
	if err != nil {
		_ = s.sessions.End(sessionID)
		return nil, err
	}

	return &LoginOutput{
		User:        user,
		SessionID:   sessionID,
		AccessToken: accessToken,
	}, nil
}

// Logout ends the session. Ending an already expired session is not an error.
func (s *AuthService) Logout(sessionID uuid.UUID) error {
	if err := s.sessions.End(sessionID); err != nil && !errors.Is(err, session.ErrUnknownSession) {
		return err
	}
	return nil
}

// GetCurrentUser returns the operator behind a session
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// CreateUserInput represents a new operator account
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     enum.Role
}

// CreateUser creates an operator account. Only admins reach this.
func (s *AuthService) CreateUser(ctx context.Context, input *CreateUserInput) (*entity.User, error) {
	var errs []apperror.FieldError
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "Email is invalid"})
	}
	if len(input.Password) < minPasswordLength {
		errs = append(errs, apperror.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	role := input.Role
	if role == "" {
		role = enum.RoleCashier
	}
	if !role.IsValid() {
		errs = append(errs, apperror.FieldError{Field: "role", Message: "Role must be admin or cashier"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
