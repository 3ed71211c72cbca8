package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docsmanager/internal/auth"
	"docsmanager/internal/model"
	"docsmanager/internal/repository"
	"docsmanager/internal/validation"
)

// Session is an issued login token.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService defines login, session checks and account creation.
type AuthService interface {
	Login(ctx context.Context, form validation.LoginForm) (*Session, error)

	// Authenticate resolves a session token to the current state of its user.
	Authenticate(ctx context.Context, token string) (*model.Actor, error)

	// Logout revokes the token until it would have expired. Invalid tokens are ignored.
	Logout(ctx context.Context, token string) error

	CreateUser(ctx context.Context, form validation.UserForm, staff, superuser bool) (*model.User, error)
}

type authService struct {
	users   repository.UserRepository
	tokens  *auth.JWTManager
	revoker auth.Revoker
	log     *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.JWTManager, revoker auth.Revoker, log *zap.Logger) AuthService {
	if revoker == nil {
		revoker = auth.NoopRevoker{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		log:     log.With(zap.String("component", "auth_service")),
	}
}

func (s *authService) Login(ctx context.Context, form validation.LoginForm) (*Session, error) {
	form.Normalize()
	if errs := validation.ValidateStruct(form); errs != nil {
		return nil, errs
	}

	u, err := s.users.FindByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(form.Password, u.PasswordHash); err != nil {
		s.log.Warn("login_failed", zap.String("username", form.Username))
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Generate(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("login_succeeded", zap.String("user_id", u.ID))
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.Actor, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return model.ActorFor(u), nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.Info("logout", zap.String("user_id", claims.Subject))
	return nil
}

func (s *authService) CreateUser(ctx context.Context, form validation.UserForm, staff, superuser bool) (*model.User, error) {
	form.Normalize()
	if errs := validation.ValidateStruct(form); errs != nil {
		return nil, errs
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &model.User{
		Username:     form.Username,
		PasswordHash: hash,
		IsStaff:      staff || superuser,
		IsSuperuser:  superuser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}
