package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/security"
)

type LoginResult struct {
	User         *domain.User
	Session      *domain.Session
	AccessToken  string
	SessionToken string
}

type AuthService struct {
	userRepo  repository.UserRepository
	sessions  *SessionService
	jwt       *security.JWTManager
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, sessions *SessionService, jwt *security.JWTManager, accessTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		sessions:  sessions,
		jwt:       jwt,
		accessTTL: accessTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, email, name, password, userAgent, ip string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return s.issue(ctx, user, userAgent, ip)
}

func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ip string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin("error")
		return nil, err
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		observability.RecordAuthLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	result, err := s.issue(ctx, user, userAgent, ip)
	if err != nil {
		observability.RecordAuthLogin("error")
		return nil, err
	}
	observability.RecordAuthLogin("success")
	return result, nil
}

// Refresh exchanges a live session token for a fresh access token,
// extending the session's expiry as the activity signal.
func (s *AuthService) Refresh(ctx context.Context, sessionToken string) (*LoginResult, error) {
	session, err := s.sessions.TouchSession(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	user, err := s.userRepo.FindByID(session.UserID)
	if err != nil {
		return nil, err
	}
	access, err := s.jwt.SignAccessToken(user.ID, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Session: session, AccessToken: access, SessionToken: sessionToken}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID, sessionID uint) error {
	_, err := s.sessions.RevokeSession(ctx, userID, sessionID)
	return err
}

func (s *AuthService) issue(ctx context.Context, user *domain.User, userAgent, ip string) (*LoginResult, error) {
	session, token, err := s.sessions.CreateSession(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, err
	}
	access, err := s.jwt.SignAccessToken(user.ID, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Session: session, AccessToken: access, SessionToken: token}, nil
}
