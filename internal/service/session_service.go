package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/security"
)

type SessionView struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	IsCurrent bool      `json:"is_current"`
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	pepper      string
	ttl         time.Duration
}

func NewSessionService(sessionRepo repository.SessionRepository, pepper string, ttl time.Duration) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		pepper:      pepper,
		ttl:         ttl,
	}
}

// CreateSession mints a fresh opaque token, persists its hash with
// expiry now+TTL, and returns the plain token. The token is shown to
// the caller exactly once.
func (s *SessionService) CreateSession(ctx context.Context, userID uint, userAgent, ip string) (*domain.Session, string, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		observability.RecordSessionEvent(ctx, "create", "error")
		return nil, "", err
	}
	session := &domain.Session{
		UserID:    userID,
		TokenHash: security.HashSessionToken(token, s.pepper),
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		observability.RecordSessionEvent(ctx, "create", "error")
		return nil, "", err
	}
	observability.RecordSessionEvent(ctx, "create", "success")
	return session, token, nil
}

func (s *SessionService) ListActiveSessions(userID uint, currentSessionID uint) ([]SessionView, error) {
	sessions, err := s.sessionRepo.ListActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:        session.ID,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			UserAgent: session.UserAgent,
			IP:        session.IP,
			IsCurrent: session.ID == currentSessionID,
		})
	}
	return views, nil
}

// ResolveCurrentSessionID identifies the caller's own session from the
// session token cookie, if one accompanies the request.
func (s *SessionService) ResolveCurrentSessionID(r *http.Request, userID uint) (uint, error) {
	token := security.GetCookie(r, "session_token")
	if token == "" {
		return 0, repository.ErrSessionNotFound
	}
	session, err := s.sessionRepo.FindByTokenHash(security.HashSessionToken(token, s.pepper))
	if err != nil {
		return 0, err
	}
	if session.UserID != userID || !session.Active(time.Now()) {
		return 0, repository.ErrSessionNotFound
	}
	return session.ID, nil
}

func (s *SessionService) RevokeSession(ctx context.Context, userID, sessionID uint) (string, error) {
	changed, err := s.sessionRepo.RevokeByIDForUser(userID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", ErrNotFound
		}
		observability.RecordSessionEvent(ctx, "revoke", "error")
		return "", err
	}
	observability.RecordSessionEvent(ctx, "revoke", "success")
	if !changed {
		return "already_revoked", nil
	}
	return "revoked", nil
}

// TouchSession extends a live session's expiry to now+TTL. A session
// that has expired or been revoked is not resurrected.
func (s *SessionService) TouchSession(ctx context.Context, token string) (*domain.Session, error) {
	hash := security.HashSessionToken(token, s.pepper)
	extended, err := s.sessionRepo.ExtendByTokenHash(hash, time.Now().Add(s.ttl))
	if err != nil {
		observability.RecordSessionEvent(ctx, "touch", "error")
		return nil, err
	}
	if !extended {
		observability.RecordSessionEvent(ctx, "touch", "rejected")
		return nil, repository.ErrSessionNotFound
	}
	session, err := s.sessionRepo.FindByTokenHash(hash)
	if err != nil {
		return nil, err
	}
	observability.RecordSessionEvent(ctx, "touch", "success")
	return session, nil
}

// CleanupExpired garbage-collects dead rows. It is driven by the CLI
// (an external scheduler), never from inside the request path.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.sessionRepo.CleanupExpired()
	if err != nil {
		observability.RecordSessionEvent(ctx, "cleanup", "error")
		return deleted, err
	}
	observability.RecordSessionEvent(ctx, "cleanup", "success")
	return deleted, nil
}
