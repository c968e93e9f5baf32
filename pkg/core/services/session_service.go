package services

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

// SessionService owns the signed-in identity and the persisted token. It is
// the only writer of both.
type SessionService struct {
	api    ports.AuthAPI
	tokens ports.TokenStore
	nav    ports.Navigator
	logger *log.Logger
	now    func() time.Time

	mu        sync.RWMutex
	session   domain.Session
	listeners []func(domain.Session)
}

func NewSessionService(api ports.AuthAPI, tokens ports.TokenStore, nav ports.Navigator, logger *log.Logger) *SessionService {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionService{
		api:    api,
		tokens: tokens,
		nav:    nav,
		logger: logger,
		now:    time.Now,
	}
}

func (s *SessionService) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// OnChange registers fn to run after every state transition
func (s *SessionService) OnChange(fn func(domain.Session)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Restore resolves the persisted token into a session. A missing, expired or
// rejected token ends Anonymous; a rejected or expired one is also removed.
// Transport failures leave the token in place for the next attempt.
func (s *SessionService) Restore(ctx context.Context) (domain.Session, error) {
	s.set(domain.Session{State: domain.SessionRestoring})

	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.set(anonymous())
		return s.Current(), err
	}
	if token == "" {
		s.set(anonymous())
		return s.Current(), nil
	}
	if tokenExpired(token, s.now()) {
		s.logger.Printf("session: stored token expired, discarding")
		if err := s.tokens.Delete(ctx); err != nil {
			s.logger.Printf("session: failed to delete token: %v", err)
		}
		s.set(anonymous())
		return s.Current(), nil
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.set(anonymous())
		if errors.Is(err, domain.ErrUnauthorized) {
			// the client clears the token on 401, but the API may be a stand-in
			if derr := s.tokens.Delete(context.WithoutCancel(ctx)); derr != nil {
				s.logger.Printf("session: failed to delete token: %v", derr)
			}
			return s.Current(), nil
		}
		return s.Current(), err
	}

	s.set(domain.NewSession(*user))
	return s.Current(), nil
}

func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(false); err != nil {
		return s.Current(), err
	}
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return s.Current(), err
	}
	return s.authenticated(ctx, resp)
}

func (s *SessionService) Register(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(true); err != nil {
		return s.Current(), err
	}
	resp, err := s.api.Register(ctx, creds)
	if err != nil {
		return s.Current(), err
	}
	return s.authenticated(ctx, resp)
}

func (s *SessionService) authenticated(ctx context.Context, resp *domain.AuthResponse) (domain.Session, error) {
	if err := s.tokens.Set(ctx, resp.Token); err != nil {
		return s.Current(), err
	}
	s.set(domain.NewSession(resp.User))
	return s.Current(), nil
}

// Logout always ends Anonymous with the token removed, even when the remote
// call fails. The remote failure is only logged.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Printf("session: remote logout failed: %v", err)
	}
	err := s.tokens.Delete(context.WithoutCancel(ctx))
	s.set(anonymous())
	return err
}

// HandleUnauthorized is registered with the HTTP client. The client has
// already dropped the token by the time it runs.
func (s *SessionService) HandleUnauthorized() {
	s.set(anonymous())
	if s.nav != nil {
		s.nav.ToLogin()
	}
}

// RequireAuthenticated returns ErrNotAuthenticated unless signed in
func (s *SessionService) RequireAuthenticated() error {
	if !s.Current().IsAuthenticated {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func (s *SessionService) set(next domain.Session) {
	s.mu.Lock()
	s.session = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

func anonymous() domain.Session {
	return domain.Session{State: domain.SessionAnonymous}
}

// tokenExpired reads the exp claim without verifying the signature; the API
// remains the authority. Tokens that are not JWTs are never treated as expired.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
