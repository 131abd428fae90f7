package service

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserSessionService manages operator cookie sessions.
type UserSessionService struct {
	store         sessions.Store
	cookieOptions sessions.Options
}

// sessionKeyUserID is the key used to store and retrieve the user ID in the session.
const sessionKeyUserID = "uid"

// sessionKeyCSRF holds the per-session CSRF token.
const sessionKeyCSRF = "csrf"

// NewUserSessionService wraps store (Redis in production, cookie in tests).
// The `isDev` flag controls whether cookies are marked Secure.
func NewUserSessionService(isDev bool, store sessions.Store) *UserSessionService {
	cookieOptions := sessions.Options{
		Path:     "/",
		MaxAge:   8 * 3600,
		Secure:   !isDev,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	store.Options(cookieOptions)

	return &UserSessionService{store: store, cookieOptions: cookieOptions}
}

// Middleware attaches session handling.
func (s *UserSessionService) Middleware() gin.HandlerFunc {
	return sessions.Sessions("sid" /* Cookie name */, s.store)
}

// SetUserSession stores the given user ID in the session and persists it.
func (s *UserSessionService) SetUserSession(session sessions.Session, uid string) error {
	session.Set(sessionKeyUserID, uid)

	if err := session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ClearUserSession clears all session data and expires the cookie.
func (s *UserSessionService) ClearUserSession(session sessions.Session) error {
	session.Clear()

	opts := s.cookieOptions
	opts.MaxAge = -1
	session.Options(opts)

	if err := session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetUserID returns the user ID from the given session.
// It reports false if no valid user ID is present.
func (s *UserSessionService) GetUserID(session sessions.Session) (string, bool) {
	uid, ok := session.Get(sessionKeyUserID).(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

// CSRFToken returns the session's CSRF token, creating it with newToken when missing.
func (s *UserSessionService) CSRFToken(session sessions.Session, newToken func() (string, error)) (string, error) {
	if token, _ := session.Get(sessionKeyCSRF).(string); token != "" {
		return token, nil
	}
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("new csrf token: %w", err)
	}
	session.Set(sessionKeyCSRF, token)
	if err := session.Save(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// ExpectedCSRF returns the token stored in the session, if any.
func (s *UserSessionService) ExpectedCSRF(session sessions.Session) string {
	token, _ := session.Get(sessionKeyCSRF).(string)
	return token
}
