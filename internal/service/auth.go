package service

import (
	"crypto/subtle"

	"github.com/edirooss/witness-console/internal/config"
	"github.com/edirooss/witness-console/internal/principal"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates the dashboard operator.
type AuthService struct {
	log          *zap.Logger
	UserSession  *UserSessionService
	username     string
	passwordHash []byte
}

// NewAuthService creates a new AuthService for the configured operator account.
func NewAuthService(log *zap.Logger, op config.OperatorConfig, usersesssvc *UserSessionService) *AuthService {
	return &AuthService{
		log:          log.Named("auth"),
		UserSession:  usersesssvc,
		username:     op.Username,
		passwordHash: []byte(op.PasswordHash),
	}
}

// AuthenticateWithPassword authenticates using username and password.
// On success, it sets and returns the Principal.
func (s *AuthService) AuthenticateWithPassword(c *gin.Context, username, password string) (*principal.Principal, bool) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// Always run bcrypt so timing does not reveal whether the username matched.
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.log.Info("login rejected", zap.String("username", username), zap.String("client_ip", c.ClientIP()))
		return nil, false
	}

	p := &principal.Principal{ID: s.username, PrincipalType: principal.Operator, CredentialType: principal.Login}
	s.setPrincipal(c, p)
	return p, true
}

// AuthenticateWithSession reads session from context and authenticates user ID.
func (s *AuthService) AuthenticateWithSession(c *gin.Context) (*principal.Principal, bool) {
	uid, ok := s.UserSession.GetUserID(sessions.Default(c))
	if !ok || uid != s.username {
		return nil, false
	}

	p := &principal.Principal{ID: uid, PrincipalType: principal.Operator, CredentialType: principal.Session}
	s.setPrincipal(c, p)
	return p, true
}

// WhoAmI returns the authenticated Principal from the Gin context.
// Returns nil if no principal is set.
func (s *AuthService) WhoAmI(c *gin.Context) *principal.Principal {
	return principal.GetPrincipal(c)
}

// setPrincipal attaches the Principal to the Gin context (private).
func (s *AuthService) setPrincipal(c *gin.Context, p *principal.Principal) {
	principal.SetPrincipal(c, p)
}
