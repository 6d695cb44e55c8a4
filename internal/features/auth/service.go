package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-stationwatch/internal/transport"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type session struct {
	Token string `json:"token"`
}

// AuthService drives the credential endpoints and holds the bearer token for
// the transport. The client has no verification key, so the token is parsed
// unverified purely to learn its expiry; no authorization is enforced here.
type AuthService interface {
	Login(ctx context.Context, creds Credentials) error
	Register(ctx context.Context, creds Credentials) error
	Token() string
	Valid() bool
}

type AuthServiceImpl struct {
	Client *transport.Client
	Log    *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewAuthService(client *transport.Client, log *zap.Logger) AuthService {
	return &AuthServiceImpl{Client: client, Log: log}
}

func (s *AuthServiceImpl) Login(ctx context.Context, creds Credentials) error {
	var resp session
	if err := s.Client.PostJSON(ctx, "/auth/login", creds, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return fmt.Errorf("login response carried no token")
	}
	s.setToken(resp.Token)
	return nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, creds Credentials) error {
	var resp session
	if err := s.Client.PostJSON(ctx, "/auth/register", creds, &resp); err != nil {
		return err
	}
	if resp.Token != "" {
		s.setToken(resp.Token)
	}
	return nil
}

// Token implements transport.TokenProvider.
func (s *AuthServiceImpl) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Valid reports whether a token is held and, when its expiry is known, still
// current.
func (s *AuthServiceImpl) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return false
	}
	return s.expiry.IsZero() || time.Now().Before(s.expiry)
}

func (s *AuthServiceImpl) setToken(token string) {
	expiry := time.Time{}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiry = exp.Time
		}
	} else {
		s.Log.Debug("token is not a parseable JWT, expiry unknown", zap.Error(err))
	}

	s.mu.Lock()
	s.token = token
	s.expiry = expiry
	s.mu.Unlock()
}
