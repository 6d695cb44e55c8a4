package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-stationwatch/internal/config"
	"go-stationwatch/internal/transport"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "rider@example.org", "exp": expiry.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthService(t *testing.T, token string) AuthService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{APIBaseURL: server.URL, RequestTimeout: 5 * time.Second}
	client, err := transport.NewClient(cfg, &http.Client{Timeout: 5 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return NewAuthService(client, zap.NewNop())
}

func TestLoginStoresTokenAndExpiry(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	svc := newAuthService(t, token)

	if err := svc.Login(context.Background(), Credentials{Email: "rider@example.org", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if svc.Token() != token {
		t.Errorf("Token() = %q, want the issued token", svc.Token())
	}
	if !svc.Valid() {
		t.Error("Valid() = false for an unexpired token")
	}
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	token := signedToken(t, time.Now().Add(-time.Hour))
	svc := newAuthService(t, token)

	if err := svc.Login(context.Background(), Credentials{Email: "rider@example.org", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if svc.Valid() {
		t.Error("Valid() = true for an expired token")
	}
}

func TestOpaqueTokenIsKeptWithUnknownExpiry(t *testing.T) {
	svc := newAuthService(t, "not-a-jwt")

	if err := svc.Login(context.Background(), Credentials{Email: "rider@example.org", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if svc.Token() != "not-a-jwt" {
		t.Errorf("Token() = %q", svc.Token())
	}
	if !svc.Valid() {
		t.Error("Valid() = false; unknown expiry should not invalidate the token")
	}
}

func TestNoTokenMeansInvalid(t *testing.T) {
	svc := newAuthService(t, "unused")
	if svc.Valid() {
		t.Error("Valid() = true before any login")
	}
}
