package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"mevsearcher/bundle"
	"mevsearcher/mempool"
	"mevsearcher/opportunity"
	"mevsearcher/strategy"
)

func TestAuthenticatorDisabledIsPassthrough(t *testing.T) {
	a := NewAuthenticator(AuthConfig{Enabled: false}, nil)
	called := false
	h := a.Middleware("control")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Fatalf("expected handler to be called when auth is disabled")
	}
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	a := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: "secret"}, nil)
	h := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be reached without a token")
	}))
	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticatorAcceptsValidTokenWithScope(t *testing.T) {
	secret := "top-secret"
	a := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: secret}, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scope": "control",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	called := false
	h := a.Middleware("control")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Fatalf("expected handler to be called for a valid token with the required scope")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthenticatorRejectsMissingScope(t *testing.T) {
	secret := "top-secret"
	a := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: secret}, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scope": "readonly",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(secret))

	h := a.Middleware("control")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be reached without the required scope")
	}))
	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleHealthReportsStrategySnapshot(t *testing.T) {
	mgr := strategy.NewManager()
	mgr.Register(stubDetector{name: "sandwich"})

	s := New(Config{Manager: mgr})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Strategies["sandwich"]; !ok {
		t.Fatalf("expected sandwich strategy in health snapshot, got %+v", resp.Strategies)
	}
}

func TestHandleSetEnabledTogglesStrategy(t *testing.T) {
	mgr := strategy.NewManager()
	mgr.Register(stubDetector{name: "sandwich"})

	s := New(Config{Manager: mgr})
	req := httptest.NewRequest(http.MethodPost, "/strategies/sandwich/disable", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if stats := mgr.Stats()["sandwich"]; stats.Enabled {
		t.Fatalf("expected sandwich to be disabled after POST /strategies/sandwich/disable")
	}
}

type stubDetector struct{ name string }

func (d stubDetector) Name() string { return d.name }

func (d stubDetector) Analyze(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) ([]*opportunity.Opportunity, error) {
	return nil, nil
}

func (d stubDetector) Validate(opp *opportunity.Opportunity) bool { return true }

func (d stubDetector) BuildBundle(ctx context.Context, opp *opportunity.Opportunity, targetBlock uint64) (*bundle.Bundle, error) {
	return nil, nil
}
