package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/pkg/token/tokentest"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager("secret")

	raw, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected id user-1, got %q", claims.UserID)
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != SessionTTL {
		t.Fatalf("expected lifetime %s, got %s", SessionTTL, lifetime)
	}
}

func TestManager_Verify_Expired(t *testing.T) {
	m := NewManager("secret")
	past := time.Now().Add(-48 * time.Hour)
	m.now = func() time.Time { return past }

	raw, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now
	if _, err := m.Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManager_Verify_Rejects(t *testing.T) {
	m := NewManager("secret")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	otherSecret, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("other"))

	noID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("secret"))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("secret"))

	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("secret"))

	valid, _ := m.Issue("user-1")
	tampered := tokentest.Tamper(valid)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"other secret": otherSecret,
		"missing id":   noID,
		"missing exp":  noExp,
		"wrong alg":    wrongAlg,
		"tampered":     tampered,
	}
	for name, raw := range cases {
		if _, err := m.Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestManager_Issue_EmptyID(t *testing.T) {
	if _, err := NewManager("secret").Issue(""); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
