package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

var admin = &model.User{ID: 1, Username: "admin", Role: model.RoleAdmin}

func TestIssueAndValidate(t *testing.T) {
	iss := NewIssuer("test-secret-key", time.Hour)

	token, issued, err := iss.Issue(admin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := iss.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username 'admin', got %q", claims.Username)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
	if claims.ID != issued.ID || claims.ID == "" {
		t.Errorf("expected JTI %q, got %q", issued.ID, claims.ID)
	}
}

func TestUniqueJTI(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	_, a, _ := iss.Issue(admin)
	_, b, _ := iss.Issue(admin)
	if a.ID == b.ID {
		t.Error("expected distinct token ids")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, _, _ := NewIssuer("secret1", time.Hour).Issue(admin)

	if _, err := NewIssuer("secret2", time.Hour).Validate(token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateInvalid(t *testing.T) {
	if _, err := NewIssuer("secret", time.Hour).Validate("not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateExpired(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	iss.now = func() time.Time { return issuedAt }
	token, _, err := iss.Issue(admin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Validate(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestExpiry(t *testing.T) {
	iss := NewIssuer("test", 0)
	if iss.Expiry() != DefaultTokenExpiry {
		t.Fatalf("expected default expiry, got %v", iss.Expiry())
	}

	token, _, _ := iss.Issue(admin)
	claims, err := iss.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	diff := time.Now().Add(DefaultTokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"Bearer   ", "", false},
		{"Basic Zm9v", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := BearerToken(r)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("BearerToken(%q) = %q, %v", tt.header, got, err)
		}
	}
}
