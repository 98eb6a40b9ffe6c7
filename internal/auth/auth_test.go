package auth

import (
	"testing"

	"canvango_backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", 60)

	token, err := manager.Generate("user-1", models.UserRoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.Role != models.UserRoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, models.UserRoleAdmin)
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	manager := NewTokenManager("test-secret", 60)
	token, err := manager.Generate("user-1", models.UserRoleMember)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"truncated", token[:len(token)-10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Parse(tt.token); err == nil {
				t.Error("expected parse error")
			}
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", 60)
		if _, err := other.Parse(token); err == nil {
			t.Error("a token signed with another secret must not parse")
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("test-secret", -1)
		tok, err := expired.Generate("user-1", models.UserRoleMember)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if _, err := expired.Parse(tok); err == nil {
			t.Error("expired token must not parse")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPasswordHash("correct horse battery", hash) {
		t.Error("correct password must verify")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Error("wrong password must not verify")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("passwords under 8 characters must be rejected")
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Errorf("ValidatePassword: %v", err)
	}
}
