package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewService("test-secret")
	s.RegisterAPICredentials("key", "secret")

	resp, err := s.GenerateToken(Credentials{APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	if until := time.Until(resp.Expiration); until < 23*time.Hour {
		t.Errorf("expiration %v from now, want about 24h", until)
	}

	claims, err := s.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ClientID != "key" {
		t.Errorf("ClientID = %q, want key", claims.ClientID)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "trade" {
		t.Errorf("Permissions = %v, want [trade]", claims.Permissions)
	}
}

func TestGenerateTokenRejectsBadCredentials(t *testing.T) {
	s := NewService("test-secret")
	s.RegisterAPICredentials("key", "secret")

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"unknown key", Credentials{APIKey: "other", APISecret: "secret"}},
		{"wrong secret", Credentials{APIKey: "key", APISecret: "wrong"}},
		{"empty", Credentials{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.GenerateToken(tt.creds); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer := NewService("one-secret")
	issuer.RegisterAPICredentials("key", "secret")
	resp, err := issuer.GenerateToken(Credentials{APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	verifier := NewService("another-secret")
	if _, err := verifier.ValidateToken(resp.Token); err == nil {
		t.Error("token signed with a different secret must not validate")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := NewService("test-secret")
	if _, err := s.ValidateToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}
