package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/identity"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	user := identity.User{ID: uuid.NewString(), Role: identity.RoleAdmin}

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token.ExpiresIn != 3600 {
		t.Fatalf("expected 3600s expiry, got %d", token.ExpiresIn)
	}

	claims, err := svc.Verify(token.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != user.ID || claims.Role != identity.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	token, err := issuer.Issue(identity.User{ID: uuid.NewString(), Role: identity.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token.AccessToken); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.Issue(identity.User{ID: uuid.NewString(), Role: identity.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token.AccessToken); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}
