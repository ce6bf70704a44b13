package identity

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ada", LastName: "Obi", Email: "Ada@Example.com",
		Phone: "+2348000000000", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email must be normalized, got %q", user.Email)
	}
	if user.Role != RoleUser || !user.IsActive || user.WalletBalance != 0 {
		t.Fatalf("unexpected defaults: %+v", user)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("authenticated wrong user")
	}

	if _, err := svc.Authenticate(ctx, Credentials{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	input := RegisterInput{
		FirstName: "Ada", LastName: "Obi", Email: "ada@example.com",
		Phone: "+2348000000000", Password: "secret1",
	}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestRegisterShortPasswordRejected(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	if _, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "Obi", Email: "ada@example.com",
		Phone: "+2348000000000", Password: "short",
	}); err == nil {
		t.Fatalf("expected short password rejection")
	}
}

func TestDeactivatedAccountCannotAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ada", LastName: "Obi", Email: "ada@example.com",
		Phone: "+2348000000000", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	toggled, err := svc.ToggleActive(ctx, user.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected deactivated account")
	}

	if _, err := svc.Authenticate(ctx, Credentials{Email: "ada@example.com", Password: "secret1"}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}

	if reactivated, err := svc.ToggleActive(ctx, user.ID); err != nil || !reactivated.IsActive {
		t.Fatalf("expected reactivation, got %+v err=%v", reactivated, err)
	}
}
