package backend

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.CreateAccount(ctx, "ada@example.com", "Secret!23")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if u.ID == "" || u.IDToken == "" {
		t.Errorf("expected id and token, got %+v", u)
	}

	if _, err := m.CreateAccount(ctx, "ADA@example.com", "Secret!23"); CodeOf(err) != CodeEmailInUse {
		t.Errorf("expected email in use, got %v", err)
	}

	signed, err := m.SignIn(ctx, "ada@example.com", "Secret!23")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if signed.ID != u.ID {
		t.Errorf("expected same account id")
	}

	p := Profile{Name: "Ada", Email: "ada@example.com", DateOfBirth: "2000-01-01", CreatedAt: time.Now()}
	if err := m.WriteUserProfile(ctx, signed, p); err != nil {
		t.Fatalf("write profile failed: %v", err)
	}
	if got, ok := m.Profile(u.ID); !ok || got.Name != "Ada" {
		t.Errorf("profile not stored: %+v", got)
	}
}

func TestMemoryErrorCodes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.CreateAccount(ctx, "ada@example.com", "Secret!23"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() error
		code Code
	}{
		{"unknown user", func() error { _, err := m.SignIn(ctx, "bob@example.com", "x"); return err }, CodeUserNotFound},
		{"wrong password", func() error { _, err := m.SignIn(ctx, "ada@example.com", "nope"); return err }, CodeWrongPassword},
		{"bad email", func() error { _, err := m.SignIn(ctx, "not-an-email", "x"); return err }, CodeInvalidEmail},
		{"weak password", func() error { _, err := m.CreateAccount(ctx, "eve@example.com", "abc"); return err }, CodeWeakPassword},
		{"reset unknown", func() error { return m.SendPasswordReset(ctx, "bob@example.com") }, CodeUserNotFound},
		{"stale token", func() error {
			return m.WriteUserProfile(ctx, User{ID: "x", Email: "ada@example.com"}, Profile{})
		}, CodeInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.call()); got != tt.code {
				t.Errorf("expected %s, got %s", tt.code, got)
			}
		})
	}
}

func TestMemoryFailNext(t *testing.T) {
	m := NewMemory()
	m.FailNext(&Error{Code: CodeNetwork})

	if err := m.SendPasswordReset(context.Background(), "a@b.co"); CodeOf(err) != CodeNetwork {
		t.Errorf("expected injected failure, got %v", err)
	}
	if err := m.SendPasswordReset(context.Background(), "a@b.co"); CodeOf(err) != CodeUserNotFound {
		t.Errorf("failure should only apply once, got %v", err)
	}
	if m.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", m.Calls())
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(errors.New("boom")) != CodeUnknown {
		t.Error("foreign errors should be unknown")
	}
	if CodeOf(nil) != CodeUnknown {
		t.Error("nil should be unknown")
	}
}
