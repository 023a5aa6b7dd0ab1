package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/romes311/tourismiq/pkg/apperror"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	svc := NewAuthService(users, nil, testSecret, time.Hour)

	user, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22", nil)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.PasswordHash == "hunter22" {
		t.Error("password stored in plain text")
	}

	token, got, err := svc.Login(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("logged-in user = %v, want %v", got.ID, user.ID)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("token subject = %q, want %q", claims.Subject, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newFakeUserRepo(), nil, testSecret, time.Hour)

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "pw", nil); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "other", "alice@example.com", "pw", nil); !errors.Is(err, apperror.ErrAlreadyExists) {
		t.Errorf("duplicate register error = %v, want ErrAlreadyExists", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newFakeUserRepo(), nil, testSecret, time.Hour)

	if _, _, err := svc.Login(ctx, "nobody@example.com", "pw"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("unknown email error = %v, want ErrUnauthorized", err)
	}

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "right", nil); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", err)
	}
}
