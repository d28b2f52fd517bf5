package services

import (
	"context"
	"errors"
	"testing"

	"github.com/canchalibre/booking-system/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	service := NewAuthService(newFakeUserRepo())

	user, err := service.Register(context.Background(), RegisterInput{
		FirstName: " Diego ",
		LastName:  "Ramos",
		Email:     " Diego@Example.COM ",
		Password:  "correct horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "diego@example.com" || user.FirstName != "Diego" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Role != models.RolePlayer {
		t.Fatalf("Role = %s, want player", user.Role)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked in response")
	}

	logged, err := service.Login(context.Background(), LoginInput{
		Email:    "diego@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.Email != "diego@example.com" {
		t.Fatalf("unexpected user after login: %+v", logged)
	}
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	t.Parallel()

	service := NewAuthService(newFakeUserRepo())

	_, err := service.Register(context.Background(), RegisterInput{
		FirstName: "Diego",
		Email:     "diego@example.com",
		Password:  "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("Register error = %v, want ErrPasswordTooShort", err)
	}
}

func TestAuthService_Register_EmailConflict(t *testing.T) {
	t.Parallel()

	userRepo := newFakeUserRepo(&models.User{ID: 1, Email: "diego@example.com"})
	service := NewAuthService(userRepo)

	_, err := service.Register(context.Background(), RegisterInput{
		FirstName: "Diego",
		Email:     "diego@example.com",
		Password:  "correct horse",
	})
	if !errors.Is(err, ErrUserEmailConflict) {
		t.Fatalf("Register error = %v, want ErrUserEmailConflict", err)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()

	service := NewAuthService(newFakeUserRepo())

	if _, err := service.Register(context.Background(), RegisterInput{
		FirstName: "Diego",
		Email:     "diego@example.com",
		Password:  "correct horse",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := service.Login(context.Background(), LoginInput{Email: "diego@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := service.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
}
