package service

import (
	"errors"
	"testing"

	"github.com/panacea/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)

	user, err := svc.Register("Ana@Example.com", "secreto123", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if user.Email != "ana@example.com" {
		t.Fatalf("expected lowercased email, got %s", user.Email)
	}
	if user.Name != "ana" {
		t.Fatalf("expected name derived from email, got %s", user.Name)
	}
	if user.PasswordHash == "secreto123" {
		t.Fatal("password must not be stored in plain text")
	}

	authed, err := svc.Authenticate("ana@example.com", "secreto123")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("unexpected user: %s", authed.ID)
	}

	if _, err := svc.Authenticate("ana@example.com", "incorrecta"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate("nadie@example.com", "secreto123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserServiceRegisterDuplicateEmail(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)

	if _, err := svc.Register("ana@example.com", "secreto123", "Ana"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := svc.Register("ANA@example.com", "otra", "Ana"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceListIDs(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := svc.Register(email, "secreto123", ""); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
	}

	ids, err := svc.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs returned error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
}
