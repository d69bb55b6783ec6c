package service

import (
	"errors"
	"testing"

	"github.com/panacea/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGoalTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Goal{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestGoalServiceCreateDefaults(t *testing.T) {
	gdb, cleanup := setupGoalTestDB(t)
	defer cleanup()

	svc := NewGoalService(gdb)

	goal, err := svc.Create("user-1", GoalInput{Domain: db.DomainSleep})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if goal.ID == "" {
		t.Fatal("expected goal to have ID")
	}
	if goal.Title != "Objetivo de bienestar" {
		t.Fatalf("unexpected default title: %s", goal.Title)
	}
	if goal.Status != db.GoalStatusActive {
		t.Fatalf("unexpected status: %s", goal.Status)
	}
}

func TestGoalServiceCreateRejectsUnknownDomain(t *testing.T) {
	gdb, cleanup := setupGoalTestDB(t)
	defer cleanup()

	svc := NewGoalService(gdb)

	if _, err := svc.Create("user-1", GoalInput{Domain: "astrology"}); !errors.Is(err, ErrInvalidDomain) {
		t.Fatalf("expected ErrInvalidDomain, got %v", err)
	}
}

func TestGoalServiceOwnership(t *testing.T) {
	gdb, cleanup := setupGoalTestDB(t)
	defer cleanup()

	svc := NewGoalService(gdb)

	goal, err := svc.Create("owner", GoalInput{Title: "Dormir mejor", Domain: db.DomainSleep})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.FindByIDForUser(goal.ID, "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.FindByIDForUser("missing", "owner"); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
}

func TestGoalServiceListExcludesDeleted(t *testing.T) {
	gdb, cleanup := setupGoalTestDB(t)
	defer cleanup()

	svc := NewGoalService(gdb)

	kept, err := svc.Create("user-1", GoalInput{Title: "Dormir mejor", Domain: db.DomainSleep})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	dropped, err := svc.Create("user-1", GoalInput{Title: "Comer mejor", Domain: db.DomainNutrition})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.SoftDelete(dropped.ID, "user-1"); err != nil {
		t.Fatalf("SoftDelete returned error: %v", err)
	}

	goals, err := svc.ListByUser("user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals))
	}
	if goals[0].ID != kept.ID {
		t.Fatalf("unexpected goal in list: %s", goals[0].ID)
	}

	// 软删除后仍可按 ID 读到
	audited, err := svc.FindByIDForUser(dropped.ID, "user-1")
	if err != nil {
		t.Fatalf("FindByIDForUser returned error: %v", err)
	}
	if audited.Status != db.GoalStatusDeleted {
		t.Fatalf("expected deleted status, got %s", audited.Status)
	}
}

func TestGoalServiceSoftDeleteIdempotent(t *testing.T) {
	gdb, cleanup := setupGoalTestDB(t)
	defer cleanup()

	svc := NewGoalService(gdb)

	goal, err := svc.Create("user-1", GoalInput{Title: "Dormir mejor", Domain: db.DomainSleep})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.SoftDelete(goal.ID, "user-1"); err != nil {
		t.Fatalf("first SoftDelete returned error: %v", err)
	}
	if err := svc.SoftDelete(goal.ID, "user-1"); err != nil {
		t.Fatalf("second SoftDelete should be a no-op, got %v", err)
	}
	if err := svc.SoftDelete("missing", "user-1"); err != nil {
		t.Fatalf("SoftDelete on missing goal should be a no-op, got %v", err)
	}

	// 他人的目标不能删
	other, err := svc.Create("owner-2", GoalInput{Title: "Moverme más", Domain: db.DomainFitness})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.SoftDelete(other.ID, "user-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGoalServiceUpdateStatus(t *testing.T) {
	gdb, cleanup := setupGoalTestDB(t)
	defer cleanup()

	svc := NewGoalService(gdb)

	goal, err := svc.Create("user-1", GoalInput{Title: "Dormir mejor", Domain: db.DomainSleep})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.UpdateStatus(goal.ID, "user-1", db.GoalStatusPaused); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	reloaded, err := svc.FindByIDForUser(goal.ID, "user-1")
	if err != nil {
		t.Fatalf("FindByIDForUser returned error: %v", err)
	}
	if reloaded.Status != db.GoalStatusPaused {
		t.Fatalf("expected paused, got %s", reloaded.Status)
	}

	// deleted 只能走软删除入口
	if _, err := svc.UpdateStatus(goal.ID, "user-1", db.GoalStatusDeleted); err == nil {
		t.Fatal("expected error for deleted via UpdateStatus")
	}
}
