package service

import (
	"testing"

	"github.com/panacea/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSettingTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate system settings: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestSystemSettingsDefaults(t *testing.T) {
	gdb, cleanup := setupSettingTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(gdb)

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}

	if settings.AIProvider != AIProviderOpenAI {
		t.Fatalf("unexpected default provider: %s", settings.AIProvider)
	}
	if settings.ChatHistoryLimit != defaultChatHistoryLimit {
		t.Fatalf("unexpected default history limit: %d", settings.ChatHistoryLimit)
	}
	if settings.DefaultTimezone != defaultTimezone {
		t.Fatalf("unexpected default timezone: %s", settings.DefaultTimezone)
	}
}

func TestSystemSettingsUpdateRoundTrip(t *testing.T) {
	gdb, cleanup := setupSettingTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(gdb)

	updated, err := svc.UpdateSettings(SystemSettingsInput{
		AIProvider:       "DeepSeek",
		DeepSeekAPIKey:   "  ds-key  ",
		PlannerPrompt:    "Eres un planificador",
		ChatHistoryLimit: 50,
		DefaultTimezone:  "America/Mexico_City",
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if updated.AIProvider != AIProviderDeepSeek {
		t.Fatalf("expected provider normalized, got %s", updated.AIProvider)
	}
	if updated.DeepSeekAPIKey != "ds-key" {
		t.Fatalf("expected key trimmed, got %q", updated.DeepSeekAPIKey)
	}

	reloaded, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if reloaded.DefaultTimezone != "America/Mexico_City" {
		t.Fatalf("unexpected timezone: %s", reloaded.DefaultTimezone)
	}
	if reloaded.ChatHistoryLimit != 50 {
		t.Fatalf("unexpected history limit: %d", reloaded.ChatHistoryLimit)
	}
	if reloaded.PlannerPrompt != "Eres un planificador" {
		t.Fatalf("unexpected planner prompt: %q", reloaded.PlannerPrompt)
	}
}

func TestSystemSettingsInvalidInputFallsBack(t *testing.T) {
	gdb, cleanup := setupSettingTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(gdb)

	updated, err := svc.UpdateSettings(SystemSettingsInput{
		AIProvider:       "gemini",
		ChatHistoryLimit: -10,
		DefaultTimezone:  "   ",
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if updated.AIProvider != AIProviderOpenAI {
		t.Fatalf("expected provider fallback, got %s", updated.AIProvider)
	}
	if updated.ChatHistoryLimit != defaultChatHistoryLimit {
		t.Fatalf("expected history limit fallback, got %d", updated.ChatHistoryLimit)
	}
	if updated.DefaultTimezone != defaultTimezone {
		t.Fatalf("expected timezone fallback, got %s", updated.DefaultTimezone)
	}
}
