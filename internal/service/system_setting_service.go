package service

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/panacea/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// AIProviderOpenAI 表示使用 OpenAI 能力。
	AIProviderOpenAI = "openai"
	// AIProviderDeepSeek 表示使用 DeepSeek 能力。
	AIProviderDeepSeek = "deepseek"
)

const (
	defaultChatHistoryLimit = 30
	defaultTimezone         = "America/Bogota"
)

// ErrAIAPIKeyMissing 表示未提供必需的 AI 平台 API Key。
var ErrAIAPIKeyMissing = errors.New("api key is required")

// SystemSettings 描述后台可配置的系统信息。
type SystemSettings struct {
	AIProvider       string
	OpenAIAPIKey     string
	DeepSeekAPIKey   string
	PlannerPrompt    string
	ChatHistoryLimit int
	DefaultTimezone  string
}

// SystemSettingsInput 用于更新系统设置。
type SystemSettingsInput struct {
	AIProvider       string
	OpenAIAPIKey     string
	DeepSeekAPIKey   string
	PlannerPrompt    string
	ChatHistoryLimit int
	DefaultTimezone  string
}

// SystemSettingService 提供系统设置的读取与更新能力。
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var settingKeys = []string{
	db.SettingKeyAIProvider,
	db.SettingKeyOpenAIAPIKey,
	db.SettingKeyDeepSeekAPIKey,
	db.SettingKeyPlannerPrompt,
	db.SettingKeyChatHistoryLimit,
	db.SettingKeyDefaultTimezone,
}

// GetSettings 读取系统设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{
		AIProvider:       AIProviderOpenAI,
		ChatHistoryLimit: defaultChatHistoryLimit,
		DefaultTimezone:  defaultTimezone,
	}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyAIProvider:
			if provider := normalizeAIProvider(record.Value); provider != "" {
				result.AIProvider = provider
			}
		case db.SettingKeyOpenAIAPIKey:
			result.OpenAIAPIKey = record.Value
		case db.SettingKeyDeepSeekAPIKey:
			result.DeepSeekAPIKey = record.Value
		case db.SettingKeyPlannerPrompt:
			result.PlannerPrompt = record.Value
		case db.SettingKeyChatHistoryLimit:
			if limit, err := strconv.Atoi(strings.TrimSpace(record.Value)); err == nil && limit > 0 {
				result.ChatHistoryLimit = limit
			}
		case db.SettingKeyDefaultTimezone:
			if tz := strings.TrimSpace(record.Value); tz != "" {
				result.DefaultTimezone = tz
			}
		}
	}

	return result, nil
}

// UpdateSettings 保存系统设置，非法或缺失项回退默认值。
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	provider := normalizeAIProvider(input.AIProvider)
	if provider == "" {
		provider = AIProviderOpenAI
	}

	limit := input.ChatHistoryLimit
	if limit <= 0 {
		limit = defaultChatHistoryLimit
	}

	tz := strings.TrimSpace(input.DefaultTimezone)
	if tz == "" {
		tz = defaultTimezone
	}

	sanitized := SystemSettings{
		AIProvider:       provider,
		OpenAIAPIKey:     strings.TrimSpace(input.OpenAIAPIKey),
		DeepSeekAPIKey:   strings.TrimSpace(input.DeepSeekAPIKey),
		PlannerPrompt:    strings.TrimSpace(input.PlannerPrompt),
		ChatHistoryLimit: limit,
		DefaultTimezone:  tz,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pairs := map[string]string{
			db.SettingKeyAIProvider:       sanitized.AIProvider,
			db.SettingKeyOpenAIAPIKey:     sanitized.OpenAIAPIKey,
			db.SettingKeyDeepSeekAPIKey:   sanitized.DeepSeekAPIKey,
			db.SettingKeyPlannerPrompt:    sanitized.PlannerPrompt,
			db.SettingKeyChatHistoryLimit: strconv.Itoa(sanitized.ChatHistoryLimit),
			db.SettingKeyDefaultTimezone:  sanitized.DefaultTimezone,
		}
		for key, value := range pairs {
			if err := upsertSetting(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	record := db.SystemSetting{Key: key, Value: value}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
}

func normalizeAIProvider(provider string) string {
	switch strings.TrimSpace(strings.ToLower(provider)) {
	case AIProviderOpenAI:
		return AIProviderOpenAI
	case AIProviderDeepSeek:
		return AIProviderDeepSeek
	default:
		return ""
	}
}
