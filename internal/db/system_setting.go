package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeyAIProvider 表示当前使用的 AI 平台。
	SettingKeyAIProvider = "ai_provider"
	// SettingKeyOpenAIAPIKey 表示 OpenAI API Key。
	SettingKeyOpenAIAPIKey = "openai_api_key"
	// SettingKeyDeepSeekAPIKey 表示 DeepSeek API Key。
	SettingKeyDeepSeekAPIKey = "deepseek_api_key"
	// SettingKeyPlannerPrompt 表示计划生成的系统提示词覆盖。
	SettingKeyPlannerPrompt = "planner_prompt"
	// SettingKeyChatHistoryLimit 表示对话历史默认条数。
	SettingKeyChatHistoryLimit = "chat_history_limit"
	// SettingKeyDefaultTimezone 表示调度查询的默认时区。
	SettingKeyDefaultTimezone = "default_timezone"
)
