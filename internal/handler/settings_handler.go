package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/service"
)

type settingsRequest struct {
	AIProvider       string `json:"aiProvider"`
	OpenAIAPIKey     string `json:"openaiApiKey"`
	DeepSeekAPIKey   string `json:"deepseekApiKey"`
	PlannerPrompt    string `json:"plannerPrompt"`
	ChatHistoryLimit int    `json:"chatHistoryLimit"`
	DefaultTimezone  string `json:"defaultTimezone"`
}

type settingsView struct {
	AIProvider       string `json:"aiProvider"`
	OpenAIKeySet     bool   `json:"openaiKeySet"`
	DeepSeekKeySet   bool   `json:"deepseekKeySet"`
	PlannerPrompt    string `json:"plannerPrompt"`
	ChatHistoryLimit int    `json:"chatHistoryLimit"`
	DefaultTimezone  string `json:"defaultTimezone"`
}

// GetSettings 返回系统设置；API Key 只回报是否已配置，不回显明文
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, toSettingsView(settings))
}

// UpdateSettings 更新系统设置
func (a *API) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if !bindJSON(c, &req, "invalid settings payload") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput{
		AIProvider:       req.AIProvider,
		OpenAIAPIKey:     req.OpenAIAPIKey,
		DeepSeekAPIKey:   req.DeepSeekAPIKey,
		PlannerPrompt:    req.PlannerPrompt,
		ChatHistoryLimit: req.ChatHistoryLimit,
		DefaultTimezone:  req.DefaultTimezone,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update settings")
		return
	}
	c.JSON(http.StatusOK, toSettingsView(settings))
}

func toSettingsView(settings service.SystemSettings) settingsView {
	return settingsView{
		AIProvider:       settings.AIProvider,
		OpenAIKeySet:     settings.OpenAIAPIKey != "",
		DeepSeekKeySet:   settings.DeepSeekAPIKey != "",
		PlannerPrompt:    settings.PlannerPrompt,
		ChatHistoryLimit: settings.ChatHistoryLimit,
		DefaultTimezone:  settings.DefaultTimezone,
	}
}
