package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type oracleRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// jsonOracle 抽象文本补全后端：给一段提示词，期望拿到一个 JSON 对象。
// 业务层依赖该接口注入，测试时可以用桩实现替换真实 HTTP 调用。
type jsonOracle interface {
	GenerateJSON(ctx context.Context, kind, prompt string) oracleJSON
}

// oracleClient 通过 OpenAI 兼容接口访问文本补全模型。
// 平台选择与 API Key 由系统设置驱动，支持 OpenAI / DeepSeek 切换。
type oracleClient struct {
	settings             *SystemSettingService
	http                 httpDoer
	openAIBaseURL        string
	deepSeekBaseURL      string
	defaultOpenAIModel   string
	defaultDeepSeekModel string
}

const (
	defaultOpenAIOracleModel   = "gpt-4o-mini"
	defaultDeepSeekOracleModel = "deepseek-chat"
	defaultOracleTemperature   = 0.2
	defaultOracleMaxTokens     = 1200
)

func newOracleClient(settings *SystemSettingService) *oracleClient {
	return &oracleClient{
		settings:             settings,
		http:                 &http.Client{Timeout: 60 * time.Second},
		openAIBaseURL:        "https://api.openai.com/v1",
		deepSeekBaseURL:      "https://api.deepseek.com/v1",
		defaultOpenAIModel:   defaultOpenAIOracleModel,
		defaultDeepSeekModel: defaultDeepSeekOracleModel,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (c *oracleClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	c.http = client
}

// SetOpenAIBaseURL 覆盖默认的 OpenAI API 地址。
func (c *oracleClient) SetOpenAIBaseURL(base string) {
	c.openAIBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// SetDeepSeekBaseURL 覆盖默认的 DeepSeek API 地址。
func (c *oracleClient) SetDeepSeekBaseURL(base string) {
	c.deepSeekBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// GenerateJSON 请求模型输出 JSON，并把原始文本交给 decodeOracleJSON 归一化。
// 调用失败不抛给上层业务语义，统一折叠成 oracleJSON 的错误分支。
func (c *oracleClient) GenerateJSON(ctx context.Context, kind, prompt string) oracleJSON {
	logOracleExchange(kind, "prompt", prompt)

	content, err := c.complete(ctx, oracleRequest{
		SystemPrompt: "Responde únicamente con un objeto JSON válido, sin texto adicional.",
		UserPrompt:   prompt,
		MaxTokens:    defaultOracleMaxTokens,
		Temperature:  defaultOracleTemperature,
	})
	if err != nil {
		logOracleExchange(kind, "error", err.Error())
		return oracleError(err)
	}

	logOracleExchange(kind, "response", content)
	return decodeOracleJSON(content)
}

func (c *oracleClient) complete(ctx context.Context, req oracleRequest) (string, error) {
	settings, err := c.settings.GetSettings()
	if err != nil {
		return "", fmt.Errorf("读取系统设置失败: %w", err)
	}

	var (
		apiKey string
		base   string
		model  string
		label  string
	)

	switch settings.AIProvider {
	case AIProviderDeepSeek:
		apiKey = strings.TrimSpace(settings.DeepSeekAPIKey)
		base = c.deepSeekBaseURL
		model = c.defaultDeepSeekModel
		label = "DeepSeek"
	default:
		apiKey = strings.TrimSpace(settings.OpenAIAPIKey)
		base = c.openAIBaseURL
		model = c.defaultOpenAIModel
		label = "OpenAI"
	}

	if apiKey == "" {
		return "", ErrAIAPIKeyMissing
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	payload := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(req.SystemPrompt)},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}

	endpoint := strings.TrimRight(base, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建 %s 请求失败: %w", label, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "panacea-ai/1.0")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("请求 %s 接口失败: %w", label, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("读取 %s 响应失败: %w", label, err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("解析 %s 响应失败: %w", label, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(completion.Error.Message)
		if errMsg == "" {
			errMsg = strings.TrimSpace(string(respBody))
		}
		if errMsg == "" {
			errMsg = resp.Status
		}
		return "", fmt.Errorf("%s 接口返回错误：%s", label, errMsg)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s 接口未返回结果", label)
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
