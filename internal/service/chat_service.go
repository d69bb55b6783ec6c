package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panacea/internal/db"
	"gorm.io/gorm"
)

// ChatService 是对话入口：落用户消息、分类、编排、落助手消息。
// 对话日志只追加不修改。
type ChatService struct {
	db         *gorm.DB
	classifier *ClassifierService
	orch       *OrchestratorService
	settings   *SystemSettingService
}

// NewChatService 构造 ChatService
func NewChatService(gdb *gorm.DB, classifier *ClassifierService, orch *OrchestratorService, settings *SystemSettingService) *ChatService {
	return &ChatService{db: gdb, classifier: classifier, orch: orch, settings: settings}
}

// Process 处理一条用户消息并返回持久化后的助手回复。
// 模型故障在分类与生成环节已被兜底吸收；这里只会冒出
// 存在性与归属错误。
func (s *ChatService) Process(ctx context.Context, text, userID, goalID string) (*db.ChatMessage, error) {
	userMsg := db.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      db.ChatRoleUser,
		Text:      text,
		GoalID:    optionalID(goalID),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&userMsg).Error; err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	cls := s.classifier.Classify(ctx, text, goalID)

	tz := defaultTimezone
	if settings, err := s.settings.GetSettings(); err == nil {
		tz = settings.DefaultTimezone
	}

	result, err := s.orch.Execute(ctx, userID, cls, tz)
	if err != nil {
		return nil, err
	}

	assistantGoalID := result.GoalID
	if assistantGoalID == "" {
		assistantGoalID = goalID
	}

	assistantMsg := db.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      db.ChatRoleAssistant,
		Text:      result.Text,
		GoalID:    optionalID(assistantGoalID),
		PlanID:    optionalID(result.PlanID),
		Effects:   result.Effects,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&assistantMsg).Error; err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	return &assistantMsg, nil
}

// AppendAssistant 直接追加一条助手消息，供系统侧（提醒摘要等）使用。
func (s *ChatService) AppendAssistant(userID, text string, goalID, planID string, effects []db.Effect) (*db.ChatMessage, error) {
	msg := db.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      db.ChatRoleAssistant,
		Text:      text,
		GoalID:    optionalID(goalID),
		PlanID:    optionalID(planID),
		Effects:   effects,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	return &msg, nil
}

// History 返回用户的对话历史，按时间正序，最多 limit 条（取最近的一段）。
// limit <= 0 时使用系统设置的默认条数。
func (s *ChatService) History(userID, goalID string, limit int) ([]db.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultChatHistoryLimit
		if settings, err := s.settings.GetSettings(); err == nil {
			limit = settings.ChatHistoryLimit
		}
	}

	query := s.db.Where("user_id = ?", userID)
	if goalID != "" {
		query = query.Where("goal_id = ?", goalID)
	}

	var messages []db.ChatMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}

	// 查询取最近 N 条（倒序），展示按时间正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
