package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ChatRole 区分消息来自用户还是助手。
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// Effect 描述一次编排动作对客户端产生的声明式副作用。
// Payload 为任意结构化数据，由前端按 Type 解释。
type Effect struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// EffectList 以 JSON 文本列的形式持久化副作用序列，顺序即消费顺序。
type EffectList []Effect

// Value 实现 driver.Valuer。
func (l EffectList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal effect list: %w", err)
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner。
func (l *EffectList) Scan(value interface{}) error {
	return scanJSONColumn(value, l)
}

// ChatMessage 定义了对话日志
// 只追加不修改；GoalID/PlanID 可空，助手消息可携带 Effects
type ChatMessage struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"index;size:36;not null" json:"userId"`
	Role      ChatRole   `gorm:"size:16;not null" json:"role"`
	Text      string     `gorm:"type:text" json:"text"`
	GoalID    *string    `gorm:"size:36" json:"goalId,omitempty"`
	PlanID    *string    `gorm:"size:36" json:"planId,omitempty"`
	Effects   EffectList `gorm:"type:text" json:"effects,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
