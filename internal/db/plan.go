package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList 以 JSON 文本列的形式持久化字符串数组。
type StringList []string

// Value 实现 driver.Valuer。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner。
func (l *StringList) Scan(value interface{}) error {
	return scanJSONColumn(value, l)
}

// ScheduleEntry 表示周计划中的一条安排。
type ScheduleEntry struct {
	Day    string `json:"day"`
	Action string `json:"action"`
}

// ScheduleEntries 以 JSON 文本列的形式持久化周计划。
type ScheduleEntries []ScheduleEntry

// Value 实现 driver.Valuer。
func (e ScheduleEntries) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule entries: %w", err)
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner。
func (e *ScheduleEntries) Scan(value interface{}) error {
	return scanJSONColumn(value, e)
}

func scanJSONColumn(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// Plan 定义了某个目标的周计划
// 约定 ID 与 GoalID 相同（计划与目标 1:1），重复生成走 merge 更新而非新增
// UserID 冗余保存，便于直接校验归属
type Plan struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	UserID         string          `gorm:"index;size:36;not null" json:"userId"`
	GoalID         string          `gorm:"uniqueIndex;size:36;not null" json:"goalId"`
	Summary        string          `gorm:"type:text" json:"summary"`
	Recommendation StringList      `gorm:"column:recommendations;type:text" json:"recommendations"`
	WeeklySchedule ScheduleEntries `gorm:"type:text" json:"weeklySchedule"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
