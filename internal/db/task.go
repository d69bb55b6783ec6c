package db

import "time"

// TaskStatus 表示任务的执行状态。
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusSkipped    TaskStatus = "skipped"
)

// Task 定义了计划下的单条可执行任务
// DueAt 以 ISO-8601 字符串存储（来源可能是模型输出），读取时解析失败要有兜底
// ScoreWeight 取值 1..5，PostponedCount 记录顺延次数用于审计
type Task struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"index;size:36;not null" json:"userId"`
	PlanID         string     `gorm:"index;size:36;not null" json:"planId"`
	Title          string     `gorm:"not null" json:"title"`
	DueAt          string     `gorm:"size:64" json:"dueAt"`
	Status         TaskStatus `gorm:"size:16;default:'pending';not null" json:"status"`
	ScoreWeight    int        `gorm:"default:1" json:"scoreWeight"`
	PostponedCount int        `gorm:"default:0" json:"postponedCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
