package db

import "time"

// GoalDomain 表示健康目标所属的领域。
type GoalDomain string

const (
	DomainSleep       GoalDomain = "sleep"
	DomainStress      GoalDomain = "stress"
	DomainWeight      GoalDomain = "weight"
	DomainNutrition   GoalDomain = "nutrition"
	DomainFitness     GoalDomain = "fitness"
	DomainHydration   GoalDomain = "hydration"
	DomainMindfulness GoalDomain = "mindfulness"
	DomainEnergy      GoalDomain = "energy"
)

// GoalDomains 列出全部受支持的领域，供校验与提示词使用。
var GoalDomains = []GoalDomain{
	DomainSleep,
	DomainStress,
	DomainWeight,
	DomainNutrition,
	DomainFitness,
	DomainHydration,
	DomainMindfulness,
	DomainEnergy,
}

// IsValidGoalDomain 校验领域取值是否合法。
func IsValidGoalDomain(domain GoalDomain) bool {
	for _, d := range GoalDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// GoalStatus 表示目标的生命周期状态。
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
	// GoalStatusDeleted 为软删除状态：列表查询排除，按 ID 仍可读取以便审计。
	GoalStatusDeleted GoalStatus = "deleted"
)

// Goal 定义了用户的健康目标
// Domain 限定在 GoalDomains 枚举内，Target 为可选的量化描述（如 "Dormir 7.5h"）
// 软删除通过 Status=deleted 实现，不使用 gorm.DeletedAt
type Goal struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"index;size:36;not null" json:"userId"`
	Title     string     `gorm:"not null" json:"title"`
	Domain    GoalDomain `gorm:"size:32;not null" json:"domain"`
	Target    string     `json:"target,omitempty"`
	Status    GoalStatus `gorm:"size:16;default:'active';not null" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
