package service

import "github.com/panacea/internal/db"

// 副作用标签：前端按顺序消费，顺序即语义。
const (
	EffectSetCurrentGoal  = "SET_CURRENT_GOAL"
	EffectPlanCreated     = "PLAN_CREATED"
	EffectPlanUpdated     = "PLAN_UPDATED"
	EffectNavigateToPlan  = "NAVIGATE_TO_PLAN"
	EffectTasksAdded      = "TASKS_ADDED"
	EffectTasksPostponed  = "TASKS_POSTPONED"
	EffectRefreshSections = "REFRESH_SECTIONS"
)

// 可刷新的界面区块。
const (
	SectionPlan       = "PLAN"
	SectionTasksToday = "TASKS_TODAY"
)

func effectSetCurrentGoal(goalID string) db.Effect {
	return db.Effect{Type: EffectSetCurrentGoal, Payload: map[string]interface{}{"goalId": goalID}}
}

func effectPlanCreated(planID string) db.Effect {
	return db.Effect{Type: EffectPlanCreated, Payload: map[string]interface{}{"planId": planID}}
}

func effectPlanUpdated(planID string) db.Effect {
	return db.Effect{Type: EffectPlanUpdated, Payload: map[string]interface{}{"planId": planID}}
}

func effectNavigateToPlan(planID string) db.Effect {
	return db.Effect{Type: EffectNavigateToPlan, Payload: map[string]interface{}{"planId": planID}}
}

func effectTasksAdded(planID string, count int) db.Effect {
	return db.Effect{Type: EffectTasksAdded, Payload: map[string]interface{}{"planId": planID, "count": count}}
}

func effectTasksPostponed(planID string, count int) db.Effect {
	return db.Effect{Type: EffectTasksPostponed, Payload: map[string]interface{}{"planId": planID, "count": count}}
}

func effectRefreshSections(sections ...string) db.Effect {
	values := make([]interface{}, 0, len(sections))
	for _, section := range sections {
		values = append(values, section)
	}
	return db.Effect{Type: EffectRefreshSections, Payload: map[string]interface{}{"sections": values}}
}
