package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/panacea/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanService 负责 Plan 的持久化与归属校验
// 约定计划与目标 1:1：plan.ID == goal.ID，重复写入走 merge
type PlanService struct {
	db    *gorm.DB
	goals *GoalService
}

// PlanPayload 是一次计划生成的结构化内容
type PlanPayload struct {
	Summary         string
	Recommendations []string
	WeeklySchedule  []db.ScheduleEntry
}

// NewPlanService 构造 PlanService
func NewPlanService(gdb *gorm.DB, goals *GoalService) *PlanService {
	return &PlanService{db: gdb, goals: goals}
}

// Upsert 以 goalID 为主键写入计划。
// merge 语义：已有计划时保留原 created_at，仅刷新内容与 updated_at；
// 并发重复生成收敛为 last-writer-wins，不做串行化。
func (s *PlanService) Upsert(userID, goalID string, payload PlanPayload) (*db.Plan, error) {
	if _, err := s.goals.FindByIDForUser(goalID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	plan := db.Plan{
		ID:             goalID,
		UserID:         userID,
		GoalID:         goalID,
		Summary:        payload.Summary,
		Recommendation: payload.Recommendations,
		WeeklySchedule: payload.WeeklySchedule,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"summary", "recommendations", "weekly_schedule", "updated_at",
		}),
	}).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("upsert plan: %w", err)
	}

	// 回读以拿到 merge 后的 created_at
	var saved db.Plan
	if err := s.db.Where("id = ?", goalID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("reload plan: %w", err)
	}
	return &saved, nil
}

// FindByGoal 读取某个目标的计划，目标必须属于该用户。
// 无计划时返回 ErrPlanNotFound。
func (s *PlanService) FindByGoal(goalID, userID string) (*db.Plan, error) {
	if _, err := s.goals.FindByIDForUser(goalID, userID); err != nil {
		return nil, err
	}

	var plan db.Plan
	if err := s.db.Where("goal_id = ?", goalID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan by goal: %w", err)
	}
	return &plan, nil
}

// FindByID 按 ID 读取计划并校验归属。
// 计划自身带 userID 时直接比对，否则沿 goal 链路校验。
func (s *PlanService) FindByID(planID, userID string) (*db.Plan, error) {
	var plan db.Plan
	if err := s.db.Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	if plan.UserID != "" {
		if plan.UserID != userID {
			return nil, ErrForbidden
		}
		return &plan, nil
	}

	if _, err := s.goals.FindByIDForUser(plan.GoalID, userID); err != nil {
		return nil, err
	}
	return &plan, nil
}
