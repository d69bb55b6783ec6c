package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panacea/internal/db"
	"gorm.io/gorm"
)

// GoalService 负责 Goal 数据的增删改查与归属校验
type GoalService struct {
	db *gorm.DB
}

// GoalInput 定义创建目标时可配置字段
type GoalInput struct {
	Title  string
	Domain db.GoalDomain
	Target string
}

// NewGoalService 构造 GoalService
func NewGoalService(gdb *gorm.DB) *GoalService {
	return &GoalService{db: gdb}
}

// Create 新建目标，状态固定 active
func (s *GoalService) Create(userID string, input GoalInput) (*db.Goal, error) {
	if !db.IsValidGoalDomain(input.Domain) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDomain, input.Domain)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Objetivo de bienestar"
	}

	goal := db.Goal{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Domain: input.Domain,
		Target: strings.TrimSpace(input.Target),
		Status: db.GoalStatusActive,
	}

	if err := s.db.Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &goal, nil
}

// FindByIDForUser 按 ID 读取目标并校验归属。
// 软删除的目标仍可按 ID 读到，供审计路径使用。
func (s *GoalService) FindByIDForUser(goalID, userID string) (*db.Goal, error) {
	var goal db.Goal
	if err := s.db.Where("id = ?", goalID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}

	if goal.UserID != userID {
		return nil, ErrForbidden
	}
	return &goal, nil
}

// ListByUser 返回用户全部未删除的目标，新建在前
func (s *GoalService) ListByUser(userID string) ([]db.Goal, error) {
	var goals []db.Goal
	if err := s.db.
		Where("user_id = ?", userID).
		Where("status <> ?", db.GoalStatusDeleted).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// UpdateStatus 更新目标状态（active/paused/completed），校验归属
func (s *GoalService) UpdateStatus(goalID, userID string, status db.GoalStatus) (*db.Goal, error) {
	switch status {
	case db.GoalStatusActive, db.GoalStatusPaused, db.GoalStatusCompleted:
	default:
		return nil, fmt.Errorf("unsupported goal status: %s", status)
	}

	goal, err := s.FindByIDForUser(goalID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(goal).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		return nil, fmt.Errorf("update goal status: %w", err)
	}
	return goal, nil
}

// SoftDelete 软删除目标。幂等：目标不存在或已删除都按成功处理。
func (s *GoalService) SoftDelete(goalID, userID string) error {
	var goal db.Goal
	if err := s.db.Where("id = ?", goalID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("get goal: %w", err)
	}

	if goal.UserID != userID {
		return ErrForbidden
	}
	if goal.Status == db.GoalStatusDeleted {
		return nil
	}

	if err := s.db.Model(&goal).Updates(map[string]interface{}{
		"status":     db.GoalStatusDeleted,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		return fmt.Errorf("soft delete goal: %w", err)
	}
	return nil
}
