package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/panacea/internal/calendar"
	"github.com/panacea/internal/db"
	"gorm.io/gorm"
)

// TaskService 负责任务的批量写入与调度查询（今日任务、顺延、完成）
type TaskService struct {
	db    *gorm.DB
	plans *PlanService
}

// NewTaskInput 定义批量创建任务时的单条输入
type NewTaskInput struct {
	Title       string
	DueAt       string
	ScoreWeight int
}

// NewTaskService 构造 TaskService
func NewTaskService(gdb *gorm.DB, plans *PlanService) *TaskService {
	return &TaskService{db: gdb, plans: plans}
}

// BulkCreate 为某个计划批量创建任务，整批放在一个事务内提交。
// 计划归属校验先行；ScoreWeight 越界时收敛到 [1,5]。
func (s *TaskService) BulkCreate(userID, planID string, items []NewTaskInput) ([]db.Task, error) {
	if _, err := s.plans.FindByID(planID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			task := db.Task{
				ID:          uuid.NewString(),
				UserID:      userID,
				PlanID:      planID,
				Title:       item.Title,
				DueAt:       item.DueAt,
				Status:      db.TaskStatusPending,
				ScoreWeight: clampScoreWeight(item.ScoreWeight),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk create tasks: %w", err)
	}

	return s.ByPlan(planID, userID)
}

// ByPlan 返回计划下的全部任务，按到期时间升序
func (s *TaskService) ByPlan(planID, userID string) ([]db.Task, error) {
	if _, err := s.plans.FindByID(planID, userID); err != nil {
		return nil, err
	}

	var tasks []db.Task
	if err := s.db.Where("plan_id = ?", planID).Order("due_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks by plan: %w", err)
	}
	return tasks, nil
}

// DueToday 返回用户在指定时区的本地日历日内到期、且仍待执行的任务。
// done/skipped 一律排除；到期时间解析失败的任务不参与当日视图。
func (s *TaskService) DueToday(userID string, now time.Time, tz string) ([]db.Task, error) {
	start, end, err := calendar.DayBounds(now, tz)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone %s: %w", tz, err)
	}

	var candidates []db.Task
	if err := s.db.
		Where("user_id = ?", userID).
		Where("status IN ?", []db.TaskStatus{db.TaskStatusPending, db.TaskStatusInProgress}).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}

	// DueAt 是模型生成的 ISO 字符串，可能带任意时区偏移，
	// 因此在内存里解析后按 instant 过滤，而不是做字符串范围查询。
	due := make([]db.Task, 0, len(candidates))
	dueTimes := make(map[string]time.Time, len(candidates))
	for _, task := range candidates {
		t, err := calendar.ParseISO(task.DueAt)
		if err != nil {
			continue
		}
		if !t.Before(start) && t.Before(end) {
			due = append(due, task)
			dueTimes[task.ID] = t
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return dueTimes[due[i].ID].Before(dueTimes[due[j].ID])
	})
	return due, nil
}

// Postpone 把任务顺延 days 整天，保留原时分秒，并把 postponed_count 加一。
// days < 1 返回 ErrInvalidPostponeDays；存量 DueAt 解析失败时以当前时刻为基准。
func (s *TaskService) Postpone(taskID, userID string, days int) (*db.Task, error) {
	if days < 1 {
		return nil, ErrInvalidPostponeDays
	}

	task, err := s.findOwnedTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	base, err := calendar.ParseISO(task.DueAt)
	if err != nil {
		base = time.Now().UTC()
	}
	newDue := calendar.FormatISO(calendar.AddDays(base, days))

	if err := s.db.Model(task).Updates(map[string]interface{}{
		"due_at":          newDue,
		"postponed_count": gorm.Expr("postponed_count + 1"),
		"updated_at":      time.Now().UTC(),
	}).Error; err != nil {
		return nil, fmt.Errorf("postpone task: %w", err)
	}

	return s.reload(taskID)
}

// PostponeToday 把某个计划今天仍待执行的任务整体顺延一天，返回受影响的任务。
func (s *TaskService) PostponeToday(userID, planID string, now time.Time, tz string) ([]db.Task, error) {
	if _, err := s.plans.FindByID(planID, userID); err != nil {
		return nil, err
	}

	dueToday, err := s.DueToday(userID, now, tz)
	if err != nil {
		return nil, err
	}

	shifted := make([]db.Task, 0, len(dueToday))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, task := range dueToday {
			if task.PlanID != planID {
				continue
			}
			base, parseErr := calendar.ParseISO(task.DueAt)
			if parseErr != nil {
				base = now.UTC()
			}
			if err := tx.Model(&db.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
				"due_at":          calendar.FormatISO(calendar.AddDays(base, 1)),
				"postponed_count": gorm.Expr("postponed_count + 1"),
				"updated_at":      time.Now().UTC(),
			}).Error; err != nil {
				return err
			}
			shifted = append(shifted, task)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("postpone today: %w", err)
	}

	result := make([]db.Task, 0, len(shifted))
	for _, task := range shifted {
		reloaded, err := s.reload(task.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *reloaded)
	}
	return result, nil
}

// Complete 把任务标记为 done。已完成的任务重复调用不报错（幂等）。
func (s *TaskService) Complete(taskID, userID string) (*db.Task, error) {
	task, err := s.findOwnedTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	if task.Status == db.TaskStatusDone {
		return task, nil
	}

	if err := s.db.Model(task).Updates(map[string]interface{}{
		"status":     db.TaskStatusDone,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}

	return s.reload(taskID)
}

// findOwnedTask 读取任务并校验归属：任务自身带 userID 时直接比对，
// 否则沿 plan → goal 链路校验。
func (s *TaskService) findOwnedTask(taskID, userID string) (*db.Task, error) {
	var task db.Task
	if err := s.db.Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if task.UserID != "" {
		if task.UserID != userID {
			return nil, ErrForbidden
		}
		return &task, nil
	}

	if _, err := s.plans.FindByID(task.PlanID, userID); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) reload(taskID string) (*db.Task, error) {
	var task db.Task
	if err := s.db.Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}
	return &task, nil
}

func clampScoreWeight(weight int) int {
	if weight < 1 {
		return 1
	}
	if weight > 5 {
		return 5
	}
	return weight
}
