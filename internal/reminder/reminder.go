// Package reminder 通过 cron 定时把“今日待办”摘要写入用户的对话流。
package reminder

import (
	"fmt"
	"log"
	"time"

	"github.com/panacea/internal/service"
	"github.com/robfig/cron/v3"
)

// Scheduler 周期性生成每日任务摘要。
type Scheduler struct {
	cron     *cron.Cron
	tasks    *service.TaskService
	chats    *service.ChatService
	users    *service.UserService
	settings *service.SystemSettingService
}

// New 构造 Scheduler
func New(tasks *service.TaskService, chats *service.ChatService, users *service.UserService, settings *service.SystemSettingService) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		tasks:    tasks,
		chats:    chats,
		users:    users,
		settings: settings,
	}
}

// Start 注册并启动定时任务。spec 为标准 cron 表达式（如 "0 8 * * *"）。
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runDigest); err != nil {
		return fmt.Errorf("schedule reminder digest: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop 停止调度，等待在途任务结束。
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runDigest 逐用户统计今天的待办并写一条助手消息。
// 单个用户失败只记日志，不影响其他用户。
func (s *Scheduler) runDigest() {
	tz := "UTC"
	if settings, err := s.settings.GetSettings(); err == nil {
		tz = settings.DefaultTimezone
	}

	ids, err := s.users.ListIDs()
	if err != nil {
		log.Printf("[reminder] list users failed: %v", err)
		return
	}

	now := time.Now()
	for _, userID := range ids {
		due, err := s.tasks.DueToday(userID, now, tz)
		if err != nil {
			log.Printf("[reminder] due today failed for %s: %v", userID, err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		text := fmt.Sprintf("☀️ Buenos días. Hoy tienes %d tarea(s) pendiente(s). La primera: **%s**.", len(due), due[0].Title)
		if _, err := s.chats.AppendAssistant(userID, text, "", due[0].PlanID, nil); err != nil {
			log.Printf("[reminder] append digest failed for %s: %v", userID, err)
		}
	}
}
