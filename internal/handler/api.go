package handler

import (
	"github.com/panacea/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db      *gorm.DB
	users   *service.UserService
	goals   *service.GoalService
	plans   *service.PlanService
	tasks   *service.TaskService
	planner *service.PlannerService
	chats   *service.ChatService
	system  *service.SystemSettingService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	deps := service.NewServices(gdb)

	return &API{
		db:      gdb,
		users:   deps.Users,
		goals:   deps.Goals,
		plans:   deps.Plans,
		tasks:   deps.Tasks,
		planner: deps.Planner,
		chats:   deps.Chats,
		system:  deps.Settings,
	}
}

// Services 暴露底层服务集合，供路由之外的组件（如提醒任务）复用。
func (a *API) Services() (*service.TaskService, *service.ChatService, *service.UserService, *service.SystemSettingService) {
	return a.tasks, a.chats, a.users, a.system
}
