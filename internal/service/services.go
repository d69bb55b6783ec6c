package service

import "gorm.io/gorm"

// Services 汇总全部业务服务，集中完成依赖装配。
// 装配顺序即依赖方向：settings → oracle → 各领域服务 → 编排 → 对话。
type Services struct {
	Settings     *SystemSettingService
	Users        *UserService
	Goals        *GoalService
	Plans        *PlanService
	Tasks        *TaskService
	Classifier   *ClassifierService
	Planner      *PlannerService
	Orchestrator *OrchestratorService
	Chats        *ChatService

	oracle *oracleClient
}

// NewServices 以同一个数据库连接装配全部服务。
func NewServices(gdb *gorm.DB) *Services {
	settings := NewSystemSettingService(gdb)
	oracle := newOracleClient(settings)

	users := NewUserService(gdb)
	goals := NewGoalService(gdb)
	plans := NewPlanService(gdb, goals)
	tasks := NewTaskService(gdb, plans)

	classifier := NewClassifierService(oracle)
	planner := NewPlannerService(oracle, settings, goals, plans, tasks)
	orchestrator := NewOrchestratorService(goals, plans, tasks, planner)
	chats := NewChatService(gdb, classifier, orchestrator, settings)

	return &Services{
		Settings:     settings,
		Users:        users,
		Goals:        goals,
		Plans:        plans,
		Tasks:        tasks,
		Classifier:   classifier,
		Planner:      planner,
		Orchestrator: orchestrator,
		Chats:        chats,
		oracle:       oracle,
	}
}

// SetOracleHTTPClient 覆盖模型调用所用的 HTTP 客户端，主要用于测试。
func (s *Services) SetOracleHTTPClient(client httpDoer) {
	s.oracle.SetHTTPClient(client)
}

// SetOracleBaseURLs 覆盖模型接口地址，主要用于测试与私有化部署。
func (s *Services) SetOracleBaseURLs(openAI, deepSeek string) {
	if openAI != "" {
		s.oracle.SetOpenAIBaseURL(openAI)
	}
	if deepSeek != "" {
		s.oracle.SetDeepSeekBaseURL(deepSeek)
	}
}
