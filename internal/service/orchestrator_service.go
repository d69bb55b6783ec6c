package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/panacea/internal/calendar"
	"github.com/panacea/internal/db"
)

// OrchestratorService 把分类结果映射为一串有序动作：
// 目标创建/计划生成/任务调整，并为前端产出声明式副作用序列。
type OrchestratorService struct {
	goals   *GoalService
	plans   *PlanService
	tasks   *TaskService
	planner *PlannerService
	now     func() time.Time
}

// OrchestrationResult 是一次编排的产出：助手文案、涉及的实体与副作用。
// 前置条件不满足时 Effects 为空，Text 指明缺了什么；这不是错误。
type OrchestrationResult struct {
	Text    string
	GoalID  string
	PlanID  string
	Effects []db.Effect
}

// NewOrchestratorService 构造 OrchestratorService
func NewOrchestratorService(goals *GoalService, plans *PlanService, tasks *TaskService, planner *PlannerService) *OrchestratorService {
	return &OrchestratorService{
		goals:   goals,
		plans:   plans,
		tasks:   tasks,
		planner: planner,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock 覆盖内部时钟，主要用于测试。
func (s *OrchestratorService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Execute 按意图表驱动执行。归属与存在性错误向上传播；
// 模型相关故障在下游已被兜底吸收，不会到达这里。
func (s *OrchestratorService) Execute(ctx context.Context, userID string, cls Classification, tz string) (OrchestrationResult, error) {
	switch cls.Intent {
	case IntentCreateGoal:
		return s.createGoal(ctx, userID, cls)
	case IntentAdjustPlan:
		return s.adjustPlan(ctx, userID, cls)
	case IntentAddMicroTasks:
		return s.addMicroTasks(userID, cls)
	case IntentPostponeToday:
		return s.postponeToday(userID, cls, tz)
	case IntentLinkGoal:
		return s.linkGoal(userID, cls)
	case IntentProgress:
		return OrchestrationResult{
			Text:   "¡Bien ahí! Registrar tu avance ayuda. Puedes marcar tareas como completadas desde tu lista de hoy.",
			GoalID: cls.GoalID,
		}, nil
	default:
		return OrchestrationResult{
			Text: "Te escucho. ¿Quieres que te ayude a crear un objetivo de bienestar (sueño, estrés, peso, alimentación...)?",
		}, nil
	}
}

func (s *OrchestratorService) createGoal(ctx context.Context, userID string, cls Classification) (OrchestrationResult, error) {
	if cls.Domain == "" {
		return OrchestrationResult{
			Text: "Puedo crear un objetivo, pero necesito saber el área: ¿sueño, estrés, peso, alimentación, ejercicio...?",
		}, nil
	}

	goal, err := s.goals.Create(userID, GoalInput{
		Title:  cls.Title,
		Domain: cls.Domain,
		Target: cls.Target,
	})
	if err != nil {
		return OrchestrationResult{}, err
	}

	plan, tasks, err := s.planner.GeneratePlanForGoal(ctx, userID, goal.ID)
	if err != nil {
		return OrchestrationResult{}, err
	}

	lines := []string{
		fmt.Sprintf("✅ Objetivo creado: **%s** (%s).", goal.Title, goal.Domain),
		"🧠 Generé un plan inicial para esta semana.",
	}
	if summary := strings.TrimSpace(plan.Summary); summary != "" {
		lines = append(lines, fmt.Sprintf("Resumen: %s", summary))
	}
	if preview := taskPreview(tasks, 3); preview != "" {
		lines = append(lines, "Primeras tareas:\n"+preview)
	}
	lines = append(lines, `Puedes decir "ajusta el plan" si está muy fácil/difícil.`)

	return OrchestrationResult{
		Text:   strings.Join(lines, "\n"),
		GoalID: goal.ID,
		PlanID: plan.ID,
		Effects: []db.Effect{
			effectSetCurrentGoal(goal.ID),
			effectPlanCreated(plan.ID),
			effectNavigateToPlan(plan.ID),
			effectRefreshSections(SectionPlan, SectionTasksToday),
		},
	}, nil
}

func (s *OrchestratorService) adjustPlan(ctx context.Context, userID string, cls Classification) (OrchestrationResult, error) {
	if cls.GoalID == "" {
		return OrchestrationResult{
			Text: "¿Qué objetivo quieres ajustar? Selecciónalo o dime su nombre y vuelvo a generar el plan.",
		}, nil
	}

	plan, tasks, err := s.planner.Replan(ctx, userID, cls.GoalID)
	if err != nil {
		return OrchestrationResult{}, err
	}

	lines := []string{"🔄 Ajusté tu plan con una nueva versión para esta semana."}
	if preview := taskPreview(tasks, 3); preview != "" {
		lines = append(lines, "Próximas tareas:\n"+preview)
	}

	return OrchestrationResult{
		Text:   strings.Join(lines, "\n"),
		GoalID: cls.GoalID,
		PlanID: plan.ID,
		Effects: []db.Effect{
			effectPlanUpdated(plan.ID),
			effectRefreshSections(SectionPlan, SectionTasksToday),
		},
	}, nil
}

// microTaskBlueprints 是追加的轻量任务：当天完成、低摩擦。
var microTaskBlueprints = []struct {
	title  string
	hour   int
	minute int
	weight int
}{
	{"Pausa de respiración 2 min", 18, 0, 1},
	{"Un vaso de agua", 19, 0, 1},
	{"Caminata corta de 10 min", 20, 30, 2},
}

func (s *OrchestratorService) addMicroTasks(userID string, cls Classification) (OrchestrationResult, error) {
	if cls.GoalID == "" {
		return OrchestrationResult{
			Text: "Para sumar micro-tareas necesito saber a qué objetivo. ¿Cuál de tus objetivos uso?",
		}, nil
	}

	plan, err := s.plans.FindByGoal(cls.GoalID, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return OrchestrationResult{
				Text:   "Ese objetivo todavía no tiene plan. Dime \"genera el plan\" y lo armo primero.",
				GoalID: cls.GoalID,
			}, nil
		}
		return OrchestrationResult{}, err
	}

	day := calendar.StartOfUTCDay(s.now())
	items := make([]NewTaskInput, 0, len(microTaskBlueprints))
	for _, blueprint := range microTaskBlueprints {
		due := time.Date(day.Year(), day.Month(), day.Day(), blueprint.hour, blueprint.minute, 0, 0, time.UTC)
		items = append(items, NewTaskInput{
			Title:       blueprint.title,
			DueAt:       calendar.FormatISO(due),
			ScoreWeight: blueprint.weight,
		})
	}

	if _, err := s.tasks.BulkCreate(userID, plan.ID, items); err != nil {
		return OrchestrationResult{}, err
	}

	return OrchestrationResult{
		Text:   fmt.Sprintf("➕ Agregué %d micro-tareas para hoy. Son cortas a propósito: empieza por la primera.", len(items)),
		GoalID: cls.GoalID,
		PlanID: plan.ID,
		Effects: []db.Effect{
			effectTasksAdded(plan.ID, len(items)),
			effectRefreshSections(SectionTasksToday),
		},
	}, nil
}

func (s *OrchestratorService) postponeToday(userID string, cls Classification, tz string) (OrchestrationResult, error) {
	if cls.GoalID == "" {
		return OrchestrationResult{
			Text: "¿De qué objetivo pospongo las tareas de hoy? Indícame el objetivo y lo muevo a mañana.",
		}, nil
	}

	plan, err := s.plans.FindByGoal(cls.GoalID, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return OrchestrationResult{
				Text:   "Ese objetivo no tiene plan todavía, así que no hay tareas que posponer.",
				GoalID: cls.GoalID,
			}, nil
		}
		return OrchestrationResult{}, err
	}

	shifted, err := s.tasks.PostponeToday(userID, plan.ID, s.now(), tz)
	if err != nil {
		return OrchestrationResult{}, err
	}

	if len(shifted) == 0 {
		return OrchestrationResult{
			Text:   "No encontré tareas pendientes para hoy en ese plan. Nada que mover 🙂",
			GoalID: cls.GoalID,
			PlanID: plan.ID,
		}, nil
	}

	return OrchestrationResult{
		Text:   fmt.Sprintf("📅 Listo, moví %d tarea(s) de hoy para mañana. Mañana retomamos con calma.", len(shifted)),
		GoalID: cls.GoalID,
		PlanID: plan.ID,
		Effects: []db.Effect{
			effectTasksPostponed(plan.ID, len(shifted)),
			effectRefreshSections(SectionTasksToday),
		},
	}, nil
}

func (s *OrchestratorService) linkGoal(userID string, cls Classification) (OrchestrationResult, error) {
	if cls.GoalID == "" {
		return OrchestrationResult{
			Text: "¿A qué objetivo te refieres? Puedes seleccionarlo en tu lista de objetivos.",
		}, nil
	}

	goal, err := s.goals.FindByIDForUser(cls.GoalID, userID)
	if err != nil {
		return OrchestrationResult{}, err
	}

	return OrchestrationResult{
		Text:   fmt.Sprintf("Seguimos con tu objetivo **%s**. ¿Quieres ver el plan o ajustar algo?", goal.Title),
		GoalID: goal.ID,
	}, nil
}

func taskPreview(tasks []db.Task, limit int) string {
	if len(tasks) == 0 {
		return ""
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}

	lines := make([]string, 0, limit)
	for _, task := range tasks[:limit] {
		label := task.DueAt
		if due, err := calendar.ParseISO(task.DueAt); err == nil {
			label = due.UTC().Format("02/01 15:04")
		}
		lines = append(lines, fmt.Sprintf("• %s (%s)", task.Title, label))
	}
	return strings.Join(lines, "\n")
}
