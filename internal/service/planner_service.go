package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/panacea/internal/calendar"
	"github.com/panacea/internal/db"
)

// PlannerService 负责把一个目标变成可执行的周计划。
// 模型输出经过 schema 校验，不合格时落到固定的兜底计划，
// 因此对调用方而言生成永远成功。
type PlannerService struct {
	oracle   jsonOracle
	settings *SystemSettingService
	goals    *GoalService
	plans    *PlanService
	tasks    *TaskService
	now      func() time.Time
}

// NewPlannerService 构造 PlannerService
func NewPlannerService(oracle jsonOracle, settings *SystemSettingService, goals *GoalService, plans *PlanService, tasks *TaskService) *PlannerService {
	return &PlannerService{
		oracle:   oracle,
		settings: settings,
		goals:    goals,
		plans:    plans,
		tasks:    tasks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock 覆盖内部时钟，主要用于测试。
func (s *PlannerService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// generatedPlan 是模型输出（或兜底内容）的校验目标。
type generatedPlan struct {
	Summary         string             `json:"summary"`
	Recommendations []string           `json:"recommendations"`
	WeeklySchedule  []db.ScheduleEntry `json:"weeklySchedule"`
	Tasks           []generatedTask    `json:"tasks"`
}

type generatedTask struct {
	Title       string `json:"title"`
	DueAt       string `json:"dueAt"`
	ScoreWeight int    `json:"scoreWeight"`
}

// 最小数量约束与 ScoreWeight 边界是硬校验，少一条都算失败。
const (
	minRecommendations = 3
	minScheduleEntries = 5
	minGeneratedTasks  = 5
	minTaskScoreWeight = 1
	maxTaskScoreWeight = 5
)

// GeneratePlanForGoal 为用户的目标生成并持久化周计划与任务。
// 归属校验先行；生成内容先过滚动 7 天窗口校正再入库。
func (s *PlannerService) GeneratePlanForGoal(ctx context.Context, userID, goalID string) (*db.Plan, []db.Task, error) {
	goal, err := s.goals.FindByIDForUser(goalID, userID)
	if err != nil {
		return nil, nil, err
	}

	tz := defaultTimezone
	preamble := ""
	if settings, err := s.settings.GetSettings(); err == nil {
		tz = settings.DefaultTimezone
		preamble = settings.PlannerPrompt
	}

	ref := s.now()
	generated := s.synthesize(ctx, goal, ref, tz, preamble)

	// 到期时间统一拉回参考日起的一周内
	window := calendar.WeekWindow(ref)
	for i := range generated.Tasks {
		generated.Tasks[i].DueAt = window.Normalize(generated.Tasks[i].DueAt, i)
	}

	plan, err := s.plans.Upsert(userID, goalID, PlanPayload{
		Summary:         generated.Summary,
		Recommendations: generated.Recommendations,
		WeeklySchedule:  generated.WeeklySchedule,
	})
	if err != nil {
		return nil, nil, err
	}

	items := make([]NewTaskInput, 0, len(generated.Tasks))
	for _, task := range generated.Tasks {
		items = append(items, NewTaskInput{
			Title:       task.Title,
			DueAt:       task.DueAt,
			ScoreWeight: task.ScoreWeight,
		})
	}

	tasks, err := s.tasks.BulkCreate(userID, plan.ID, items)
	if err != nil {
		return nil, nil, err
	}
	return plan, tasks, nil
}

// Replan 重新读取目标并再次生成计划（merge 覆盖既有内容）。
func (s *PlannerService) Replan(ctx context.Context, userID, goalID string) (*db.Plan, []db.Task, error) {
	return s.GeneratePlanForGoal(ctx, userID, goalID)
}

// synthesize 请求模型生成计划；调用失败、解析失败或校验失败时返回兜底计划。
// preamble 非空时作为提示词开场白，替换内置的默认角色设定。
func (s *PlannerService) synthesize(ctx context.Context, goal *db.Goal, ref time.Time, tz, preamble string) generatedPlan {
	prompt := buildPlannerPrompt(goal, ref, tz, preamble)

	out := s.oracle.GenerateJSON(ctx, "PLAN", prompt)
	if out.Kind != oracleParsed {
		return fallbackPlan(goal.Title, ref)
	}

	var candidate generatedPlan
	if err := json.Unmarshal(out.Object, &candidate); err != nil {
		return fallbackPlan(goal.Title, ref)
	}

	if err := validateGeneratedPlan(candidate); err != nil {
		logOracleExchange("PLAN", "validation", err.Error())
		return fallbackPlan(goal.Title, ref)
	}
	return candidate
}

// defaultPlannerPreamble 是提示词的内置开场白；
// 系统设置里的 planner_prompt 非空时覆盖它，JSON 契约部分不可覆盖。
const defaultPlannerPreamble = "Eres un agente de bienestar para LATAM. Genera un plan de 1 semana para el objetivo:"

func buildPlannerPrompt(goal *db.Goal, ref time.Time, tz, preamble string) string {
	target := goal.Target
	if strings.TrimSpace(target) == "" {
		target = "N/A"
	}

	preamble = strings.TrimSpace(preamble)
	if preamble == "" {
		preamble = defaultPlannerPreamble
	}

	var builder strings.Builder
	builder.WriteString(preamble + "\n")
	builder.WriteString(fmt.Sprintf("- Dominio: %s\n", goal.Domain))
	builder.WriteString(fmt.Sprintf("- Título: %s\n", goal.Title))
	builder.WriteString(fmt.Sprintf("- Meta: %s\n\n", target))
	builder.WriteString("Devuelve SOLO JSON con:\n")
	builder.WriteString("{\n")
	builder.WriteString("  \"summary\": string,\n")
	builder.WriteString("  \"recommendations\": string[] (mínimo 3),\n")
	builder.WriteString("  \"weeklySchedule\": [{ \"day\": \"Lunes|Martes|...\", \"action\": string }] (mínimo 5),\n")
	builder.WriteString("  \"tasks\": [{ \"title\": string, \"dueAt\": ISO8601, \"scoreWeight\": 1-5 }] (mínimo 5)\n")
	builder.WriteString("}\n\n")
	builder.WriteString(fmt.Sprintf(
		"Fechas: hoy es %s en la zona horaria %s. Usa únicamente fechas dentro de los próximos 7 días; nunca fechas pasadas.\n",
		ref.Format("2006-01-02"), tz,
	))
	builder.WriteString("Reglas: sin diagnósticos médicos, seguro, incremental, basado en hábitos. Si hay señales de gravedad, recomendar consultar profesional.")
	return builder.String()
}

func validateGeneratedPlan(plan generatedPlan) error {
	if strings.TrimSpace(plan.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	if len(plan.Recommendations) < minRecommendations {
		return fmt.Errorf("expected at least %d recommendations, got %d", minRecommendations, len(plan.Recommendations))
	}
	if len(plan.WeeklySchedule) < minScheduleEntries {
		return fmt.Errorf("expected at least %d schedule entries, got %d", minScheduleEntries, len(plan.WeeklySchedule))
	}
	if len(plan.Tasks) < minGeneratedTasks {
		return fmt.Errorf("expected at least %d tasks, got %d", minGeneratedTasks, len(plan.Tasks))
	}
	for i, task := range plan.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("task %d has empty title", i)
		}
		if task.ScoreWeight < minTaskScoreWeight || task.ScoreWeight > maxTaskScoreWeight {
			return fmt.Errorf("task %d score weight %d out of range", i, task.ScoreWeight)
		}
	}
	return nil
}

// fallbackPlan 是模型不可用时的固定兜底：内容确定、当天可执行。
func fallbackPlan(goalTitle string, ref time.Time) generatedPlan {
	day := calendar.StartOfUTCDay(ref)
	at := func(hour, minute int) string {
		return calendar.FormatISO(time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC))
	}

	return generatedPlan{
		Summary: fmt.Sprintf("Plan inicial para %s", goalTitle),
		Recommendations: []string{
			"Hidratarse",
			"Rutina corta",
			"Registro de sueño",
		},
		WeeklySchedule: []db.ScheduleEntry{
			{Day: "Lunes", Action: "Dormir a la misma hora"},
			{Day: "Martes", Action: "Evitar pantallas 60 min antes"},
			{Day: "Miércoles", Action: "Caminar 20 min tarde"},
			{Day: "Jueves", Action: "Respiración 5 min"},
			{Day: "Viernes", Action: "Registro de hábitos"},
		},
		Tasks: []generatedTask{
			{Title: "Apagar pantallas 60 min antes", DueAt: at(21, 0), ScoreWeight: 3},
			{Title: "Respiración 5 min", DueAt: at(21, 30), ScoreWeight: 2},
			{Title: "Registrar hora de sueño", DueAt: at(22, 0), ScoreWeight: 2},
			{Title: "Caminar 20 min", DueAt: at(17, 0), ScoreWeight: 3},
			{Title: "Evitar cafeína tarde", DueAt: at(15, 0), ScoreWeight: 1},
		},
	}
}
