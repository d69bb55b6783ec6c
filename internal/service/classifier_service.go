package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/panacea/internal/db"
)

// Intent 表示一条聊天消息被解释出的动作意图。
type Intent string

const (
	IntentCreateGoal    Intent = "create_goal"
	IntentLinkGoal      Intent = "link_goal"
	IntentProgress      Intent = "progress"
	IntentAdjustPlan    Intent = "adjust_plan"
	IntentAddMicroTasks Intent = "add_micro_tasks"
	IntentPostponeToday Intent = "postpone_today"
	IntentOther         Intent = "other"
)

// Classification 是对单条消息的结构化解释。
// 每条消息独立计算一次，从不跨消息复用。
type Classification struct {
	Intent Intent
	Domain db.GoalDomain
	Title  string
	Target string
	GoalID string
}

// ClassifierService 把自由文本映射为 Classification。
// 先问模型，模型不可用或输出不合法时退化为关键词启发式，永不报错。
type ClassifierService struct {
	oracle jsonOracle
}

// NewClassifierService 构造 ClassifierService
func NewClassifierService(oracle jsonOracle) *ClassifierService {
	return &ClassifierService{oracle: oracle}
}

var validIntents = map[Intent]bool{
	IntentCreateGoal:    true,
	IntentLinkGoal:      true,
	IntentProgress:      true,
	IntentAdjustPlan:    true,
	IntentAddMicroTasks: true,
	IntentPostponeToday: true,
	IntentOther:         true,
}

// Classify 解释一条用户消息。goalID 为调用方携带的显式目标上下文，可为空。
// 保证返回值总是良构：最差情况 intent=other 且无 domain。
func (s *ClassifierService) Classify(ctx context.Context, text, goalID string) Classification {
	result := s.fromOracle(ctx, text, goalID)

	// 启发式按固定顺序叠加，每一步基于上一步构造新值，不做原地改写。
	lowered := strings.ToLower(text)
	result = applyIntentKeywords(result, lowered)
	result = applyDomainKeywords(result, lowered)
	result = promoteDomainToGoal(result)

	if result.GoalID == "" {
		result.GoalID = goalID
	}
	return result
}

type classificationJSON struct {
	Intent string  `json:"intent"`
	Domain *string `json:"domain"`
	Title  *string `json:"title"`
	Target *string `json:"target"`
	GoalID *string `json:"goalId"`
}

func (s *ClassifierService) fromOracle(ctx context.Context, text, goalID string) Classification {
	fallback := Classification{Intent: IntentOther}

	prompt := buildClassifierPrompt(text, goalID)
	out := s.oracle.GenerateJSON(ctx, "CLASSIFY", prompt)
	if out.Kind != oracleParsed {
		return fallback
	}

	var parsed classificationJSON
	if err := json.Unmarshal(out.Object, &parsed); err != nil {
		return fallback
	}

	intent := Intent(strings.TrimSpace(parsed.Intent))
	if !validIntents[intent] {
		return fallback
	}

	result := Classification{Intent: intent}
	if parsed.Domain != nil {
		domain := db.GoalDomain(strings.TrimSpace(*parsed.Domain))
		if db.IsValidGoalDomain(domain) {
			result.Domain = domain
		}
	}
	if parsed.Title != nil {
		result.Title = strings.TrimSpace(*parsed.Title)
	}
	if parsed.Target != nil {
		result.Target = strings.TrimSpace(*parsed.Target)
	}
	if parsed.GoalID != nil {
		result.GoalID = strings.TrimSpace(*parsed.GoalID)
	}
	return result
}

func buildClassifierPrompt(text, goalID string) string {
	var builder strings.Builder
	builder.WriteString("Eres un NLU para bienestar. Clasifica el mensaje del usuario en JSON con campos:\n")
	builder.WriteString(`- intent: "create_goal" | "link_goal" | "progress" | "adjust_plan" | "add_micro_tasks" | "postpone_today" | "other"` + "\n")
	builder.WriteString("- domain: ")
	for i, domain := range db.GoalDomains {
		if i > 0 {
			builder.WriteString(" | ")
		}
		builder.WriteString(fmt.Sprintf("%q", string(domain)))
	}
	builder.WriteString(" | null\n")
	builder.WriteString("- title: string | null       # ejemplo: \"Dormir mejor\"\n")
	builder.WriteString("- target: string | null      # ejemplo: \"Dormir 7.5h\"\n")
	builder.WriteString("- goalId: string | null      # si hace referencia explícita\n\n")
	if goalID != "" {
		builder.WriteString(fmt.Sprintf("Contexto: el usuario tiene seleccionado el objetivo %q.\n", goalID))
	}
	builder.WriteString(fmt.Sprintf("Usuario: %q\n\nResponde SOLO JSON válido.", text))
	return builder.String()
}

// intentKeywords 按声明顺序匹配，显式动作词优先于领域推断。
var intentKeywords = []struct {
	intent Intent
	words  []string
}{
	{IntentAdjustPlan, []string{"ajusta", "ajustar", "replanifica", "replan", "cambia el plan", "muy dificil", "muy difícil", "muy facil", "muy fácil", "mas facil", "más fácil"}},
	{IntentAddMicroTasks, []string{"micro", "tareas pequeñas", "tareas pequenas", "mini tareas", "algo pequeño", "algo pequeno", "algo corto"}},
	{IntentPostponeToday, []string{"pospon", "posponer", "aplaza", "aplazar", "deja para mañana", "deja para manana", "hoy no puedo", "muevelo para mañana", "muévelo para mañana"}},
}

// domainKeywords 的顺序即优先级，首个命中生效。
var domainKeywords = []struct {
	domain db.GoalDomain
	title  string
	words  []string
}{
	{db.DomainSleep, "Dormir mejor", []string{"dormir", "sueñ", "insomnio", "trasnochar", "descansar mejor"}},
	{db.DomainStress, "Reducir estrés", []string{"estrés", "estres", "ansiedad", "agobi", "abrumad"}},
	{db.DomainWeight, "Bajar de peso", []string{"bajar de peso", "adelgazar", "sobrepeso", "perder peso"}},
	{db.DomainNutrition, "Comer mejor", []string{"comer mejor", "dieta", "alimentación", "alimentacion", "nutrición", "nutricion"}},
	{db.DomainFitness, "Moverme más", []string{"ejercicio", "entrenar", "gimnasio", "correr", "sedentari"}},
	{db.DomainHydration, "Tomar más agua", []string{"hidratar", "hidratación", "hidratacion", "tomar agua", "beber agua"}},
	{db.DomainMindfulness, "Practicar mindfulness", []string{"meditar", "meditación", "meditacion", "mindfulness", "respiración", "respiracion"}},
	{db.DomainEnergy, "Recuperar energía", []string{"energía", "energia", "cansancio", "fatiga", "agotad"}},
}

// applyIntentKeywords 用显式动作词覆盖意图。
// 覆盖发生在领域推断之前，保证“ajusta el plan de sueño”不会变成 create_goal。
func applyIntentKeywords(c Classification, lowered string) Classification {
	for _, group := range intentKeywords {
		for _, word := range group.words {
			if strings.Contains(lowered, word) {
				next := c
				next.Intent = group.intent
				return next
			}
		}
	}
	return c
}

// applyDomainKeywords 在模型未给出领域时按关键词补全。
func applyDomainKeywords(c Classification, lowered string) Classification {
	if c.Domain != "" {
		return c
	}

	for _, group := range domainKeywords {
		for _, word := range group.words {
			if strings.Contains(lowered, word) {
				next := c
				next.Domain = group.domain
				if next.Title == "" {
					next.Title = group.title
				}
				return next
			}
		}
	}
	return c
}

// promoteDomainToGoal 处理“有领域但无明确动作”的消息：
// 识别出健康领域却没有竞争意图时，视为想创建目标。
func promoteDomainToGoal(c Classification) Classification {
	if c.Intent != IntentOther || c.Domain == "" {
		return c
	}
	next := c
	next.Intent = IntentCreateGoal
	return next
}
