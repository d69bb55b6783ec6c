package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/db"
	"github.com/panacea/internal/service"
)

type createGoalRequest struct {
	Title  string `json:"title" binding:"required"`
	Domain string `json:"domain" binding:"required"`
	Target string `json:"target"`
}

type updateGoalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListGoals 返回当前用户全部未删除的目标
func (a *API) ListGoals(c *gin.Context) {
	goals, err := a.goals.ListByUser(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list goals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// CreateGoal 新建目标
func (a *API) CreateGoal(c *gin.Context) {
	var req createGoalRequest
	if !bindJSON(c, &req, "title and domain are required") {
		return
	}

	goal, err := a.goals.Create(currentUserID(c), service.GoalInput{
		Title:  req.Title,
		Domain: db.GoalDomain(req.Domain),
		Target: req.Target,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// GetGoal 按 ID 读取目标（软删除的目标仍可读取，供审计）
func (a *API) GetGoal(c *gin.Context) {
	goal, err := a.goals.FindByIDForUser(c.Param("id"), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// UpdateGoalStatus 更新目标状态
func (a *API) UpdateGoalStatus(c *gin.Context) {
	var req updateGoalStatusRequest
	if !bindJSON(c, &req, "status is required") {
		return
	}

	goal, err := a.goals.UpdateStatus(c.Param("id"), currentUserID(c), db.GoalStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// DeleteGoal 软删除目标，幂等
func (a *API) DeleteGoal(c *gin.Context) {
	if err := a.goals.SoftDelete(c.Param("id"), currentUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GeneratePlan 为目标生成（或重新生成）周计划
func (a *API) GeneratePlan(c *gin.Context) {
	plan, tasks, err := a.planner.GeneratePlanForGoal(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "tasks": tasks})
}

// GetPlan 读取目标的周计划
func (a *API) GetPlan(c *gin.Context) {
	plan, err := a.plans.FindByGoal(c.Param("id"), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetGoalTasks 返回目标计划下的全部任务
func (a *API) GetGoalTasks(c *gin.Context) {
	// 计划与目标 1:1，planID 即 goalID
	tasks, err := a.tasks.ByPlan(c.Param("id"), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
