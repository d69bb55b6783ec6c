package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type postponeRequest struct {
	Days int `json:"days"`
}

// GetTasksToday 返回当前用户在本地日历日内到期的待执行任务。
// 时区取 ?tz= 参数，缺省用系统设置里的默认时区。
func (a *API) GetTasksToday(c *gin.Context) {
	tz := strings.TrimSpace(c.Query("tz"))
	if tz == "" {
		settings, err := a.system.GetSettings()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to load settings")
			return
		}
		tz = settings.DefaultTimezone
	}

	tasks, err := a.tasks.DueToday(currentUserID(c), time.Now(), tz)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid timezone")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// PostponeTask 把任务顺延 N 天（N ≥ 1）
func (a *API) PostponeTask(c *gin.Context) {
	var req postponeRequest
	if !bindJSON(c, &req, "days is required") {
		return
	}

	task, err := a.tasks.Postpone(c.Param("id"), currentUserID(c), req.Days)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CompleteTask 把任务标记为完成，幂等
func (a *API) CompleteTask(c *gin.Context) {
	task, err := a.tasks.Complete(c.Param("id"), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
