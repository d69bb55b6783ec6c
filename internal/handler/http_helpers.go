package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/service"
)

const sessionUserKey = "user_id"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// currentUserID 从会话里取当前用户；AuthRequired 保证了它必然存在。
func currentUserID(c *gin.Context) string {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionUserKey).(string); ok {
		return id
	}
	return ""
}

// respondServiceError 把服务层的哨兵错误映射为 HTTP 状态码。
// 归属不匹配永远是 403，不降级为 404。
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGoalNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidPostponeDays),
		errors.Is(err, service.ErrInvalidDomain),
		errors.Is(err, service.ErrEmailTaken):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
