package service

import "errors"

var (
	// ErrGoalNotFound 在指定目标不存在时返回
	ErrGoalNotFound = errors.New("goal not found")
	// ErrPlanNotFound 在指定计划不存在时返回
	ErrPlanNotFound = errors.New("plan not found")
	// ErrTaskNotFound 在指定任务不存在时返回
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden 表示实体存在但归属不匹配，绝不静默改写归属
	ErrForbidden = errors.New("entity does not belong to user")
	// ErrInvalidPostponeDays 表示顺延天数小于 1
	ErrInvalidPostponeDays = errors.New("postpone days must be at least 1")
	// ErrInvalidDomain 表示目标领域取值非法
	ErrInvalidDomain = errors.New("invalid goal domain")
	// ErrEmailTaken 表示注册邮箱已存在
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 表示登录凭证错误
	ErrInvalidCredentials = errors.New("invalid credentials")
)
