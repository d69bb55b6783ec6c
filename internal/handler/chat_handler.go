package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/db"
)

type chatMessageRequest struct {
	Text   string `json:"text" binding:"required"`
	GoalID string `json:"goalId"`
}

// chatMessageView 在持久化消息之上附带净化后的 HTML 渲染。
type chatMessageView struct {
	db.ChatMessage
	TextHTML string `json:"textHtml,omitempty"`
}

// PostChatMessage 接收一条用户消息，返回助手回复（含副作用序列）
func (a *API) PostChatMessage(c *gin.Context) {
	var req chatMessageRequest
	if !bindJSON(c, &req, "text is required") {
		return
	}

	msg, err := a.chats.Process(c.Request.Context(), req.Text, currentUserID(c), strings.TrimSpace(req.GoalID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChatView(*msg))
}

// GetChatHistory 返回对话历史，按时间正序
func (a *API) GetChatHistory(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := a.chats.History(currentUserID(c), strings.TrimSpace(c.Query("goalId")), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	views := make([]chatMessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, toChatView(msg))
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

func toChatView(msg db.ChatMessage) chatMessageView {
	view := chatMessageView{ChatMessage: msg}
	if msg.Role == db.ChatRoleAssistant {
		view.TextHTML = renderMarkdown(msg.Text)
	}
	return view
}
