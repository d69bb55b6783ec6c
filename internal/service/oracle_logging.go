package service

import (
	"log"
	"strings"
	"unicode/utf8"
)

// 单条日志里 prompt/response 片段的最大长度（按 rune 计）。
const oracleLogSnippetLimit = 1024

// logOracleExchange 记录一次模型交互，kind 为调用场景（CLASSIFY / PLAN），
// phase 为 prompt / response / error / validation。
func logOracleExchange(kind, phase, content string) {
	snippet := strings.TrimSpace(content)
	if snippet == "" {
		log.Printf("[oracle:%s] %s: <empty>", kind, phase)
		return
	}

	total := utf8.RuneCountInString(snippet)
	if total > oracleLogSnippetLimit {
		snippet = string([]rune(snippet)[:oracleLogSnippetLimit]) + "…"
	}
	log.Printf("[oracle:%s] %s (%d runes): %s", kind, phase, total, snippet)
}
