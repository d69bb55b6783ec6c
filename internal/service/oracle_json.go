package service

import (
	"encoding/json"
	"strings"
)

// oracleJSONKind 区分模型输出归一化后的三种形态。
type oracleJSONKind int

const (
	// oracleParsed 表示拿到了一个可用的 JSON 对象。
	oracleParsed oracleJSONKind = iota
	// oracleRawText 表示输出是纯文本，无法解析为对象。
	oracleRawText
	// oracleFailed 表示调用本身失败（网络、配额、Key 缺失等）。
	oracleFailed
)

// oracleJSON 是模型输出的和类型：消费方必须按 Kind 分支处理，
// 不允许假设一定拿到结构化数据。
type oracleJSON struct {
	Kind   oracleJSONKind
	Object json.RawMessage
	Raw    string
	Err    error
}

func oracleError(err error) oracleJSON {
	return oracleJSON{Kind: oracleFailed, Err: err}
}

// decodeOracleJSON 把模型的自由文本归一化为 oracleJSON。
// 容忍三类常见噪声：
//   - ``` 或 ```json 围栏包裹；
//   - JSON 前后混入的闲聊文本（取第一个 '{' 到最后一个 '}'）；
//   - 外层 { "data": ... } 或 { "_raw": "..." } 包装。
func decodeOracleJSON(content string) oracleJSON {
	cleaned := stripCodeFences(content)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return oracleJSON{Kind: oracleRawText, Raw: content}
	}
	cleaned = cleaned[start : end+1]

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return oracleJSON{Kind: oracleRawText, Raw: content}
	}

	// 解开 { "data": {...} } 包装
	if inner, ok := probe["data"]; ok && len(probe) == 1 {
		var innerProbe map[string]json.RawMessage
		if err := json.Unmarshal(inner, &innerProbe); err == nil {
			return oracleJSON{Kind: oracleParsed, Object: inner}
		}
	}

	// 解开 { "_raw": "..." } 包装：内层字符串再走一次解析
	if inner, ok := probe["_raw"]; ok && len(probe) == 1 {
		var rawText string
		if err := json.Unmarshal(inner, &rawText); err == nil {
			return decodeOracleJSON(rawText)
		}
	}

	return oracleJSON{Kind: oracleParsed, Object: json.RawMessage(cleaned)}
}

func stripCodeFences(content string) string {
	cleaned := strings.TrimSpace(content)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	if newline := strings.Index(cleaned, "\n"); newline >= 0 {
		// 丢弃围栏首行的语言标记（json、JSON 等）
		head := strings.TrimSpace(cleaned[:newline])
		if len(head) <= 8 {
			cleaned = cleaned[newline+1:]
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
