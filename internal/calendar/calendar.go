// Package calendar 提供纯函数的日历换算：本地日界、UTC 日起点与滚动 7 天窗口。
// 不依赖存储与请求上下文，方便独立测试。
package calendar

import "time"

// ISOFormat 是任务 DueAt 的持久化格式（UTC，毫秒精度）。
const ISOFormat = "2006-01-02T15:04:05.000Z07:00"

// normalizedHourUTC 是越界任务被重排后的固定时刻（21:00 UTC）。
const normalizedHourUTC = 21

// ParseISO 解析 ISO-8601 时间戳。
func ParseISO(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// FormatISO 输出 UTC 的 ISO-8601 时间戳。
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOFormat)
}

// StartOfUTCDay 返回所在 UTC 日的零点。
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays 按整天数平移时间，保留原有的时分秒。
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// DayBounds 计算指定时区下 now 所在本地日历日的起止时刻（半开区间 [start, end)）。
// 返回的时刻携带该时区信息，可直接与任意 instant 比较。
func DayBounds(now time.Time, tz string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}

// Window 表示从参考日 UTC 零点起算的滚动 7 天窗口。
// 合法区间为 [Start, Start+7d)，即参考日加上其后 6 天的整天。
type Window struct {
	Start time.Time
}

// WeekWindow 以参考时刻构造窗口。
func WeekWindow(ref time.Time) Window {
	return Window{Start: StartOfUTCDay(ref)}
}

// Contains 判断时间是否落在窗口内。
func (w Window) Contains(t time.Time) bool {
	end := w.Start.AddDate(0, 0, 7)
	return !t.Before(w.Start) && t.Before(end)
}

// Normalize 校正单个任务的到期时间。
// 解析失败或越界时，按任务下标重排到 Start+(i mod 7) 天的 21:00 UTC；
// 取模而非截断，保证多条非法任务分散到一周而不是堆在同一天。
// 对已在窗口内的值原样返回，因此重复执行是无操作（幂等）。
func (w Window) Normalize(dueAt string, index int) string {
	due, err := ParseISO(dueAt)
	if err == nil && w.Contains(due) {
		return dueAt
	}

	slot := w.Start.AddDate(0, 0, index%7)
	return FormatISO(time.Date(slot.Year(), slot.Month(), slot.Day(), normalizedHourUTC, 0, 0, 0, time.UTC))
}

// NormalizeAll 对一组到期时间按原始顺序逐个校正，返回新切片。
func (w Window) NormalizeAll(dueAts []string) []string {
	out := make([]string, len(dueAts))
	for i, due := range dueAts {
		out[i] = w.Normalize(due, i)
	}
	return out
}
