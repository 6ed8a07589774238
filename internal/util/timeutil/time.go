// Package timeutil 提供时间相关的工具函数。
// 主要用于回测中的日期归属判断和窗口切分。
package timeutil

import (
	"time"
)

// DateOf 获取时间所属的日历日期（UTC，截断到零点）
// 参数 t: 任意时间点
// 返回: 该时间点所属的日期
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay 判断两个时间点是否属于同一日历日期（UTC）
// 用于单日亏损/交易次数计数器的跨日重置判断
// 参数 a, b: 待比较的两个时间点
// 返回: 是否同日
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// AddDays 在时间点上增加整数天
// 参数 t: 起始时间
// 参数 days: 天数（可为负）
// 返回: 偏移后的时间
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// DaysBetween 计算两个时间点之间的完整天数
// 参数 start, end: 起止时间
// 返回: 天数（end 早于 start 时为负）
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

// BarsPerDay 估算单日 K 线根数
// 参数 interval: K 线周期
// 返回: 每天的 K 线根数（interval 非正时返回 0）
func BarsPerDay(interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	return int(24 * time.Hour / interval)
}
