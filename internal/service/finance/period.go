// Package finance 提供分成计算与财务汇总服务
package finance

import (
	"fmt"
	"sort"
	"time"
)

// monthNames 月份简称，下标 0-11
var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// CalendarDate 截取日历日期，按 UTC 零点表示，忽略原时区偏移
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthKey 月份键 YYYY-MM
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// MonthLabel 月份展示名，如 "Mar 2024"
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %04d", monthNames[int(t.Month())-1], t.Year())
}

// MonthBucket 月份桶
type MonthBucket struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
}

func newMonthBucket(t time.Time) MonthBucket {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return MonthBucket{Key: MonthKey(first), Label: MonthLabel(first), Start: first}
}

// Window 统计时间窗口，零值表示不限时间
type Window struct {
	Start   time.Time
	End     time.Time
	Buckets []MonthBucket
}

// AllTime 不限时间的窗口
func AllTime() Window {
	return Window{}
}

// MonthWindow 最近 N 个月：从 N-1 个月前的 1 号开始，到 now 结束，共 N 个月桶
func MonthWindow(now time.Time, months int) Window {
	if months < 1 {
		months = 1
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := first.AddDate(0, -(months - 1), 0)

	buckets := make([]MonthBucket, 0, months)
	for i := 0; i < months; i++ {
		buckets = append(buckets, newMonthBucket(start.AddDate(0, i, 0)))
	}
	return Window{Start: start, End: now, Buckets: buckets}
}

// RangeWindow 指定起止日期（含）的窗口，月桶覆盖起止所在月份
func RangeWindow(start, end time.Time) Window {
	if end.Before(start) {
		start, end = end, start
	}
	return Window{Start: start, End: end, Buckets: monthsBetween(start, end)}
}

// IsAllTime 是否不限时间
func (w Window) IsAllTime() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains 按日历日期判断是否落在窗口内（首尾均包含）
func (w Window) Contains(t time.Time) bool {
	d := CalendarDate(t)
	if !w.Start.IsZero() && d.Before(CalendarDate(w.Start)) {
		return false
	}
	if !w.End.IsZero() && d.After(CalendarDate(w.End)) {
		return false
	}
	return true
}

// MonthLabels 窗口内月份标签
func (w Window) MonthLabels() []string {
	labels := make([]string, 0, len(w.Buckets))
	for _, b := range w.Buckets {
		labels = append(labels, b.Label)
	}
	return labels
}

// bucketsFor 返回窗口月桶；不限时间的窗口按数据覆盖的月份补齐
func (w Window) bucketsFor(dates []time.Time) []MonthBucket {
	if len(w.Buckets) > 0 {
		return w.Buckets
	}
	if len(dates) == 0 {
		return []MonthBucket{}
	}
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return monthsBetween(sorted[0], sorted[len(sorted)-1])
}

func monthsBetween(start, end time.Time) []MonthBucket {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, start.Location())

	var buckets []MonthBucket
	for !cur.After(last) {
		buckets = append(buckets, newMonthBucket(cur))
		cur = cur.AddDate(0, 1, 0)
	}
	return buckets
}
