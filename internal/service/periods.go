package service

import (
	"fmt"
	"time"

	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/streak"
)

func dayKey(t time.Time) string {
	return t.Format(streak.DateLayout)
}

// weekKey 采用 ISO 周编号，保证跨年周界一致。
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func periodKey(period string, t time.Time) string {
	if period == db.PeriodWeekly {
		return weekKey(t)
	}
	return dayKey(t)
}

// rolloverIfNeeded 在读取时检测跨期并清零当期计数。
// 只动 Count 与 LastUpdated，不碰 TotalCount、CompletedDates 与账本；
// 必须发生在任何消费 Count 的计分逻辑之前，否则上一期的脏计数会污染阈值判断。
func rolloverIfNeeded(h *db.Habit, now time.Time) bool {
	if periodKey(h.Period, h.LastUpdated) == periodKey(h.Period, now) {
		return false
	}
	h.Count = 0
	h.LastUpdated = now
	return true
}
