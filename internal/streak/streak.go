package streak

import (
	"strings"
	"time"
)

// DateLayout 是打卡日期字符串的统一格式。
const DateLayout = "2006-01-02"

// Length 计算以 ref 为参照日的连续打卡天数。
// 锚点规则：若 ref 当天在集合中则以当天为锚点；否则若前一天在集合中则以前一天为锚点；
// 两者都不在时连续天数为 0。从锚点起逐日向前回溯，遇到第一个缺失日即停止。
// 纯函数，无副作用；ref 可以是任意历史日期，回填引擎依赖这一点重放历史连续天数。
func Length(dates []string, ref time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d != "" {
			set[d] = struct{}{}
		}
	}

	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	if _, ok := set[day.Format(DateLayout)]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := set[day.Format(DateLayout)]; !ok {
			return 0
		}
	}

	count := 0
	for {
		if _, ok := set[day.Format(DateLayout)]; !ok {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}

	return count
}
