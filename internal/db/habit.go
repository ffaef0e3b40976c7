package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	// ScoringThreshold 阈值计分：只有跨越目标次数时才产生积分
	ScoringThreshold = "threshold"
	// ScoringIncremental 增量计分：每次打卡都产生积分
	ScoringIncremental = "incremental"

	// PeriodDaily 按天累计当期次数
	PeriodDaily = "daily"
	// PeriodWeekly 按周累计当期次数
	PeriodWeekly = "weekly"
)

// DateList 以 JSON 数组形式落库的打卡日期集合，保持升序存储。
type DateList []string

// Value 实现 driver.Valuer，序列化为 JSON 文本。
func (d DateList) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(d))
	if err != nil {
		return nil, fmt.Errorf("marshal date list: %w", err)
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner，兼容 text/blob 两种存储。
func (d *DateList) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported date list type %T", value)
	}

	if len(data) == 0 {
		*d = nil
		return nil
	}

	return json.Unmarshal(data, (*[]string)(d))
}

// Habit 定义了习惯模型
// Polarity 区分奖励/惩罚方向，ScoringType 区分阈值/增量计分
// Count 为当期累计次数，按 Period 在跨期时懒惰清零；TotalCount 为终身累计
// CompletedDates 为已完成日期集合；StreakDays 是由它派生的缓存值，
// 只能由引擎重算写入，任何入口都不接受外部传入的 StreakDays
// Revision 用于乐观并发控制，保证同一习惯的状态变更串行生效
type Habit struct {
	gorm.Model
	HouseholdID           uint `gorm:"index"`
	Title                 string
	Category              string
	Notes                 string `gorm:"type:text"`
	Polarity              string
	ScoringType           string
	Period                string
	BasePoints            int
	TargetCount           int
	Count                 int
	TotalCount            int
	CompletedDates        DateList `gorm:"type:text"`
	StreakDays            int
	FavorableCondition    bool
	LastUpdated           time.Time
	HasSubmissionTracking bool
	Revision              int64
}

// EffectiveTarget 返回判定“当日完成”所需的次数，至少为 1。
func (h Habit) EffectiveTarget() int {
	if h.TargetCount > 1 {
		return h.TargetCount
	}
	return 1
}
