package db

import (
	"time"

	"gorm.io/gorm"
)

// BackfillKeyPrefix 回填条目的确定性主键前缀。
const BackfillKeyPrefix = "backfill_"

// HabitSubmission 记录一次计分事件，写入后不可变
// HabitID + SubmissionKey 采用唯一索引：回填条目使用 backfill_<date> 的确定性键，
// 重复回填落在同一行上（幂等覆盖）；实时条目使用 uuid 键
type HabitSubmission struct {
	gorm.Model
	HabitID           uint   `gorm:"index;index:idx_submission_unique,unique"`
	SubmissionKey     string `gorm:"size:64;index:idx_submission_unique,unique"`
	Date              string `gorm:"size:10;index"`
	Timestamp         time.Time
	Count             int
	PointsEarned      int
	StreakDaysAtTime  int
	MultiplierApplied float64
	CreatedBy         string
}

// TableName 重写确保唯一索引作用到 habit_id + submission_key
func (HabitSubmission) TableName() string {
	return "habit_submissions"
}

// BackfillKey 返回某个历史日期对应的确定性回填键。
func BackfillKey(date string) string {
	return BackfillKeyPrefix + date
}
