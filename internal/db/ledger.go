package db

import "gorm.io/gorm"

// AggregateMemberID 家庭汇总行使用的成员占位 ID。
const AggregateMemberID uint = 0

// PointsLedger 保存家庭/成员层级的积分累计
// MemberID 为 0 的行是家庭汇总行；Daily/Weekly 随 DayKey/WeekKey 跨期归零，Total 永不重置
// 三个计数器只允许通过单条 SQL 的原子自增语句修改，禁止读改写
type PointsLedger struct {
	gorm.Model
	HouseholdID uint `gorm:"index:idx_ledger_owner,unique"`
	MemberID    uint `gorm:"index:idx_ledger_owner,unique"`
	Daily       int
	Weekly      int
	Total       int
	DayKey      string `gorm:"size:10"`
	WeekKey     string `gorm:"size:10"`
}

// TableName 自定义表名以保持命名一致。
func (PointsLedger) TableName() string {
	return "points_ledgers"
}

// LedgerSnapshot 每日落盘一份账本快照，用于历史趋势展示
// 由定时任务写入，只增不改，不参与引擎正确性
type LedgerSnapshot struct {
	gorm.Model
	HouseholdID uint   `gorm:"index:idx_snapshot_unique,unique"`
	MemberID    uint   `gorm:"index:idx_snapshot_unique,unique"`
	Date        string `gorm:"size:10;index:idx_snapshot_unique,unique"`
	Daily       int
	Weekly      int
	Total       int
}
