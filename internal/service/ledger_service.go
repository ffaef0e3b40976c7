package service

import (
	"fmt"
	"time"

	"github.com/hearthpoints/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService 负责家庭/成员积分账本的读取与累加。
// 三个计数器只能通过单条 SQL 自增语句修改：并发打卡的增量满足交换律，
// 任意顺序求和结果一致，因此禁止任何读改写路径。
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService 构造 LedgerService
func NewLedgerService(gdb *gorm.DB) *LedgerService {
	return &LedgerService{db: gdb}
}

// applyDelta 在给定事务中为成员行与家庭汇总行同时累加 daily/weekly/total。
// daily/weekly 的跨期清零与自增合并在同一条 CASE 语句里完成，
// 期键一致时自增，不一致时以本次增量重置，total 永不重置。
func (s *LedgerService) applyDelta(tx *gorm.DB, householdID, memberID uint, delta int, now time.Time) error {
	dk := dayKey(now)
	wk := weekKey(now)

	for _, target := range ledgerTargets(memberID) {
		if err := s.ensureRow(tx, householdID, target, dk, wk); err != nil {
			return err
		}

		err := tx.Model(&db.PointsLedger{}).
			Where("household_id = ? AND member_id = ?", householdID, target).
			Updates(map[string]interface{}{
				"daily":    gorm.Expr("CASE WHEN day_key = ? THEN daily + ? ELSE ? END", dk, delta, delta),
				"day_key":  dk,
				"weekly":   gorm.Expr("CASE WHEN week_key = ? THEN weekly + ? ELSE ? END", wk, delta, delta),
				"week_key": wk,
				"total":    gorm.Expr("total + ?", delta),
			}).Error
		if err != nil {
			return fmt.Errorf("apply ledger delta: %w", err)
		}
	}

	return nil
}

// applyTotalOnly 只累加终身积分，用于回填与历史日期补正：
// 历史积分不属于当期活动，不应污染 daily/weekly 滚动窗口。
func (s *LedgerService) applyTotalOnly(tx *gorm.DB, householdID, memberID uint, delta int, now time.Time) error {
	dk := dayKey(now)
	wk := weekKey(now)

	for _, target := range ledgerTargets(memberID) {
		if err := s.ensureRow(tx, householdID, target, dk, wk); err != nil {
			return err
		}

		err := tx.Model(&db.PointsLedger{}).
			Where("household_id = ? AND member_id = ?", householdID, target).
			Update("total", gorm.Expr("total + ?", delta)).Error
		if err != nil {
			return fmt.Errorf("apply lifetime delta: %w", err)
		}
	}

	return nil
}

// ledgerTargets 返回一次增量要落到的账本行：成员行 + 家庭汇总行。
func ledgerTargets(memberID uint) []uint {
	if memberID == db.AggregateMemberID {
		return []uint{db.AggregateMemberID}
	}
	return []uint{memberID, db.AggregateMemberID}
}

func (s *LedgerService) ensureRow(tx *gorm.DB, householdID, memberID uint, dk, wk string) error {
	row := db.PointsLedger{HouseholdID: householdID, MemberID: memberID, DayKey: dk, WeekKey: wk}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "household_id"}, {Name: "member_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("ensure ledger row: %w", err)
	}
	return nil
}

// Get 返回某个账本行，期键过期时把对应窗口呈现为 0（懒惰跨期，读时修正视图，不写库）。
func (s *LedgerService) Get(householdID, memberID uint) (*db.PointsLedger, error) {
	return s.getAt(householdID, memberID, time.Now())
}

func (s *LedgerService) getAt(householdID, memberID uint, now time.Time) (*db.PointsLedger, error) {
	var row db.PointsLedger
	err := s.db.Where("household_id = ? AND member_id = ?", householdID, memberID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &db.PointsLedger{HouseholdID: householdID, MemberID: memberID, DayKey: dayKey(now), WeekKey: weekKey(now)}, nil
		}
		return nil, classifyStoreError(err)
	}

	if row.DayKey != dayKey(now) {
		row.Daily = 0
	}
	if row.WeekKey != weekKey(now) {
		row.Weekly = 0
	}
	return &row, nil
}

// SnapshotAll 为所有账本行落一份当日快照，供历史趋势展示。
// 同一天重复执行会覆盖当日快照，不会产生重复行。
func (s *LedgerService) SnapshotAll(now time.Time) (int, error) {
	var rows []db.PointsLedger
	if err := s.db.Find(&rows).Error; err != nil {
		return 0, classifyStoreError(err)
	}

	date := dayKey(now)
	written := 0
	for _, row := range rows {
		daily := row.Daily
		if row.DayKey != date {
			daily = 0
		}
		weekly := row.Weekly
		if row.WeekKey != weekKey(now) {
			weekly = 0
		}

		snap := db.LedgerSnapshot{
			HouseholdID: row.HouseholdID,
			MemberID:    row.MemberID,
			Date:        date,
			Daily:       daily,
			Weekly:      weekly,
			Total:       row.Total,
		}
		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "household_id"}, {Name: "member_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"daily", "weekly", "total", "updated_at"}),
		}).Create(&snap).Error
		if err != nil {
			return written, classifyStoreError(err)
		}
		written++
	}

	return written, nil
}

// Snapshots 返回某个账本行最近的历史快照，按日期倒序。
func (s *LedgerService) Snapshots(householdID, memberID uint, limit int) ([]db.LedgerSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	var snaps []db.LedgerSnapshot
	err := s.db.Where("household_id = ? AND member_id = ?", householdID, memberID).
		Order("date DESC").
		Limit(limit).
		Find(&snaps).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return snaps, nil
}
