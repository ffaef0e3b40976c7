package service

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/streak"
	"github.com/hearthpoints/internal/telemetry"
	"gorm.io/gorm"
)

// Direction 表示一次打卡动作的方向。
type Direction string

const (
	// DirectionUp 完成一次
	DirectionUp Direction = "up"
	// DirectionDown 撤销一次
	DirectionDown Direction = "down"
)

// 乐观并发冲突时整个事务重试的次数上限。
const toggleRetryLimit = 3

// ScoreService 是打卡计分引擎：把一次 up/down 动作应用到习惯状态，
// 推导积分增量，并在同一个事务里完成习惯保存与账本累加。
type ScoreService struct {
	db     *gorm.DB
	ledger *LedgerService
	clock  func() time.Time
}

// NewScoreService 构造 ScoreService
func NewScoreService(gdb *gorm.DB) *ScoreService {
	return &ScoreService{
		db:     gdb,
		ledger: NewLedgerService(gdb),
		clock:  time.Now,
	}
}

// Toggle 对习惯执行一次 up/down 动作，返回更新后的习惯与积分增量。
// count 已为 0 时的 down 是本地空操作，不算失败；
// 习惯状态与账本增量是同一逻辑单元，提交失败时两者都不生效，可整体重试。
func (s *ScoreService) Toggle(habitID, memberID uint, direction Direction) (*db.Habit, int, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}

	var habit *db.Habit
	var delta int
	var multiplier float64
	var err error

	for attempt := 0; attempt < toggleRetryLimit; attempt++ {
		habit, delta, multiplier, err = s.toggleOnce(habitID, memberID, direction)
		if !errors.Is(err, errConflict) {
			break
		}
	}
	if errors.Is(err, errConflict) {
		err = &TransientError{Err: err}
	}
	if err != nil {
		telemetry.TogglesTotal.WithLabelValues(string(direction), "error").Inc()
		return nil, 0, err
	}

	telemetry.TogglesTotal.WithLabelValues(string(direction), "ok").Inc()
	if delta != 0 {
		telemetry.RecordLedgerDelta("toggle", delta)
		Events.publish(PointsChanged{
			HouseholdID: habit.HouseholdID,
			HabitID:     habit.ID,
			MemberID:    memberID,
			Delta:       delta,
			Multiplier:  multiplier,
		})
	}

	return habit, delta, nil
}

func (s *ScoreService) toggleOnce(habitID, memberID uint, direction Direction) (*db.Habit, int, float64, error) {
	now := s.clock()

	var result db.Habit
	var delta int
	var multiplier float64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var habit db.Habit
		if err := tx.First(&habit, habitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return classifyStoreError(err)
		}

		prevRevision := habit.Revision
		rolled := rolloverIfNeeded(&habit, now)

		// down 在 count=0 时是空操作；若刚好发生了跨期清零仍要落盘
		if direction == DirectionDown && habit.Count == 0 {
			if rolled {
				if err := s.saveHabit(tx, &habit, prevRevision); err != nil {
					return err
				}
			}
			result = habit
			delta = 0
			return nil
		}

		// 倍率取决于动作发生前已建立的连续天数，不包含本次动作
		preStreak := streak.Length(habit.CompletedDates, now)
		multiplier = streak.Multiplier(preStreak, streak.Polarity(habit.Polarity), habit.FavorableCondition)
		unit := streak.Points(habit.BasePoints, multiplier)

		target := habit.EffectiveTarget()
		completedBefore := habit.Count >= target

		if direction == DirectionUp {
			habit.Count++
			habit.TotalCount++
		} else {
			habit.Count--
			if habit.TotalCount > 0 {
				habit.TotalCount--
			}
		}

		completedAfter := habit.Count >= target
		today := dayKey(now)

		switch habit.ScoringType {
		case db.ScoringIncremental:
			// 增量计分：每个单位变化都产生积分
			if direction == DirectionUp {
				delta = unit
			} else {
				delta = -unit
			}
		default:
			// 阈值计分：只有跨越目标的那一次变化才产生积分
			switch {
			case !completedBefore && completedAfter:
				delta = unit
			case completedBefore && !completedAfter:
				// 撤销收回当日实际发放的数额。跨越目标可能让连续天数升档，
				// 按撤销时的倍率重算会多扣，有提交记录时以最近一条正向记录为准
				delta = -unit
				if habit.HasSubmissionTracking {
					var awarded db.HabitSubmission
					err := tx.Where("habit_id = ? AND date = ? AND points_earned > 0", habit.ID, today).
						Order("id DESC").First(&awarded).Error
					switch {
					case err == nil:
						delta = -awarded.PointsEarned
					case !errors.Is(err, gorm.ErrRecordNotFound):
						return classifyStoreError(err)
					}
				}
			default:
				delta = 0
			}
		}
		if completedAfter {
			habit.CompletedDates = addDate(habit.CompletedDates, today)
		} else {
			habit.CompletedDates = removeDate(habit.CompletedDates, today)
		}

		// 派生缓存：变更后的集合重算，绝不信任外部传入值
		habit.StreakDays = streak.Length(habit.CompletedDates, now)
		habit.LastUpdated = now

		if err := s.saveHabit(tx, &habit, prevRevision); err != nil {
			return err
		}

		if delta != 0 {
			if habit.HasSubmissionTracking {
				sub := db.HabitSubmission{
					HabitID:           habit.ID,
					SubmissionKey:     uuid.NewString(),
					Date:              today,
					Timestamp:         now,
					Count:             habit.Count,
					PointsEarned:      delta,
					StreakDaysAtTime:  preStreak,
					MultiplierApplied: multiplier,
					CreatedBy:         MemberRef(memberID),
				}
				if err := tx.Create(&sub).Error; err != nil {
					return classifyStoreError(err)
				}
			}

			if err := s.ledger.applyDelta(tx, habit.HouseholdID, memberID, delta, now); err != nil {
				return classifyStoreError(err)
			}
		}

		result = habit
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	return &result, delta, multiplier, nil
}

// saveHabit 以 revision 守卫落盘习惯状态：并发修改者只有一个能成功，
// 其余拿到 errConflict 并在事务外整体重试，避免两次并发 up 都读到同一个 count。
func (s *ScoreService) saveHabit(tx *gorm.DB, habit *db.Habit, prevRevision int64) error {
	habit.Revision = prevRevision + 1

	res := tx.Model(&db.Habit{}).
		Where("id = ? AND revision = ?", habit.ID, prevRevision).
		Updates(map[string]interface{}{
			"count":                   habit.Count,
			"total_count":             habit.TotalCount,
			"completed_dates":         habit.CompletedDates,
			"streak_days":             habit.StreakDays,
			"last_updated":            habit.LastUpdated,
			"has_submission_tracking": habit.HasSubmissionTracking,
			"revision":                habit.Revision,
		})
	if res.Error != nil {
		return classifyStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errConflict
	}
	return nil
}

// MemberRef 生成提交记录里的成员归属标识，memberID 为 0 表示家庭公共操作。
func MemberRef(memberID uint) string {
	return "member:" + strconv.FormatUint(uint64(memberID), 10)
}

func addDate(dates db.DateList, date string) db.DateList {
	for _, d := range dates {
		if d == date {
			return dates
		}
	}
	out := append(db.DateList{}, dates...)
	out = append(out, date)
	sort.Strings(out)
	return out
}

func removeDate(dates db.DateList, date string) db.DateList {
	out := make(db.DateList, 0, len(dates))
	for _, d := range dates {
		if d != date {
			out = append(out, d)
		}
	}
	return out
}
