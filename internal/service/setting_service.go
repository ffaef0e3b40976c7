package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hearthpoints/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingService 负责家庭级键值配置的读写。
// 环境加成标记（favorable_condition）由外部协作方维护，引擎只读取，默认关闭。
type SettingService struct {
	db *gorm.DB
}

// NewSettingService 构造 SettingService
func NewSettingService(gdb *gorm.DB) *SettingService {
	return &SettingService{db: gdb}
}

// Get 读取某个家庭的配置项，不存在时返回空串。
func (s *SettingService) Get(householdID uint, key string) (string, error) {
	var setting db.HouseholdSetting
	err := s.db.Where("household_id = ? AND key = ?", householdID, key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("get household setting: %w", err)
	}
	return setting.Value, nil
}

// Set 写入配置项，存在即更新。
func (s *SettingService) Set(householdID uint, key, value string) error {
	setting := db.HouseholdSetting{
		HouseholdID: householdID,
		Key:         strings.TrimSpace(key),
		Value:       value,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "household_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("set household setting: %w", err)
	}
	return nil
}

// FavorableCondition 返回家庭当前的环境加成开关。
// 解析失败或未配置都视为关闭——历史实现里这个开关被硬编码为常开，是缺陷而非设计。
func (s *SettingService) FavorableCondition(householdID uint) bool {
	value, err := s.Get(householdID, db.SettingKeyFavorableCondition)
	if err != nil {
		return false
	}

	enabled, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return enabled
}
