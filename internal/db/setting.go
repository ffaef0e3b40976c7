package db

import "gorm.io/gorm"

// HouseholdSetting 存储家庭级可配置键值对。
type HouseholdSetting struct {
	gorm.Model
	HouseholdID uint   `gorm:"index:idx_household_setting,unique"`
	Key         string `gorm:"size:100;index:idx_household_setting,unique;not null"`
	Value       string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (HouseholdSetting) TableName() string {
	return "household_settings"
}

const (
	// SettingKeyFavorableCondition 环境加成开关，由外部协作方（如天气服务）维护，默认关闭。
	SettingKeyFavorableCondition = "favorable_condition"
	// SettingKeyHouseholdName 表示家庭展示名称。
	SettingKeyHouseholdName = "household_name"
)
