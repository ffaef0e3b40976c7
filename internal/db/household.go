package db

import "gorm.io/gorm"

// Household 表示一个家庭，习惯与账本都归属于家庭。
type Household struct {
	gorm.Model
	Name string
}

// Member 表示家庭成员，仅用于归属标记，不承载任何凭据
// 认证是外围应用的职责，引擎只关心 createdBy 归属
type Member struct {
	gorm.Model
	HouseholdID uint `gorm:"index"`
	Name        string
}
