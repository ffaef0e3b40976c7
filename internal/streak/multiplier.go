package streak

import "math"

// Polarity 表示习惯的奖惩方向。
type Polarity string

const (
	// PolarityPositive 积极习惯，坚持会获得连续奖励。
	PolarityPositive Polarity = "positive"
	// PolarityNegative 消极习惯，记录扣分，不享受连续奖励。
	PolarityNegative Polarity = "negative"
)

// 连续奖励阈值：3 天起 1.5 倍，7 天起 2 倍。
const (
	tier1Days = 3
	tier2Days = 7

	tier1Multiplier = 1.5
	tier2Multiplier = 2.0

	favorableBonus = 1.0
)

// Multiplier 根据连续天数、习惯方向与环境加成标记计算倍率。
// 只有积极习惯享受连续奖励；环境加成在任何倍率之上再加 1.0（加法叠加，非乘法）。
func Multiplier(streakDays int, polarity Polarity, favorable bool) float64 {
	m := 1.0

	if polarity == PolarityPositive {
		switch {
		case streakDays >= tier2Days:
			m = tier2Multiplier
		case streakDays >= tier1Days:
			m = tier1Multiplier
		}
	}

	if favorable {
		m += favorableBonus
	}

	return m
}

// Points 统一的积分换算：floor(base × multiplier)。
// NaN/Inf 一律折算为 0，避免非法数值进入存储层。
func Points(base int, multiplier float64) int {
	raw := float64(base) * multiplier
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return int(math.Floor(raw))
}
