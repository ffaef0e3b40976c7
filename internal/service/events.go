package service

import "sync"

// PointsChanged 在积分变动提交成功后广播，仅用于 UI 反馈，不参与正确性。
type PointsChanged struct {
	HouseholdID uint
	HabitID     uint
	MemberID    uint
	Delta       int
	Multiplier  float64
}

// EventBus 维护 PointsChanged 的订阅者列表。
// 订阅者在提交后同步回调，回调内不要做耗时操作。
type EventBus struct {
	mu   sync.RWMutex
	subs []func(PointsChanged)
}

// Events 是全局事件总线，外围应用通过它订阅积分变动。
var Events = &EventBus{}

// Subscribe 注册一个订阅者。
func (b *EventBus) Subscribe(fn func(PointsChanged)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *EventBus) publish(ev PointsChanged) {
	b.mu.RLock()
	subs := make([]func(PointsChanged), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
