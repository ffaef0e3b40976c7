package service

import "testing"

func TestEventBusFanOut(t *testing.T) {
	bus := &EventBus{}

	var first, second []PointsChanged
	bus.Subscribe(func(ev PointsChanged) { first = append(first, ev) })
	bus.Subscribe(func(ev PointsChanged) { second = append(second, ev) })
	bus.Subscribe(nil) // 忽略空订阅者

	bus.publish(PointsChanged{HabitID: 1, Delta: 20, Multiplier: 2.0})

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected both subscribers notified, got %d/%d", len(first), len(second))
	}
	if first[0].Delta != 20 || first[0].Multiplier != 2.0 {
		t.Fatalf("unexpected event %+v", first[0])
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := &EventBus{}
	// 没有订阅者时发布不应 panic
	bus.publish(PointsChanged{HabitID: 1, Delta: 5})
}
