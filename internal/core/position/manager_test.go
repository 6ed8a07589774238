// Package position 持仓管理器测试
package position

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"regime-trend-backtester/internal/core/model"
)

func posWithID(id string, dir model.Direction) *model.Position {
	return &model.Position{ID: id, Direction: dir, EntryPrice: 100, Quantity: 1}
}

func TestManager_AddAndCapacity(t *testing.T) {
	m := NewManager(1, zap.NewNop())

	if !m.Add(posWithID("a", model.DirectionLong)) {
		t.Fatalf("容量内添加应成功")
	}
	if m.Add(posWithID("b", model.DirectionShort)) {
		t.Fatalf("超出容量的添加应被拒绝")
	}
	if m.Count() != 1 {
		t.Fatalf("Count=%d, want 1", m.Count())
	}
	if m.First().ID != "a" {
		t.Fatalf("First().ID=%s, want a", m.First().ID)
	}
}

func TestManager_RemoveAndClear(t *testing.T) {
	m := NewManager(2, zap.NewNop())
	m.Add(posWithID("a", model.DirectionLong))
	m.Add(posWithID("b", model.DirectionShort))

	if !m.Remove("a") {
		t.Fatalf("移除存在的持仓应返回 true")
	}
	if m.Remove("a") {
		t.Fatalf("重复移除应返回 false")
	}
	if m.Count() != 1 || m.First().ID != "b" {
		t.Fatalf("移除后应只剩 b, Count=%d", m.Count())
	}

	m.Clear()
	if m.Has() {
		t.Fatalf("Clear 后不应有持仓")
	}
}

func TestManager_GetByDirection(t *testing.T) {
	m := NewManager(2, zap.NewNop())
	m.Add(posWithID("a", model.DirectionLong))

	if got := m.Get(model.DirectionLong); got == nil || got.ID != "a" {
		t.Fatalf("Get(long) 应返回持仓 a")
	}
	if got := m.Get(model.DirectionShort); got != nil {
		t.Fatalf("Get(short) 应返回 nil, 实际: %v", got)
	}
}

func TestManager_UpdateStopLoss(t *testing.T) {
	m := NewManager(1, zap.NewNop())
	pos := posWithID("a", model.DirectionLong)
	m.Add(pos)

	m.UpdateStopLoss(pos, 95)
	if m.First().StopLoss != 95 {
		t.Fatalf("StopLoss=%f, want 95", m.First().StopLoss)
	}
}

// TestManager_CapacityProperty 属性: 持仓数永不超过容量上限
func TestManager_CapacityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("持仓数不超过maxOpen", prop.ForAll(
		func(maxOpen int, attempts int) bool {
			m := NewManager(maxOpen, zap.NewNop())
			for i := 0; i < attempts; i++ {
				m.Add(posWithID(fmt.Sprintf("p%d", i), model.DirectionLong))
				if m.Count() > maxOpen {
					return false
				}
			}
			return m.Count() == min(maxOpen, attempts)
		},
		gen.IntRange(1, 5),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
