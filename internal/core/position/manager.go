// Package position 实现持仓集合管理。
// 集合容量受最大同时持仓数限制；超出容量的添加被拒绝。
package position

import (
	"go.uber.org/zap"

	"regime-trend-backtester/internal/core/model"
)

// Manager 持仓管理器
// 由单个回测引擎实例独占持有，不做并发保护。
type Manager struct {
	// maxOpen 最大同时持仓数
	maxOpen int
	// positions 当前持仓列表
	positions []*model.Position
	// log 日志记录器
	log *zap.Logger
}

// NewManager 创建持仓管理器
// 参数 maxOpen: 最大同时持仓数
func NewManager(maxOpen int, log *zap.Logger) *Manager {
	return &Manager{
		maxOpen:   maxOpen,
		positions: make([]*model.Position, 0, maxOpen),
		log:       log,
	}
}

// Add 添加持仓
// 达到容量上限时拒绝并返回 false。
func (m *Manager) Add(pos *model.Position) bool {
	if len(m.positions) >= m.maxOpen {
		m.log.Warn("已达到最大持仓数，拒绝添加",
			zap.Int("max_open_positions", m.maxOpen))
		return false
	}
	m.positions = append(m.positions, pos)
	return true
}

// Remove 按 ID 移除持仓
// 返回: 是否找到并移除
func (m *Manager) Remove(id string) bool {
	for i, pos := range m.positions {
		if pos.ID == id {
			m.positions = append(m.positions[:i], m.positions[i+1:]...)
			return true
		}
	}
	return false
}

// First 获取第一个持仓
// 无持仓时返回 nil
func (m *Manager) First() *model.Position {
	if len(m.positions) == 0 {
		return nil
	}
	return m.positions[0]
}

// Get 按方向获取持仓
// 无匹配时返回 nil
func (m *Manager) Get(dir model.Direction) *model.Position {
	for _, pos := range m.positions {
		if pos.Direction == dir {
			return pos
		}
	}
	return nil
}

// Has 判断是否存在持仓
func (m *Manager) Has() bool {
	return len(m.positions) > 0
}

// Count 当前持仓数
func (m *Manager) Count() int {
	return len(m.positions)
}

// UpdateStopLoss 更新指定持仓的止损价
func (m *Manager) UpdateStopLoss(pos *model.Position, newStop float64) {
	for _, p := range m.positions {
		if p.ID == pos.ID {
			p.StopLoss = newStop
			m.log.Debug("更新止损价",
				zap.String("position_id", p.ID),
				zap.Float64("stop_loss", newStop))
			return
		}
	}
}

// Clear 清空所有持仓
func (m *Manager) Clear() {
	m.positions = m.positions[:0]
}

// All 返回当前持仓的副本列表
func (m *Manager) All() []*model.Position {
	out := make([]*model.Position, len(m.positions))
	copy(out, m.positions)
	return out
}
