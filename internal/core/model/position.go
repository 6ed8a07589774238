// Package model 定义回测内核中使用的核心数据结构。
package model

import (
	"time"
)

// Direction 仓位方向
type Direction string

const (
	// DirectionLong 多头
	DirectionLong Direction = "long"
	// DirectionShort 空头
	DirectionShort Direction = "short"
)

// PositionMeta 仓位的固定元数据
// 进场时记录，供平仓后的分析使用；字段集合固定，不使用开放式键值映射。
type PositionMeta struct {
	// EntryIndex 进场时的 K 线索引，用于计算持仓 K 线数
	EntryIndex int
	// EntryVolume 进场时的成交量
	EntryVolume float64
	// EntryVolumeMA 进场时的成交量均线值
	EntryVolumeMA float64
	// PartialExitDone 是否已执行过部分离场
	PartialExitDone bool
}

// Position 持仓
// 由仓位管理器独占持有；平仓时转换为一条 Trade 记录。
type Position struct {
	// ID 仓位唯一标识
	ID string
	// Direction 仓位方向: long 或 short
	Direction Direction
	// EntryPrice 进场成交价
	EntryPrice float64
	// EntryTime 进场时间
	EntryTime time.Time
	// Quantity 数量
	Quantity float64
	// StopLoss 止损价（可变，由移动止损策略更新）
	StopLoss float64
	// RegimeAtEntry 进场时的市场状态
	RegimeAtEntry Regime
	// Meta 进场元数据
	Meta PositionMeta
}

// IsLong 判断是否为多头仓位
func (p *Position) IsLong() bool {
	return p.Direction == DirectionLong
}

// IsShort 判断是否为空头仓位
func (p *Position) IsShort() bool {
	return p.Direction == DirectionShort
}

// Sign 获取方向系数
// 多头返回 1，空头返回 -1
func (p *Position) Sign() float64 {
	if p.Direction == DirectionLong {
		return 1
	}
	return -1
}

// UnrealizedPnL 计算以当前价格衡量的未实现盈亏
// 多头: (price - entry) × qty；空头取镜像。
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity * p.Sign()
}

// StopHit 判断当前价格是否触发硬止损
// 多头: price ≤ stop；空头: price ≥ stop。止损为 0 视为未设置。
func (p *Position) StopHit(price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Direction == DirectionLong {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

// Trade 已完成交易的不可变记录
// 平仓时创建并追加到交易台账，之后不再修改。
type Trade struct {
	// EntryTime 进场时间
	EntryTime time.Time `json:"entry_time"`
	// ExitTime 离场时间
	ExitTime time.Time `json:"exit_time"`
	// Direction 仓位方向
	Direction Direction `json:"direction"`
	// EntryPrice 进场成交价
	EntryPrice float64 `json:"entry_price"`
	// ExitPrice 离场成交价
	ExitPrice float64 `json:"exit_price"`
	// Quantity 数量
	Quantity float64 `json:"quantity"`
	// PnL 已实现盈亏（扣除手续费和滑点后）
	PnL float64 `json:"pnl"`
	// Commission 离场手续费
	Commission float64 `json:"commission"`
	// Slippage 离场滑点（每单位价格）
	Slippage float64 `json:"slippage"`
	// ReturnPct 收益率（PnL / 进场成本）
	ReturnPct float64 `json:"return_pct"`
	// Duration 持仓时长
	Duration time.Duration `json:"duration_ns"`
}

// IsWin 判断是否盈利
func (t *Trade) IsWin() bool {
	return t.PnL > 0
}

// EquityPoint 资产曲线采样点
type EquityPoint struct {
	// Timestamp 采样时间
	Timestamp time.Time `json:"timestamp"`
	// Equity 总资产（现金 + 未实现盈亏）
	Equity float64 `json:"equity"`
	// Cash 现金
	Cash float64 `json:"cash"`
	// UnrealizedPnL 未实现盈亏
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}
