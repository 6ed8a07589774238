// Package model 定义回测内核中使用的核心数据结构。
package model

import (
	"time"
)

// Regime 市场趋势状态
type Regime string

const (
	// RegimeBull 多头趋势
	// 条件: fast > mid > slow 且两组间距均超过最小分离度
	RegimeBull Regime = "bull"
	// RegimeBear 空头趋势
	// Bull 的镜像条件
	RegimeBear Regime = "bear"
	// RegimeSideways 震荡
	// 不满足 Bull/Bear 条件时的默认状态
	RegimeSideways Regime = "sideways"
)

// SignalKind 信号类型
type SignalKind string

const (
	// SignalLongEntry 多头进场
	SignalLongEntry SignalKind = "long_entry"
	// SignalShortEntry 空头进场
	SignalShortEntry SignalKind = "short_entry"
	// SignalLongExit 多头离场
	SignalLongExit SignalKind = "long_exit"
	// SignalShortExit 空头离场
	SignalShortExit SignalKind = "short_exit"
	// SignalNoAction 无动作
	// 条件未触发或单根 K 线评估失败时的返回值
	SignalNoAction SignalKind = "no_action"
)

// Signal 策略信号
// 由信号生成器按 K 线产生，描述一个建议动作。
type Signal struct {
	// Kind 信号类型
	Kind SignalKind
	// Price 信号价格（当根 K 线收盘价）
	Price float64
	// Timestamp 信号时间（当根 K 线时间戳）
	Timestamp time.Time
	// Regime 信号产生时的市场状态
	Regime Regime
	// StopLoss 建议止损价（仅进场信号；0 表示未设置）
	StopLoss float64
}

// IsEntry 判断是否为进场信号
func (s *Signal) IsEntry() bool {
	return s.Kind == SignalLongEntry || s.Kind == SignalShortEntry
}

// IsExit 判断是否为离场信号
func (s *Signal) IsExit() bool {
	return s.Kind == SignalLongExit || s.Kind == SignalShortExit
}

// NoAction 构造无动作信号
func NoAction(price float64, ts time.Time, regime Regime) Signal {
	return Signal{Kind: SignalNoAction, Price: price, Timestamp: ts, Regime: regime}
}

// ExitKindFor 返回指定方向对应的离场信号类型
func ExitKindFor(dir Direction) SignalKind {
	if dir == DirectionLong {
		return SignalLongExit
	}
	return SignalShortExit
}
