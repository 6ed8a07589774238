// Package model 定义回测内核中使用的核心数据结构。
// 包含 K 线、信号、仓位、成交记录等核心类型。
package model

import (
	"fmt"
	"math"
	"time"
)

// Bar 单根 K 线（OHLCV）
// 由数据源产生后不可变；指标值由指标流水线在回测开始前一次性写入。
type Bar struct {
	// Timestamp K 线时间戳（该周期的起始时间）
	Timestamp time.Time
	// Open 开盘价
	Open float64
	// High 最高价
	High float64
	// Low 最低价
	Low float64
	// Close 收盘价
	Close float64
	// Volume 成交量
	Volume float64
	// Indicators 指标名 → 指标值
	// 预热期内尚未定义的指标值为 NaN
	Indicators map[string]float64
}

// Indicator 读取指定名称的指标值
// 返回值: (值, 是否存在且非 NaN)
func (b *Bar) Indicator(name string) (float64, bool) {
	v, ok := b.Indicators[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// SetIndicator 写入指标值（仅供指标流水线在回测开始前调用）
func (b *Bar) SetIndicator(name string, v float64) {
	if b.Indicators == nil {
		b.Indicators = make(map[string]float64, 8)
	}
	b.Indicators[name] = v
}

// ValidateSeries 校验 K 线序列的时间戳约束
// 约束: 严格升序且无重复时间戳。
// 违反约束返回 ErrData 类别错误。
func ValidateSeries(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Timestamp, bars[i].Timestamp
		if cur.Equal(prev) {
			return fmt.Errorf("%w: 第 %d 根 K 线时间戳重复: %s", ErrData, i, cur.Format(time.RFC3339))
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w: 第 %d 根 K 线时间戳乱序: %s < %s", ErrData, i,
				cur.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
	}
	return nil
}

// RequireIndicators 校验每根 K 线都包含策略声明的必需指标列
// 缺失返回 ErrData 类别错误；NaN 值允许（预热期）。
func RequireIndicators(bars []Bar, names []string) error {
	if len(names) == 0 {
		return nil
	}
	for i := range bars {
		for _, name := range names {
			if _, ok := bars[i].Indicators[name]; !ok {
				return fmt.Errorf("%w: 第 %d 根 K 线缺少必需指标列 %q", ErrData, i, name)
			}
		}
	}
	return nil
}
