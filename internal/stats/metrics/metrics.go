// Package metrics 基于成交记录与资产曲线计算回测绩效指标。
package metrics

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"regime-trend-backtester/internal/core/model"
)

// DefaultPeriodsPerYear 1 分钟 K 线的年化周期数
const DefaultPeriodsPerYear = 525600

// PerformanceMetrics 回测绩效指标
type PerformanceMetrics struct {
	// TotalReturn 总收益率
	TotalReturn float64 `json:"total_return"`
	// AnnualizedReturn 年化收益率
	AnnualizedReturn float64 `json:"annualized_return"`

	// SharpeRatio 夏普比率（无风险利率取 0）
	SharpeRatio float64 `json:"sharpe_ratio"`
	// SortinoRatio 索提诺比率
	SortinoRatio float64 `json:"sortino_ratio"`
	// CalmarRatio 年化收益 / 最大回撤
	CalmarRatio float64 `json:"calmar_ratio"`

	// MaxDrawdown 最大回撤（正数比例）
	MaxDrawdown float64 `json:"max_drawdown"`
	// MaxDrawdownDuration 最大回撤持续采样点数
	MaxDrawdownDuration int `json:"max_drawdown_duration"`
	// AvgDrawdown 处于回撤状态时的平均回撤
	AvgDrawdown float64 `json:"avg_drawdown"`

	// TotalTrades 总交易数
	TotalTrades int `json:"total_trades"`
	// WinningTrades 盈利交易数
	WinningTrades int `json:"winning_trades"`
	// LosingTrades 亏损交易数（含持平）
	LosingTrades int `json:"losing_trades"`
	// WinRate 胜率
	WinRate float64 `json:"win_rate"`

	// GrossProfit 总盈利
	GrossProfit float64 `json:"gross_profit"`
	// GrossLoss 总亏损（正数）
	GrossLoss float64 `json:"gross_loss"`
	// ProfitFactor 盈亏比（无亏损且有盈利时为 +Inf）
	ProfitFactor float64 `json:"profit_factor"`
	// AvgWin 平均盈利
	AvgWin float64 `json:"avg_win"`
	// AvgLoss 平均亏损（正数）
	AvgLoss float64 `json:"avg_loss"`
	// LargestWin 最大单笔盈利
	LargestWin float64 `json:"largest_win"`
	// LargestLoss 最大单笔亏损
	LargestLoss float64 `json:"largest_loss"`

	// Expectancy 单笔交易期望值
	Expectancy float64 `json:"expectancy"`

	// AvgTradeDuration 平均持仓时长
	AvgTradeDuration time.Duration `json:"avg_trade_duration_ns"`
	// ExposureTime 持仓时间占比
	ExposureTime float64 `json:"exposure_time"`

	// FinalEquity 最终权益
	FinalEquity float64 `json:"final_equity"`
}

// Calculate 计算全量绩效指标
// trades 为空时返回零值指标（FinalEquity 仍取曲线末值）。
// periodsPerYear 为资产曲线采样周期对应的年化周期数，<=0 时取 DefaultPeriodsPerYear。
func Calculate(trades []model.Trade, curve []model.EquityPoint, initialCapital float64, periodsPerYear int) PerformanceMetrics {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	m := PerformanceMetrics{FinalEquity: initialCapital}
	if len(curve) > 0 {
		m.FinalEquity = curve[len(curve)-1].Equity
	}
	if len(trades) == 0 {
		return m
	}

	if initialCapital > 0 {
		m.TotalReturn = (m.FinalEquity - initialCapital) / initialCapital
	}
	if len(curve) > 0 {
		years := float64(len(curve)) / float64(periodsPerYear)
		if years > 0 {
			m.AnnualizedReturn = math.Pow(1+m.TotalReturn, 1/years) - 1
		}
	}

	dd := drawdownSeries(curve)
	m.MaxDrawdown = maxDrawdown(dd)
	m.MaxDrawdownDuration = maxDrawdownDuration(dd)
	m.AvgDrawdown = avgDrawdown(dd)

	m.TotalTrades = len(trades)
	var sumDuration time.Duration
	m.LargestWin = trades[0].PnL
	m.LargestLoss = trades[0].PnL
	for _, tr := range trades {
		if tr.IsWin() {
			m.WinningTrades++
			m.GrossProfit += tr.PnL
		} else {
			m.LosingTrades++
			m.GrossLoss += -tr.PnL
		}
		m.LargestWin = math.Max(m.LargestWin, tr.PnL)
		m.LargestLoss = math.Min(m.LargestLoss, tr.PnL)
		sumDuration += tr.Duration
	}
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	case m.GrossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	}
	if m.WinningTrades > 0 {
		m.AvgWin = m.GrossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = m.GrossLoss / float64(m.LosingTrades)
	}
	m.Expectancy = m.WinRate*m.AvgWin - (1-m.WinRate)*m.AvgLoss
	m.AvgTradeDuration = sumDuration / time.Duration(m.TotalTrades)

	if span := curveSpan(curve); span > 0 {
		m.ExposureTime = float64(sumDuration) / float64(span)
	}

	returns := pctChange(curve)
	m.SharpeRatio = sharpeRatio(returns, periodsPerYear)
	m.SortinoRatio = sortinoRatio(returns, periodsPerYear)
	if m.MaxDrawdown > 0 {
		m.CalmarRatio = m.AnnualizedReturn / m.MaxDrawdown
	}
	return m
}

// drawdownSeries 相对滚动峰值的回撤序列（<=0）
func drawdownSeries(curve []model.EquityPoint) []float64 {
	dd := make([]float64, len(curve))
	peak := math.Inf(-1)
	for i, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak != 0 {
			dd[i] = (p.Equity - peak) / peak
		}
	}
	return dd
}

func maxDrawdown(dd []float64) float64 {
	worst := 0.0
	for _, v := range dd {
		if v < worst {
			worst = v
		}
	}
	return math.Abs(worst)
}

// maxDrawdownDuration 估计最大回撤持续的采样点数
// 启发式: 回撤深于最深值 99% 视为处于最大回撤区间，
// 回升到最深值 50% 以内视为区间结束。
func maxDrawdownDuration(dd []float64) int {
	worst := 0.0
	for _, v := range dd {
		if v < worst {
			worst = v
		}
	}
	if worst >= 0 {
		return 0
	}

	start, end := -1, -1
	for i, v := range dd {
		if v <= worst*0.99 {
			if start < 0 {
				start = i
			}
			end = i
		} else if start >= 0 && v > worst*0.5 {
			break
		}
	}
	if start < 0 {
		return 0
	}
	return end - start
}

func avgDrawdown(dd []float64) float64 {
	var negative []float64
	for _, v := range dd {
		if v < 0 {
			negative = append(negative, v)
		}
	}
	if len(negative) == 0 {
		return 0
	}
	mean, err := stats.Mean(negative)
	if err != nil {
		return 0
	}
	return math.Abs(mean)
}

// pctChange 资产曲线逐点收益率
func pctChange(curve []model.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

func sharpeRatio(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	std, err := stats.StandardDeviationSample(returns)
	if err != nil || std == 0 {
		return 0
	}
	return math.Sqrt(float64(periodsPerYear)) * mean / std
}

func sortinoRatio(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	std, err := stats.StandardDeviationSample(downside)
	if err != nil || std == 0 {
		return 0
	}
	return math.Sqrt(float64(periodsPerYear)) * mean / std
}

func curveSpan(curve []model.EquityPoint) time.Duration {
	if len(curve) < 2 {
		return 0
	}
	return curve[len(curve)-1].Timestamp.Sub(curve[0].Timestamp)
}
