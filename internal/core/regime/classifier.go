// Package regime 实现市场状态分类器。
// 基于三条指数均线的排列关系将每根 K 线标记为 bull/bear/sideways，
// 并通过两级噪声过滤抑制单根 K 线造成的状态抖动。
package regime

import (
	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/indicator"
	"regime-trend-backtester/internal/core/model"
)

// Classifier 市场状态分类器
type Classifier struct {
	// minSeparationPct 相邻均线的最小分离度（百分比）
	minSeparationPct float64
	// minBars 最小维持窗口
	minBars int
	// confirmationBars 确认窗口
	confirmationBars int
}

// NewClassifier 创建市场状态分类器
// 参数 cfg: 状态分类配置
func NewClassifier(cfg config.RegimeConfig) *Classifier {
	return &Classifier{
		minSeparationPct: cfg.MinSeparationPct,
		minBars:          cfg.Transition.MinBars,
		confirmationBars: cfg.Transition.ConfirmationBars,
	}
}

// Classify 对整个 K 线序列做状态分类
// 先逐根计算原始状态，再依次通过最小维持和确认两级过滤。
// 两级过滤均为单次前向遍历，整体 O(n)。
// 参数 bars: 含均线指标的 K 线序列
// 返回: 与输入等长的状态序列
func (c *Classifier) Classify(bars []model.Bar) []model.Regime {
	raw := make([]model.Regime, len(bars))
	for i := range bars {
		raw[i] = c.classifyBar(&bars[i])
	}
	held := holdFilter(raw, c.minBars)
	return holdFilter(held, c.confirmationBars)
}

// classifyBar 单根 K 线的原始状态
// Bull: fast > mid > slow 且两对相邻均线的分离度均 >= 阈值；Bear 为镜像条件。
// 均线缺失（预热期）或条件不满足时为 Sideways。
func (c *Classifier) classifyBar(bar *model.Bar) model.Regime {
	fast, okF := bar.Indicator(indicator.NameEMAFast)
	mid, okM := bar.Indicator(indicator.NameEMAMid)
	slow, okS := bar.Indicator(indicator.NameEMASlow)
	if !okF || !okM || !okS {
		return model.RegimeSideways
	}

	switch {
	case fast > mid && mid > slow &&
		separationPct(fast, mid) >= c.minSeparationPct &&
		separationPct(mid, slow) >= c.minSeparationPct:
		return model.RegimeBull
	case fast < mid && mid < slow &&
		separationPct(mid, fast) >= c.minSeparationPct &&
		separationPct(slow, mid) >= c.minSeparationPct:
		return model.RegimeBear
	default:
		return model.RegimeSideways
	}
}

// separationPct 计算两条均线的百分比分离度 (a-b)/b*100
// 分母为 0 时按 1 处理，避免除零
func separationPct(a, b float64) float64 {
	denom := b
	if denom == 0 {
		denom = 1
	}
	return (a - b) / denom * 100
}

// holdFilter 状态序列的维持过滤（单次前向遍历）
// 只有当一个新值连续出现 window 根后才被接受为当前输出，
// 否则沿用上一个已接受的输出值。window <= 1 时原样返回。
func holdFilter(values []model.Regime, window int) []model.Regime {
	out := make([]model.Regime, len(values))
	if len(values) == 0 {
		return out
	}
	if window <= 1 {
		copy(out, values)
		return out
	}

	accepted := values[0]
	run := 1
	out[0] = accepted
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1] {
			run++
		} else {
			run = 1
		}
		if values[i] != accepted && run >= window {
			accepted = values[i]
		}
		out[i] = accepted
	}
	return out
}
