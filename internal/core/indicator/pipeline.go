// Package indicator 实现技术指标计算管线。
// 所有指标在回测开始前对整个 K 线序列一次性批量计算，
// 结果写入每根 K 线的指标表，预热期内的值为 NaN。
package indicator

import (
	"fmt"
	"math"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
)

// 指标名称常量，策略和状态分类器通过这些键读取指标值
const (
	// NameEMAFast 快速指数均线
	NameEMAFast = "ema_fast"
	// NameEMAMid 中速指数均线
	NameEMAMid = "ema_mid"
	// NameEMASlow 慢速指数均线
	NameEMASlow = "ema_slow"
	// NameBBUpper 布林带上轨
	NameBBUpper = "bb_upper"
	// NameBBMiddle 布林带中轨
	NameBBMiddle = "bb_middle"
	// NameBBLower 布林带下轨
	NameBBLower = "bb_lower"
	// NameATR 平均真实波幅
	NameATR = "atr"
	// NameVolumeMA 成交量均线
	NameVolumeMA = "volume_ma"
)

// Pipeline 指标计算管线
// 按配置对 K 线序列批量计算所有指标
type Pipeline struct {
	// cfg 指标参数配置
	cfg config.IndicatorsConfig
}

// NewPipeline 创建指标计算管线
// 参数 cfg: 指标参数配置
func NewPipeline(cfg config.IndicatorsConfig) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Apply 对 K 线序列计算全部指标并写入指标表
// 参数 bars: K 线序列（按时间升序）
// 返回: 产出的指标名称列表
func (p *Pipeline) Apply(bars []model.Bar) ([]string, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: K 线序列为空，无法计算指标", model.ErrData)
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
		volumes[i] = bars[i].Volume
	}

	attach := func(name string, values []float64) {
		for i := range bars {
			bars[i].SetIndicator(name, values[i])
		}
	}

	periods := p.cfg.EMA.Periods
	attach(NameEMAFast, EMA(closes, periods[0]))
	attach(NameEMAMid, EMA(closes, periods[1]))
	attach(NameEMASlow, EMA(closes, periods[2]))

	upper, middle, lower := Bollinger(closes, p.cfg.Bollinger.Period, p.cfg.Bollinger.StdDev)
	attach(NameBBUpper, upper)
	attach(NameBBMiddle, middle)
	attach(NameBBLower, lower)

	atr, err := ATR(bars, p.cfg.ATR.Period, p.cfg.ATR.Method)
	if err != nil {
		return nil, err
	}
	attach(NameATR, atr)

	var volMA []float64
	switch p.cfg.VolumeMA.Type {
	case "ema":
		volMA = EMA(volumes, p.cfg.VolumeMA.Period)
	default:
		volMA = SMA(volumes, p.cfg.VolumeMA.Period)
	}
	attach(NameVolumeMA, volMA)

	return []string{
		NameEMAFast, NameEMAMid, NameEMASlow,
		NameBBUpper, NameBBMiddle, NameBBLower,
		NameATR, NameVolumeMA,
	}, nil
}

// EMA 计算指数移动平均
// 平滑系数 alpha = 2/(period+1)，以首个值作为种子，无 NaN 预热段。
// 参数 values: 输入序列
// 参数 period: 周期
// 返回: 与输入等长的 EMA 序列
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA 计算简单移动平均
// 前 period-1 个位置为 NaN。
// 参数 values: 输入序列
// 参数 period: 周期
// 返回: 与输入等长的 SMA 序列
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// Bollinger 计算布林带
// 中轨为 SMA，上下轨为中轨 ± k 倍滚动样本标准差（ddof=1）。
// 前 period-1 个位置为 NaN。
// 参数 values: 输入序列
// 参数 period: 周期
// 参数 stdDev: 标准差倍数
// 返回: 上轨、中轨、下轨三条序列
func Bollinger(values []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	n := len(values)
	upper = make([]float64, n)
	middle = SMA(values, period)
	lower = make([]float64, n)
	for i := range upper {
		upper[i] = math.NaN()
		lower[i] = math.NaN()
	}
	if period <= 1 || n < period {
		return upper, middle, lower
	}

	for i := period - 1; i < n; i++ {
		mean := middle[i]
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period-1))
		upper[i] = mean + stdDev*sd
		lower[i] = mean - stdDev*sd
	}
	return upper, middle, lower
}

// ATR 计算平均真实波幅
// 真实波幅 TR = max(high-low, |high-prevClose|, |low-prevClose|)，首根取 high-low。
// 平滑方法:
//   - wilder: 第 period 根取前 period 根 TR 的均值做种子，之后按 alpha=1/period 递推
//   - ema:    对 TR 序列做标准 EMA（alpha=2/(period+1)）
//   - sma:    对 TR 序列做滚动均值
//
// 参数 bars: K 线序列
// 参数 period: 周期
// 参数 method: 平滑方法
// 返回: 与输入等长的 ATR 序列，未知方法返回 ErrData 类别错误
func ATR(bars []model.Bar, period int, method string) ([]float64, error) {
	n := len(bars)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := bars[i].High - bars[i].Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	switch method {
	case "wilder":
		out := make([]float64, n)
		for i := range out {
			out[i] = math.NaN()
		}
		if n < period || period <= 0 {
			return out, nil
		}
		var sum float64
		for i := 0; i < period; i++ {
			sum += tr[i]
		}
		out[period-1] = sum / float64(period)
		alpha := 1.0 / float64(period)
		for i := period; i < n; i++ {
			out[i] = alpha*tr[i] + (1-alpha)*out[i-1]
		}
		return out, nil
	case "ema":
		return EMA(tr, period), nil
	case "sma":
		return SMA(tr, period), nil
	default:
		return nil, fmt.Errorf("%w: 未知的 ATR 平滑方法 '%s'，有效值: wilder, ema, sma", model.ErrData, method)
	}
}
