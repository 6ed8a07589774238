// Package walkforward 实现 Walk-Forward 样本内/样本外窗口分析。
// 数据按日历天数切分为一系列 (样本内, 样本外) 窗口，每个窗口
// 各启动一个独立的回测引擎实例；窗口之间无共享可变状态，并发执行。
package walkforward

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/engine"
	"regime-trend-backtester/internal/core/model"
	"regime-trend-backtester/internal/core/strategy"
	"regime-trend-backtester/internal/util/timeutil"
)

// Window 单个分析窗口的时间边界
// 样本内为 [InSampleStart, InSampleEnd)，样本外为 [OutSampleStart, OutSampleEnd)。
type Window struct {
	// Index 窗口序号（从 0 起）
	Index int `json:"index"`
	// InSampleStart 样本内起始时间
	InSampleStart time.Time `json:"in_sample_start"`
	// InSampleEnd 样本内结束时间
	InSampleEnd time.Time `json:"in_sample_end"`
	// OutSampleStart 样本外起始时间
	OutSampleStart time.Time `json:"out_sample_start"`
	// OutSampleEnd 样本外结束时间
	OutSampleEnd time.Time `json:"out_sample_end"`
}

// WindowResult 单个窗口的两次回测结果
type WindowResult struct {
	Window `json:"window"`
	// InSample 样本内回测结果
	InSample *engine.Result `json:"in_sample"`
	// OutSample 样本外回测结果
	OutSample *engine.Result `json:"out_sample"`
}

// Summary 跨窗口汇总
type Summary struct {
	// Periods 窗口数量
	Periods int `json:"periods"`
	// AvgInSampleReturn 样本内平均收益率
	AvgInSampleReturn float64 `json:"avg_in_sample_return"`
	// AvgOutSampleReturn 样本外平均收益率
	AvgOutSampleReturn float64 `json:"avg_out_sample_return"`
	// InSampleReturns 各窗口样本内收益率
	InSampleReturns []float64 `json:"in_sample_returns"`
	// OutSampleReturns 各窗口样本外收益率
	OutSampleReturns []float64 `json:"out_sample_returns"`
}

// Report Walk-Forward 分析报告
type Report struct {
	// Windows 各窗口结果（按序号排列）
	Windows []WindowResult `json:"windows"`
	// Summary 汇总统计
	Summary Summary `json:"summary"`
}

// Analyzer Walk-Forward 分析器
type Analyzer struct {
	cfg *config.Config
	log *zap.Logger
}

// NewAnalyzer 创建分析器
func NewAnalyzer(cfg *config.Config, log *zap.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, log: log}
}

// Analyze 执行 Walk-Forward 分析
// 窗口推进步长为样本外天数: 滚动模式整体平移，锚定模式固定
// 样本内起点、只延后终点。各窗口并发运行，任一窗口失败即整体失败。
func (a *Analyzer) Analyze(bars []model.Bar) (*Report, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: 无数据可供分析", model.ErrData)
	}
	windows := a.buildWindows(bars[0].Timestamp, bars[len(bars)-1].Timestamp)
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: 数据跨度不足以构成任何分析窗口 (in_sample=%d天, out_of_sample=%d天)",
			model.ErrData, a.cfg.WalkForward.InSampleDays, a.cfg.WalkForward.OutOfSampleDays)
	}

	a.log.Info("Walk-Forward 分析开始",
		zap.Int("windows", len(windows)),
		zap.Bool("anchored", a.cfg.WalkForward.Anchored),
	)

	results := make([]WindowResult, len(windows))
	errs := make([]error, len(windows))

	var wg sync.WaitGroup
	for i, w := range windows {
		wg.Add(1)
		go func(i int, w Window) {
			defer wg.Done()
			results[i], errs[i] = a.runWindow(bars, w)
		}(i, w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Windows: results, Summary: summarize(results)}
	a.log.Info("Walk-Forward 分析完成",
		zap.Int("periods", report.Summary.Periods),
		zap.Float64("avg_out_sample_return", report.Summary.AvgOutSampleReturn),
	)
	return report, nil
}

// buildWindows 依据数据时间跨度生成窗口序列
func (a *Analyzer) buildWindows(start, end time.Time) []Window {
	inDays := a.cfg.WalkForward.InSampleDays
	outDays := a.cfg.WalkForward.OutOfSampleDays
	anchored := a.cfg.WalkForward.Anchored

	var windows []Window
	inStart := start
	inEnd := timeutil.AddDays(start, inDays)
	for !inEnd.After(end) {
		outEnd := timeutil.AddDays(inEnd, outDays)
		if outEnd.After(end) {
			outEnd = end
		}
		if !outEnd.After(inEnd) {
			break
		}
		windows = append(windows, Window{
			Index:          len(windows),
			InSampleStart:  inStart,
			InSampleEnd:    inEnd,
			OutSampleStart: inEnd,
			OutSampleEnd:   outEnd,
		})
		inEnd = timeutil.AddDays(inEnd, outDays)
		if !anchored {
			inStart = timeutil.AddDays(inStart, outDays)
		}
	}
	return windows
}

// runWindow 对单个窗口执行样本内与样本外两次独立回测
func (a *Analyzer) runWindow(bars []model.Bar, w Window) (WindowResult, error) {
	inBars := sliceByTime(bars, w.InSampleStart, w.InSampleEnd)
	outBars := sliceByTime(bars, w.OutSampleStart, w.OutSampleEnd)

	inResult, err := a.runOnce(inBars)
	if err != nil {
		return WindowResult{}, fmt.Errorf("窗口 %d 样本内回测失败: %w", w.Index, err)
	}
	outResult, err := a.runOnce(outBars)
	if err != nil {
		return WindowResult{}, fmt.Errorf("窗口 %d 样本外回测失败: %w", w.Index, err)
	}

	a.log.Debug("窗口回测完成",
		zap.Int("index", w.Index),
		zap.Float64("in_sample_return", inResult.TotalReturn),
		zap.Float64("out_sample_return", outResult.TotalReturn),
	)
	return WindowResult{Window: w, InSample: inResult, OutSample: outResult}, nil
}

// runOnce 以独立的策略与引擎实例执行一次回测
func (a *Analyzer) runOnce(bars []model.Bar) (*engine.Result, error) {
	strat, err := strategy.New(a.cfg.Strategy.Name, &a.cfg.Strategy, a.log)
	if err != nil {
		return nil, err
	}
	return engine.New(a.cfg, strat, a.log).Run(bars)
}

// sliceByTime 复制 [start, end) 区间内的 K 线
// 指标映射置空，避免并发窗口通过共享 Bar 写入同一映射。
func sliceByTime(bars []model.Bar, start, end time.Time) []model.Bar {
	lo := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(end)
	})
	out := make([]model.Bar, hi-lo)
	copy(out, bars[lo:hi])
	for i := range out {
		out[i].Indicators = nil
	}
	return out
}

// summarize 汇总各窗口收益率
func summarize(results []WindowResult) Summary {
	s := Summary{
		Periods:          len(results),
		InSampleReturns:  make([]float64, 0, len(results)),
		OutSampleReturns: make([]float64, 0, len(results)),
	}
	for _, r := range results {
		s.InSampleReturns = append(s.InSampleReturns, r.InSample.TotalReturn)
		s.OutSampleReturns = append(s.OutSampleReturns, r.OutSample.TotalReturn)
		s.AvgInSampleReturn += r.InSample.TotalReturn
		s.AvgOutSampleReturn += r.OutSample.TotalReturn
	}
	if s.Periods > 0 {
		s.AvgInSampleReturn /= float64(s.Periods)
		s.AvgOutSampleReturn /= float64(s.Periods)
	}
	return s
}
