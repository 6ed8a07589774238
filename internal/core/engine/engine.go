// Package engine 实现回测主循环。
// 引擎按固定顺序逐根 K 线驱动状态机: 资产更新 → 风险闸门 →
// 离场判定（止损最先）→ 移动止损 → 进场判定 → 仓位规模 → 订单执行。
// 单个引擎实例独占全部可变状态，多个实例可并行运行互不影响。
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/execution"
	"regime-trend-backtester/internal/core/indicator"
	"regime-trend-backtester/internal/core/model"
	"regime-trend-backtester/internal/core/portfolio"
	"regime-trend-backtester/internal/core/position"
	"regime-trend-backtester/internal/core/risk"
	"regime-trend-backtester/internal/core/strategy"
)

// progressBatch 进度回调的批次大小
const progressBatch = 5000

// ProgressFunc 进度回调
// 参数为已处理根数和总根数；由引擎构造方显式注入，引擎不依赖任何全局状态。
type ProgressFunc func(current, total int)

// Result 回测结果
// 仅在运行完整结束后返回，失败时不产出部分结果。
type Result struct {
	// RunID 本次运行的唯一标识
	RunID string `json:"run_id"`
	// StrategyName 策略名称
	StrategyName string `json:"strategy_name"`
	// InitialCapital 初始资金
	InitialCapital float64 `json:"initial_capital"`
	// FinalEquity 最终总资产
	FinalEquity float64 `json:"final_equity"`
	// TotalReturn 总收益率
	TotalReturn float64 `json:"total_return"`
	// BarsProcessed 已处理的 K 线根数（不含预热期）
	BarsProcessed int `json:"bars_processed"`
	// Trades 交易台账
	Trades []model.Trade `json:"trades"`
	// EquityCurve 资产曲线
	EquityCurve []model.EquityPoint `json:"equity_curve"`
	// DailyStats 单日统计
	DailyStats []portfolio.DailyStat `json:"daily_stats"`
}

// Engine 回测引擎
type Engine struct {
	cfg       *config.Config
	strat     strategy.Strategy
	riskMgr   *risk.Manager
	executor  *execution.Executor
	positions *position.Manager
	book      *portfolio.Portfolio
	log       *zap.Logger
	progress  ProgressFunc
}

// Option 引擎可选参数
type Option func(*Engine)

// WithProgress 注入进度回调
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// New 创建回测引擎
// 参数 cfg: 完整配置
// 参数 strat: 已构造的策略实例
// 参数 log: 日志记录器
func New(cfg *config.Config, strat strategy.Strategy, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		strat:     strat,
		riskMgr:   risk.NewManager(cfg.Risk, log),
		executor:  execution.NewExecutor(cfg.Execution, log),
		positions: position.NewManager(cfg.Risk.Portfolio.MaxOpenPositions, log),
		book:      portfolio.New(cfg.Engine.InitialCapital, cfg.Engine.Currency, log),
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 执行回测
// 运行前校验（配置、数据、指标列）失败即中止，不产出部分结果；
// 单根 K 线的处理 panic 被捕获并按无动作处理，不会中断整个回测。
// 参数 bars: K 线序列（按时间升序）
func (e *Engine) Run(bars []model.Bar) (*Result, error) {
	if err := model.ValidateSeries(bars); err != nil {
		return nil, err
	}

	warmup := e.cfg.Warmup.Bars
	if warmup >= len(bars) {
		return nil, fmt.Errorf("%w: 预热期 %d 根不小于数据长度 %d 根", model.ErrConfig, warmup, len(bars))
	}

	e.log.Info("回测开始",
		zap.String("strategy", e.strat.Name()),
		zap.Int("bars", len(bars)),
		zap.Int("warmup", warmup))

	// 指标与市场状态在循环前一次性批量计算
	names, err := e.strat.CalculateIndicators(bars)
	if err != nil {
		return nil, err
	}
	if err := model.RequireIndicators(bars, names); err != nil {
		return nil, err
	}
	regimes := e.strat.DetectRegime(bars)

	total := len(bars) - warmup
	for idx := warmup; idx < len(bars); idx++ {
		e.processBarSafe(bars, regimes, idx)

		if e.progress != nil {
			done := idx - warmup + 1
			if done%progressBatch == 0 || done == total {
				e.progress(done, total)
			}
		}
	}

	// 数据结束时的持仓处理（显式配置项）
	// 最后一根才进场的持仓不强平，否则会产生零持续时间的交易；
	// 强平后刷新资产，同一时间戳的采样点由簿记层覆盖而非追加。
	last := len(bars) - 1
	if e.cfg.Engine.CloseAtEnd && e.positions.Has() {
		pos := e.positions.First()
		if pos.EntryTime.Before(bars[last].Timestamp) {
			e.closePosition(pos, bars[last].Close, bars[last].Volume, bars[last].Timestamp)
			e.book.UpdateEquity(nil, bars[last].Close, bars[last].Timestamp, true)
		}
	}

	result := &Result{
		RunID:          uuid.New().String(),
		StrategyName:   e.strat.Name(),
		InitialCapital: e.book.InitialCapital(),
		FinalEquity:    e.book.Equity(),
		TotalReturn:    e.book.TotalReturn(),
		BarsProcessed:  total,
		Trades:         e.book.Trades(),
		EquityCurve:    e.book.EquityCurve(),
		DailyStats:     e.book.DailyStats(),
	}

	e.log.Info("回测完成",
		zap.String("run_id", result.RunID),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_equity", result.FinalEquity),
		zap.Float64("total_return", result.TotalReturn))

	return result, nil
}

// processBarSafe 带 panic 保护的单根处理
// 单根 K 线的评估失败只记录日志，不中断多年跨度的回测。
func (e *Engine) processBarSafe(bars []model.Bar, regimes []model.Regime, idx int) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("单根 K 线处理异常，按无动作处理",
				zap.Int("index", idx),
				zap.Any("panic", r))
		}
	}()
	e.processBar(bars, regimes, idx)
}

// processBar 单根 K 线的状态机
func (e *Engine) processBar(bars []model.Bar, regimes []model.Regime, idx int) {
	bar := &bars[idx]
	price := bar.Close
	ts := bar.Timestamp

	// 1. 资产更新（稀疏采样: 有持仓、整步长或最后一根）
	record := e.positions.Has() ||
		idx%e.cfg.Engine.EquitySampleStride == 0 ||
		idx == len(bars)-1
	e.book.UpdateEquity(e.positions.First(), price, ts, record)

	// 2. 风险闸门: 拒绝时强制平仓并跳过本根后续动作
	if !e.riskMgr.CheckPortfolioRisk(
		e.book.Equity(),
		e.book.InitialCapital(),
		e.book.DailyPnL(),
		e.book.DailyTrades(),
	) {
		if pos := e.positions.First(); pos != nil {
			e.closePosition(pos, price, bar.Volume, ts)
		}
		return
	}

	pos := e.positions.First()

	// 3. 持仓中: 止损最先，其后策略离场信号，否则更新移动止损
	if pos != nil {
		if pos.StopHit(price) {
			e.closePosition(pos, price, bar.Volume, ts)
			return
		}

		sig := e.strat.GenerateExitSignal(bars, regimes, idx, pos)
		if sig.IsExit() {
			e.closePosition(pos, price, bar.Volume, ts)
			return
		}

		newStop := e.strat.UpdateStopLoss(bars, idx, pos)
		e.positions.UpdateStopLoss(pos, newStop)
		return
	}

	// 4. 空仓: 进场信号 → 仓位规模 → 订单执行 → 开仓
	sig := e.strat.GenerateEntrySignal(bars, regimes, idx, nil)
	if sig.IsEntry() {
		e.openPosition(bars, idx, sig)
	}
}

// openPosition 开仓流程
func (e *Engine) openPosition(bars []model.Bar, idx int, sig model.Signal) {
	bar := &bars[idx]
	dir := model.DirectionLong
	side := execution.SideBuy
	if sig.Kind == model.SignalShortEntry {
		dir = model.DirectionShort
		side = execution.SideSell
	}

	// 止损缺失时按现价传入，risk_pct 等方法将放弃进场
	stopForSizing := sig.StopLoss
	if stopForSizing == 0 {
		stopForSizing = bar.Close
	}

	size := e.riskMgr.PositionSize(e.book.Equity(), bar.Close, stopForSizing, dir)
	if size <= 0 {
		return
	}

	fill, err := e.executor.Execute(execution.Order{
		Symbol:    e.cfg.App.Name,
		Side:      side,
		Quantity:  size,
		Type:      execution.OrderMarket,
		Timestamp: bar.Timestamp,
	}, bar.Close, bar.Volume)
	if err != nil {
		// 订单级失败对该次进场是致命的，但不中断回测
		e.log.Error("进场订单执行失败", zap.Error(err))
		return
	}

	volMA, _ := bar.Indicator(indicator.NameVolumeMA)
	pos := &model.Position{
		ID:            uuid.New().String(),
		Direction:     dir,
		EntryPrice:    fill.Price,
		EntryTime:     bar.Timestamp,
		Quantity:      size,
		StopLoss:      sig.StopLoss,
		RegimeAtEntry: sig.Regime,
		Meta: model.PositionMeta{
			EntryIndex:    idx,
			EntryVolume:   bar.Volume,
			EntryVolumeMA: volMA,
		},
	}

	if !e.positions.Add(pos) {
		return
	}
	e.book.OpenPosition(pos, fill.Price, fill.Commission)
}

// closePosition 平仓流程
func (e *Engine) closePosition(pos *model.Position, price, volume float64, ts time.Time) {
	side := execution.SideSell
	if pos.IsShort() {
		side = execution.SideBuy
	}

	fill, err := e.executor.Execute(execution.Order{
		Symbol:    e.cfg.App.Name,
		Side:      side,
		Quantity:  pos.Quantity,
		Type:      execution.OrderMarket,
		Timestamp: ts,
	}, price, volume)
	if err != nil {
		e.log.Error("离场订单执行失败", zap.Error(err))
		return
	}

	trade := e.book.ClosePosition(pos, fill.Price, fill.Commission, fill.Slippage, ts)
	e.positions.Remove(pos.ID)
	e.riskMgr.RecordTrade(trade.PnL)
}
