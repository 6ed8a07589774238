// Package portfolio 实现现金与资产的簿记。
// 负责开平仓的现金流、已实现盈亏计算、单日统计和资产曲线采样。
package portfolio

import (
	"time"

	"go.uber.org/zap"

	"regime-trend-backtester/internal/core/model"
	"regime-trend-backtester/internal/util/timeutil"
)

// DailyStat 单日统计
type DailyStat struct {
	// Date 日期（UTC 零点）
	Date time.Time `json:"date"`
	// PnL 当日已实现盈亏
	PnL float64 `json:"pnl"`
	// Trades 当日交易次数
	Trades int `json:"trades"`
	// Equity 当日结束时的总资产
	Equity float64 `json:"equity"`
}

// Portfolio 组合簿记
// 由单个回测引擎实例独占持有，不做并发保护。
// 不变量: equity = cash + 未实现盈亏。
type Portfolio struct {
	// initialCapital 初始资金
	initialCapital float64
	// currency 计价货币
	currency string
	// cash 现金
	cash float64
	// equity 总资产
	equity float64

	// trades 交易台账（平仓时追加，只增不改）
	trades []model.Trade
	// equityCurve 资产曲线采样点
	equityCurve []model.EquityPoint
	// dailyStats 单日统计
	dailyStats []DailyStat

	// currentDate 当前日历日期（零值表示尚未开始）
	currentDate time.Time
	// dailyPnL 当日已实现盈亏
	dailyPnL float64
	// dailyTrades 当日交易次数
	dailyTrades int

	// log 日志记录器
	log *zap.Logger
}

// New 创建组合簿记
// 参数 initialCapital: 初始资金
// 参数 currency: 计价货币
func New(initialCapital float64, currency string, log *zap.Logger) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		currency:       currency,
		cash:           initialCapital,
		equity:         initialCapital,
		log:            log,
	}
}

// OpenPosition 开仓入账
// 现金减少 成交价 × 数量 + 手续费。
func (p *Portfolio) OpenPosition(pos *model.Position, fillPrice, commission float64) {
	cost := fillPrice*pos.Quantity + commission
	p.cash -= cost

	p.log.Debug("开仓",
		zap.String("direction", string(pos.Direction)),
		zap.Float64("quantity", pos.Quantity),
		zap.Float64("fill_price", fillPrice),
		zap.Float64("cost", cost))
}

// ClosePosition 平仓入账并生成交易记录
// 盈亏 = 方向符号 × (离场价 - 进场价) × 数量 - 手续费 - 滑点 × 数量。
// 多头现金回收 离场价 × 数量 - 手续费；空头回收 进场价 × 数量 + 盈亏。
// 参数 pos: 被平的持仓
// 参数 exitPrice: 含滑点的离场成交价
// 参数 commission: 离场手续费
// 参数 slippage: 离场滑点（每单位价格）
// 参数 ts: 离场时间
// 返回: 交易记录
func (p *Portfolio) ClosePosition(pos *model.Position, exitPrice, commission, slippage float64, ts time.Time) model.Trade {
	pnl := (exitPrice - pos.EntryPrice) * pos.Quantity * pos.Sign()
	pnl -= commission
	pnl -= slippage * pos.Quantity

	entryCost := pos.EntryPrice * pos.Quantity
	returnPct := 0.0
	if entryCost > 0 {
		returnPct = pnl / entryCost
	}

	trade := model.Trade{
		EntryTime:  pos.EntryTime,
		ExitTime:   ts,
		Direction:  pos.Direction,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		Commission: commission,
		Slippage:   slippage,
		ReturnPct:  returnPct,
		Duration:   ts.Sub(pos.EntryTime),
	}

	if pos.IsLong() {
		p.cash += exitPrice*pos.Quantity - commission
	} else {
		p.cash += pos.EntryPrice*pos.Quantity + pnl
	}

	p.trades = append(p.trades, trade)
	p.dailyPnL += pnl
	p.dailyTrades++

	p.log.Debug("平仓",
		zap.String("direction", string(pos.Direction)),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("pnl", pnl),
		zap.Float64("return_pct", returnPct))

	return trade
}

// UpdateEquity 更新总资产并按需采样资产曲线
// 日历日期变化时归档前一日统计并重置单日计数器。
// 参数 pos: 当前持仓（nil 表示空仓）
// 参数 price: 当前价格
// 参数 ts: 当前时间
// 参数 record: 是否记录资产曲线采样点
func (p *Portfolio) UpdateEquity(pos *model.Position, price float64, ts time.Time, record bool) {
	unrealized := 0.0
	if pos != nil {
		unrealized = pos.UnrealizedPnL(price)
	}
	p.equity = p.cash + unrealized

	// 跨日重置
	if p.currentDate.IsZero() {
		p.currentDate = ts
	} else if !timeutil.SameDay(p.currentDate, ts) {
		p.dailyStats = append(p.dailyStats, DailyStat{
			Date:   timeutil.DateOf(p.currentDate),
			PnL:    p.dailyPnL,
			Trades: p.dailyTrades,
			Equity: p.equity,
		})
		p.currentDate = ts
		p.dailyPnL = 0
		p.dailyTrades = 0
	}

	if record {
		pt := model.EquityPoint{
			Timestamp:     ts,
			Equity:        p.equity,
			Cash:          p.cash,
			UnrealizedPnL: unrealized,
		}
		// 同一时间戳重复采样时覆盖前一个点，曲线时间戳保持严格递增
		if n := len(p.equityCurve); n > 0 && p.equityCurve[n-1].Timestamp.Equal(ts) {
			p.equityCurve[n-1] = pt
		} else {
			p.equityCurve = append(p.equityCurve, pt)
		}
	}
}

// Equity 当前总资产
func (p *Portfolio) Equity() float64 { return p.equity }

// Cash 当前现金
func (p *Portfolio) Cash() float64 { return p.cash }

// InitialCapital 初始资金
func (p *Portfolio) InitialCapital() float64 { return p.initialCapital }

// Currency 计价货币
func (p *Portfolio) Currency() string { return p.currency }

// DailyPnL 当日已实现盈亏
func (p *Portfolio) DailyPnL() float64 { return p.dailyPnL }

// DailyTrades 当日交易次数
func (p *Portfolio) DailyTrades() int { return p.dailyTrades }

// TotalReturn 总收益率
func (p *Portfolio) TotalReturn() float64 {
	return (p.equity - p.initialCapital) / p.initialCapital
}

// Trades 交易台账
func (p *Portfolio) Trades() []model.Trade { return p.trades }

// EquityCurve 资产曲线
func (p *Portfolio) EquityCurve() []model.EquityPoint { return p.equityCurve }

// DailyStats 单日统计
func (p *Portfolio) DailyStats() []DailyStat { return p.dailyStats }
