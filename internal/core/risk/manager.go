// Package risk 实现组合级风险闸门和仓位规模策略。
// 风险闸门在每根 K 线开头检查回撤、单日亏损和单日交易次数限额；
// 仓位规模支持固定数量、风险百分比、Kelly 准则和波动率调整四种方法。
package risk

import (
	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
)

// historyCap 交易历史环形缓冲区容量
// 只保留最近的交易用于 Kelly 统计，限制内存占用。
const historyCap = 1000

// Manager 风险管理器
// 由单个回测引擎实例独占持有，不做并发保护。
type Manager struct {
	// cfg 风险配置
	cfg config.RiskConfig
	// log 日志记录器
	log *zap.Logger

	// history 已完成交易盈亏的环形缓冲区（Kelly 统计用）
	history [historyCap]float64
	// head 下一个写入位置
	head int
	// count 当前有效记录数
	count int
}

// NewManager 创建风险管理器
// 参数 cfg: 风险配置
// 参数 log: 日志记录器
func NewManager(cfg config.RiskConfig, log *zap.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// CheckPortfolioRisk 组合级风险检查
// 任一限额触发即返回 false，引擎收到 false 后强制平仓并停止新开仓。
// 参数 equity: 当前总资产
// 参数 initialCapital: 初始资金
// 参数 dailyPnL: 当日已实现盈亏
// 参数 dailyTrades: 当日交易次数
// 返回: 是否允许继续交易
func (m *Manager) CheckPortfolioRisk(equity, initialCapital, dailyPnL float64, dailyTrades int) bool {
	// 回撤限额（相对初始资金）
	drawdown := (initialCapital - equity) / initialCapital
	if drawdown >= m.cfg.Portfolio.MaxDrawdownLimit {
		m.log.Warn("触发最大回撤限额",
			zap.Float64("drawdown", drawdown),
			zap.Float64("limit", m.cfg.Portfolio.MaxDrawdownLimit))
		return false
	}

	// 单日亏损限额（仅当日为净亏损时计算）
	if dailyPnL < 0 {
		lossPct := -dailyPnL / initialCapital
		if lossPct >= m.cfg.Portfolio.DailyLossLimit {
			m.log.Warn("触发单日亏损限额",
				zap.Float64("loss_pct", lossPct),
				zap.Float64("limit", m.cfg.Portfolio.DailyLossLimit))
			return false
		}
	}

	// 单日交易次数限额
	if dailyTrades >= m.cfg.Portfolio.MaxDailyTrades {
		m.log.Warn("触发单日交易次数限额",
			zap.Int("daily_trades", dailyTrades),
			zap.Int("limit", m.cfg.Portfolio.MaxDailyTrades))
		return false
	}

	return true
}

// PositionSize 计算进场数量
// 按配置的方法计算；未知方法记录警告并回退到固定数量。
// 参数 equity: 当前总资产
// 参数 entryPrice: 进场价格
// 参数 stopLoss: 止损价格
// 参数 dir: 仓位方向
// 返回: 进场数量（可能为 0，表示放弃本次进场）
func (m *Manager) PositionSize(equity, entryPrice, stopLoss float64, dir model.Direction) float64 {
	switch m.cfg.PositionSizing.Method {
	case "fixed":
		return m.fixedSize()
	case "risk_pct":
		return m.riskPctSize(equity, entryPrice, stopLoss, dir)
	case "kelly":
		return m.kellySize(equity, entryPrice, stopLoss, dir)
	case "volatility_adjusted":
		return m.volatilityAdjustedSize()
	default:
		m.log.Warn("未知的仓位规模方法，回退到 fixed",
			zap.String("method", m.cfg.PositionSizing.Method))
		return m.fixedSize()
	}
}

// fixedSize 固定数量
func (m *Manager) fixedSize() float64 {
	return m.cfg.PositionSizing.Fixed.Quantity
}

// riskPctSize 风险百分比数量
// 数量 = 资产 × 单笔风险比例 / 每单位风险距离。
// 止损在不利侧（风险距离非正）时返回 0。
func (m *Manager) riskPctSize(equity, entryPrice, stopLoss float64, dir model.Direction) float64 {
	var riskPerUnit float64
	if dir == model.DirectionLong {
		riskPerUnit = entryPrice - stopLoss
	} else {
		riskPerUnit = stopLoss - entryPrice
	}

	if riskPerUnit <= 0 {
		m.log.Warn("止损价位于不利侧，放弃进场",
			zap.Float64("entry_price", entryPrice),
			zap.Float64("stop_loss", stopLoss),
			zap.String("direction", string(dir)))
		return 0
	}

	riskAmount := equity * m.cfg.PositionSizing.RiskPct.AccountRiskPerTrade
	return riskAmount / riskPerUnit
}

// kellySize Kelly 准则数量
// kelly = win_rate - (1-win_rate)/win_loss_ratio，裁剪到 [0,1] 后乘以缩放系数。
// 历史不足、全胜/全败或平均亏损为 0 时回退到风险百分比。
func (m *Manager) kellySize(equity, entryPrice, stopLoss float64, dir model.Direction) float64 {
	lookback := m.cfg.PositionSizing.Kelly.LookbackTrades
	if m.count < lookback {
		return m.riskPctSize(equity, entryPrice, stopLoss, dir)
	}

	recent := m.recent(lookback)
	var winSum, lossSum float64
	var winN, lossN int
	for _, pnl := range recent {
		if pnl > 0 {
			winSum += pnl
			winN++
		} else {
			lossSum += -pnl
			lossN++
		}
	}

	if winN == 0 || lossN == 0 {
		return m.riskPctSize(equity, entryPrice, stopLoss, dir)
	}

	avgWin := winSum / float64(winN)
	avgLoss := lossSum / float64(lossN)
	if avgLoss == 0 {
		return m.riskPctSize(equity, entryPrice, stopLoss, dir)
	}

	winRate := float64(winN) / float64(len(recent))
	winLossRatio := avgWin / avgLoss
	kelly := winRate - (1-winRate)/winLossRatio
	if kelly < 0 {
		kelly = 0
	}
	if kelly > 1 {
		kelly = 1
	}

	sizePct := kelly * m.cfg.PositionSizing.Kelly.Fraction
	return equity * sizePct / entryPrice
}

// volatilityAdjustedSize 波动率调整数量
// 当前为简化实现，直接返回基础数量。
func (m *Manager) volatilityAdjustedSize() float64 {
	return m.cfg.PositionSizing.VolatilityAdjusted.BaseSize
}

// RecordTrade 记录一笔已完成交易的盈亏
// 超出容量时覆盖最旧记录。
func (m *Manager) RecordTrade(pnl float64) {
	m.history[m.head] = pnl
	m.head = (m.head + 1) % historyCap
	if m.count < historyCap {
		m.count++
	}
}

// HistoryLen 当前交易历史记录数
func (m *Manager) HistoryLen() int {
	return m.count
}

// recent 取最近 n 条盈亏记录（时间升序）
func (m *Manager) recent(n int) []float64 {
	if n > m.count {
		n = m.count
	}
	out := make([]float64, n)
	start := (m.head - n + historyCap) % historyCap
	for i := 0; i < n; i++ {
		out[i] = m.history[(start+i)%historyCap]
	}
	return out
}
