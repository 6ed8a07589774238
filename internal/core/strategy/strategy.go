// Package strategy 定义策略接口、策略注册表和具体策略实现。
// 策略负责指标声明、市场状态判定和逐根 K 线的进出场信号生成；
// 引擎通过注册表按名称创建策略实例。
package strategy

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"regime-trend-backtester/internal/config"
	"regime-trend-backtester/internal/core/model"
)

// Strategy 策略接口
// 所有方法对单根 K 线的评估不返回错误，评估失败由上层捕获并按无动作处理。
type Strategy interface {
	// Name 策略名称
	Name() string

	// CalculateIndicators 在回测开始前对整个序列批量计算指标
	// 返回: 策略声明的必需指标列名称
	CalculateIndicators(bars []model.Bar) ([]string, error)

	// DetectRegime 对整个序列做市场状态分类
	DetectRegime(bars []model.Bar) []model.Regime

	// GenerateEntrySignal 生成进场信号
	// 已有持仓时返回无动作信号。
	GenerateEntrySignal(bars []model.Bar, regimes []model.Regime, idx int, pos *model.Position) model.Signal

	// GenerateExitSignal 生成离场信号
	GenerateExitSignal(bars []model.Bar, regimes []model.Regime, idx int, pos *model.Position) model.Signal

	// UpdateStopLoss 计算移动止损后的新止损价
	// 不满足更新条件时原样返回当前止损价。
	UpdateStopLoss(bars []model.Bar, idx int, pos *model.Position) float64
}

// Factory 策略工厂函数
type Factory func(cfg *config.StrategyConfig, log *zap.Logger) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 注册策略工厂
// 重复注册同名策略会 panic（注册在 init 阶段完成，属于编程错误）。
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("strategy: 策略 %q 重复注册", name))
	}
	registry[name] = f
}

// New 按名称创建策略实例
// 未注册的名称返回 ErrConfig 类别错误。
func New(name string, cfg *config.StrategyConfig, log *zap.Logger) (Strategy, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: 未注册的策略 %q，可用策略: %v", model.ErrConfig, name, List())
	}
	return f(cfg, log)
}

// List 列出所有已注册的策略名称（字典序）
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
