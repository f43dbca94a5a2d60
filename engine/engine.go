// Package engine 把限额、流动性、出场仲裁、成本与拆单组装成单个策略
// 实例的风控门面。每个实例只允许一个调用方串行访问，内部不加锁。
package engine

import (
	"math/rand"

	"risk-engine-go/cost"
	"risk-engine-go/execution"
	"risk-engine-go/infrastructure/logger"
	"risk-engine-go/infrastructure/monitor"
	"risk-engine-go/liquidity"
	"risk-engine-go/market"
	"risk-engine-go/risk"
)

// Config 引擎配置，来自策略配置文件。
type Config struct {
	Strategy   string
	Tier       cost.Tier
	Limits     risk.Limits
	StaleTicks int // 残留信号过期周期数，<=0 用默认值
}

// TickResult 一个评估周期的出场决定。
type TickResult struct {
	StopLoss   []string
	TakeProfit []string
}

// OrderPlan 下单前的成本评估与执行建议。
type OrderPlan struct {
	Estimate  cost.Estimate
	Algorithm execution.Algorithm
	Stealth   *execution.StealthPlan // 建议拆单数 >1 时才生成
}

// Engine 单策略风控引擎。
type Engine struct {
	cfg   Config
	coord *risk.ExitCoordinator
	log   *logger.Logger
	mon   *monitor.Monitor
	seed  func() int64 // 拆单随机种子来源，测试可替换
}

// New 创建引擎。log/mon 允许为 nil（测试或纯计算场景）。
func New(cfg Config, log *logger.Logger, mon *monitor.Monitor) *Engine {
	return &Engine{
		cfg:   cfg,
		coord: risk.NewExitCoordinator(cfg.Limits, cfg.StaleTicks),
		log:   log,
		mon:   mon,
		seed:  nil,
	}
}

// SetSeedSource 固定拆单随机种子，回放与测试用。
func (e *Engine) SetSeedSource(seed func() int64) {
	e.seed = seed
}

// Coordinator 暴露出场协调器（供 gateway 等协作方使用引擎实例而非全局量）。
func (e *Engine) Coordinator() *risk.ExitCoordinator {
	return e.coord
}

// Normalize 对策略提交的候选持仓做限额归一化，大层级再过流动性准入。
func (e *Engine) Normalize(positions []risk.Position, md market.DataMap) []risk.Position {
	res := risk.Enforce(positions, e.cfg.Limits)
	if e.mon != nil {
		e.mon.RecordEnforce(res.SingleClamped, res.IndustryScaled, res.TotalScaled, res.TotalAfter)
	}
	if e.log != nil && (res.SingleClamped > 0 || res.IndustryScaled > 0 || res.TotalScaled) {
		e.log.LogRisk("limits_enforced", map[string]interface{}{
			"strategy":        e.cfg.Strategy,
			"single_clamped":  res.SingleClamped,
			"industry_scaled": res.IndustryScaled,
			"total_scaled":    res.TotalScaled,
			"total_before":    res.TotalBefore,
			"total_after":     res.TotalAfter,
		})
	}

	gate := liquidity.Filter(res.Positions, md, e.cfg.Tier)
	if len(gate.Dropped) > 0 {
		if e.mon != nil {
			e.mon.RecordLiquidityDrops(len(gate.Dropped))
		}
		if e.log != nil {
			e.log.LogRisk("liquidity_dropped", map[string]interface{}{
				"strategy": e.cfg.Strategy,
				"tier":     string(e.cfg.Tier),
				"symbols":  gate.Dropped,
			})
		}
	}
	return gate.Positions
}

// SetExitSignal 登记外部保护性退出信号。
func (e *Engine) SetExitSignal(symbol string, urgency risk.Urgency, reduceRatio float64, reason string) error {
	if err := e.coord.SetExitSignal(symbol, urgency, reduceRatio, reason); err != nil {
		if e.mon != nil {
			e.mon.RecordSignalError()
		}
		return err
	}
	if e.log != nil {
		e.log.LogExit("signal_set", symbol, map[string]interface{}{
			"urgency":      urgency.String(),
			"reduce_ratio": reduceRatio,
			"reason":       reason,
		})
	}
	if e.mon != nil {
		e.mon.SetActiveSignals(e.coord.ActiveSignals())
	}
	return nil
}

// ClearExitSignal 解除信号。
func (e *Engine) ClearExitSignal(symbol string) {
	e.coord.ClearExitSignal(symbol)
	if e.log != nil {
		e.log.LogExit("signal_cleared", symbol, nil)
	}
	if e.mon != nil {
		e.mon.SetActiveSignals(e.coord.ActiveSignals())
	}
}

// IsInExitMode 该 symbol 是否处于保护性退出状态。
func (e *Engine) IsInExitMode(symbol string) bool {
	return e.coord.IsInExitMode(symbol)
}

// EvaluateTick 每个评估周期调用一次：先清理残留信号，再跑止损/止盈仲裁。
func (e *Engine) EvaluateTick(positions []risk.Position) TickResult {
	expired := e.coord.ExpireStale(positions)
	if len(expired) > 0 {
		if e.mon != nil {
			e.mon.RecordExitExpired(len(expired))
			e.mon.SetActiveSignals(e.coord.ActiveSignals())
		}
		if e.log != nil {
			for _, sym := range expired {
				e.log.LogExit("signal_expired", sym, nil)
			}
		}
	}

	stop := e.coord.CheckStopLossDetailed(positions)
	take := e.coord.CheckTakeProfitDetailed(positions)
	e.report("stop_loss", stop)
	e.report("take_profit", take)
	return TickResult{StopLoss: stop.Fired, TakeProfit: take.Fired}
}

func (e *Engine) report(kind string, d risk.TickDecision) {
	if e.mon != nil {
		e.mon.RecordExitTrigger(kind, len(d.Fired))
		e.mon.RecordExitSuppressed(len(d.Suppressed))
		e.mon.RecordExitDeferred(len(d.Deferred))
	}
	if e.log == nil {
		return
	}
	for _, sym := range d.Fired {
		e.log.LogExit("triggered", sym, map[string]interface{}{"kind": kind})
	}
	for _, sym := range d.Deferred {
		e.log.LogExit("deferred_to_signal", sym, map[string]interface{}{"kind": kind})
	}
}

// PlanOrder 下单前评估：成本估算 + 执行算法 + 必要时的拆单方案。
// 行情缺失按零成交量的最坏情况估算。
func (e *Engine) PlanOrder(symbol string, orderSize float64, md market.DataMap) OrderPlan {
	data, _ := md.Get(symbol)

	var est cost.Estimate
	if cost.IsLargeTier(e.cfg.Tier) {
		est = cost.EstimateEnhanced(e.cfg.Tier, orderSize, data)
	} else {
		est = cost.EstimateCost(e.cfg.Tier, orderSize, data.DailyVolume)
		est.TotalCostPct = est.SlippagePct + est.ImpactCostPct
		est.RecommendedSplit = 1
	}

	plan := OrderPlan{
		Estimate:  est,
		Algorithm: execution.SuggestAlgorithm(orderSize, data.DailyVolume, e.cfg.Tier),
	}

	ratio := 1.0
	if data.DailyVolume > 0 {
		ratio = orderSize / data.DailyVolume
	}
	if est.RecommendedSplit > 1 {
		splitter := execution.NewSplitter(e.newRand())
		stealth := splitter.GenerateStealthPlan(orderSize, est.RecommendedSplit, ratio)
		plan.Stealth = &stealth
		if e.mon != nil {
			e.mon.RecordStealthPlan()
		}
	}

	if e.mon != nil {
		e.mon.RecordCostEstimate(est.TotalCostPct, est.RecommendedSplit)
	}
	if e.log != nil {
		e.log.LogCost("order_planned", map[string]interface{}{
			"strategy":     e.cfg.Strategy,
			"symbol":       symbol,
			"order_size":   orderSize,
			"slippage":     est.SlippagePct,
			"impact":       est.ImpactCostPct,
			"total_cost":   est.TotalCostPct,
			"split":        est.RecommendedSplit,
			"algorithm":    string(plan.Algorithm),
			"stealth_plan": plan.Stealth != nil,
		})
	}
	return plan
}

// newRand 每次拆单独立随机源，避免跨 symbol 的共享状态。
func (e *Engine) newRand() *rand.Rand {
	if e.seed != nil {
		return rand.New(rand.NewSource(e.seed()))
	}
	return nil // Splitter 自行用时间种子
}
