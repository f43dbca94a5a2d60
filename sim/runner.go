// Package sim 用合成行情与持仓驱动整个引擎跑若干评估周期，
// 供演练模式与端到端测试使用。固定种子下结果可复现。
package sim

import (
	"fmt"
	"math/rand"

	"risk-engine-go/engine"
	"risk-engine-go/market"
	"risk-engine-go/risk"
)

// Config 演练参数。
type Config struct {
	Symbols int   // 标的数量
	Ticks   int   // 评估周期数
	Seed    int64 // 随机种子
}

// Stats 一次演练的汇总结果。
type Stats struct {
	Ticks            int
	StopLossFired    int
	TakeProfitFired  int
	SignalsSet       int
	SignalsCleared   int
	PlansGenerated   int
	StealthPlans     int
	NormalizedCount int // 最后一个周期归一化后的持仓数
}

// Runner 把合成数据串进引擎的完整数据流：
// 候选持仓 → Normalize → EvaluateTick → 抽样 PlanOrder。
type Runner struct {
	eng        *engine.Engine
	cfg        Config
	rng        *rand.Rand
	industries []string
	stats      Stats
}

// New 创建演练 Runner。
func New(eng *engine.Engine, cfg Config) (*Runner, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine required")
	}
	if cfg.Symbols <= 0 || cfg.Ticks <= 0 {
		return nil, fmt.Errorf("symbols/ticks must be > 0")
	}
	r := &Runner{
		eng:        eng,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		industries: []string{"tech", "bank", "steel", "pharma", "energy"},
	}
	// 拆单随机源也走同一个种子，整轮演练可复现
	eng.SetSeedSource(r.rng.Int63)
	return r, nil
}

// Run 跑完全部周期并返回汇总。
func (r *Runner) Run() Stats {
	for tick := 0; tick < r.cfg.Ticks; tick++ {
		r.Step()
	}
	return r.stats
}

// Stats 返回当前累计结果。
func (r *Runner) Stats() Stats {
	return r.stats
}

// Step 跑一个评估周期，守护进程按自己的节奏调用。
func (r *Runner) Step() {
	positions, md := r.generate()

	normalized := r.eng.Normalize(positions, md)
	r.stats.NormalizedCount = len(normalized)

	// 随机模拟外部保护器：小概率下发/解除信号
	if len(normalized) > 0 && r.rng.Float64() < 0.2 {
		sym := normalized[r.rng.Intn(len(normalized))].Symbol
		urgency := []risk.Urgency{risk.UrgencyMedium, risk.UrgencyHigh, risk.UrgencyCritical}[r.rng.Intn(3)]
		if err := r.eng.SetExitSignal(sym, urgency, r.rng.Float64(), "sim protector"); err == nil {
			r.stats.SignalsSet++
		}
	}
	if len(normalized) > 0 && r.rng.Float64() < 0.1 {
		sym := normalized[r.rng.Intn(len(normalized))].Symbol
		if r.eng.IsInExitMode(sym) {
			r.eng.ClearExitSignal(sym)
			r.stats.SignalsCleared++
		}
	}

	res := r.eng.EvaluateTick(normalized)
	r.stats.StopLossFired += len(res.StopLoss)
	r.stats.TakeProfitFired += len(res.TakeProfit)

	// 抽一个标的做下单前评估
	if len(normalized) > 0 {
		p := normalized[r.rng.Intn(len(normalized))]
		data := md[p.Symbol]
		orderSize := data.DailyVolume * (0.001 + r.rng.Float64()*0.3)
		plan := r.eng.PlanOrder(p.Symbol, orderSize, md)
		r.stats.PlansGenerated++
		if plan.Stealth != nil {
			r.stats.StealthPlans++
		}
	}
	r.stats.Ticks++
}

// generate 合成一批候选持仓与行情快照。
func (r *Runner) generate() ([]risk.Position, market.DataMap) {
	positions := make([]risk.Position, 0, r.cfg.Symbols)
	md := make(market.DataMap, r.cfg.Symbols)
	for i := 0; i < r.cfg.Symbols; i++ {
		sym := fmt.Sprintf("SIM%03d", i)
		entry := 5 + r.rng.Float64()*95
		pnl := -0.15 + r.rng.Float64()*0.40
		positions = append(positions, risk.Position{
			Symbol:       sym,
			Size:         r.rng.Float64() * 0.3,
			EntryPrice:   entry,
			CurrentPrice: entry * (1 + pnl),
			PnLPct:       pnl,
			HoldingDays:  r.rng.Intn(30),
			Industry:     r.industries[r.rng.Intn(len(r.industries))],
		})
		md[sym] = market.Data{
			DailyVolume:  r.rng.Float64() * 500_000_000,
			TurnoverRate: r.rng.Float64() * 0.05,
			BidAskSpread: 0.0002 + r.rng.Float64()*0.002,
		}
	}
	return positions, md
}
