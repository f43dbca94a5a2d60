// Package liquidity 在大资金层级下剔除流动性不足的标的。
package liquidity

import (
	"risk-engine-go/cost"
	"risk-engine-go/market"
	"risk-engine-go/risk"
)

// 各大层级的准入下限：日成交额（元）与换手率。
const (
	tier5MinDailyVolume  = 50_000_000
	tier5MinTurnoverRate = 0.01
	tier6MinDailyVolume  = 200_000_000
	tier6MinTurnoverRate = 0.02
)

// FilterResult 过滤结果与被剔除的 symbol。
type FilterResult struct {
	Positions []risk.Position
	Dropped   []string
}

// Filter 对 tier5/tier6 执行流动性准入；其余层级原样放行。
// 行情缺失的标的按"无流动性"直接剔除（fail-closed）。
func Filter(positions []risk.Position, md market.DataMap, tier cost.Tier) FilterResult {
	if !cost.IsLargeTier(tier) {
		return FilterResult{Positions: positions}
	}

	minVolume, minTurnover := tier5MinDailyVolume, tier5MinTurnoverRate
	if tier == cost.Tier6Mega {
		minVolume, minTurnover = tier6MinDailyVolume, tier6MinTurnoverRate
	}

	res := FilterResult{Positions: make([]risk.Position, 0, len(positions))}
	for _, p := range positions {
		d, ok := md.Get(p.Symbol)
		if !ok || d.DailyVolume < float64(minVolume) || d.TurnoverRate < minTurnover {
			res.Dropped = append(res.Dropped, p.Symbol)
			continue
		}
		res.Positions = append(res.Positions, p)
	}
	return res
}
