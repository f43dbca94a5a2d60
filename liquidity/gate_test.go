package liquidity

import (
	"testing"

	"risk-engine-go/cost"
	"risk-engine-go/market"
	"risk-engine-go/risk"
)

func TestFilterSmallTierNoop(t *testing.T) {
	positions := []risk.Position{{Symbol: "A", Size: 0.1}}
	res := Filter(positions, market.DataMap{}, cost.Tier2Small)
	if len(res.Positions) != 1 || len(res.Dropped) != 0 {
		t.Fatalf("small tier must pass through: %+v", res)
	}
}

func TestFilterTier5(t *testing.T) {
	md := market.DataMap{
		"LOW":  {DailyVolume: 30_000_000, TurnoverRate: 0.05},  // 成交额不足
		"OK":   {DailyVolume: 60_000_000, TurnoverRate: 0.015}, // 双指标达标
		"THIN": {DailyVolume: 80_000_000, TurnoverRate: 0.005}, // 换手不足
	}
	positions := []risk.Position{
		{Symbol: "LOW"}, {Symbol: "OK"}, {Symbol: "THIN"}, {Symbol: "MISSING"},
	}

	res := Filter(positions, md, cost.Tier5Huge)
	if len(res.Positions) != 1 || res.Positions[0].Symbol != "OK" {
		t.Fatalf("kept = %+v", res.Positions)
	}
	if len(res.Dropped) != 3 {
		t.Fatalf("dropped = %v", res.Dropped)
	}
}

func TestFilterTier6Stricter(t *testing.T) {
	md := market.DataMap{
		"A": {DailyVolume: 60_000_000, TurnoverRate: 0.015},  // tier5 过，tier6 不过
		"B": {DailyVolume: 250_000_000, TurnoverRate: 0.025}, // tier6 过
	}
	positions := []risk.Position{{Symbol: "A"}, {Symbol: "B"}}

	if res := Filter(positions, md, cost.Tier5Huge); len(res.Positions) != 2 {
		t.Fatalf("tier5 kept = %+v", res.Positions)
	}
	res := Filter(positions, md, cost.Tier6Mega)
	if len(res.Positions) != 1 || res.Positions[0].Symbol != "B" {
		t.Fatalf("tier6 kept = %+v", res.Positions)
	}
}
