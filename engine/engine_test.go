package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-engine-go/cost"
	"risk-engine-go/execution"
	"risk-engine-go/market"
	"risk-engine-go/risk"
)

func testLimits() risk.Limits {
	return risk.Limits{
		MaxPosition:    0.8,
		MaxSingleStock: 0.1,
		MaxIndustry:    0.3,
		StopLossPct:    -0.05,
		TakeProfitPct:  0.15,
	}
}

func TestNormalizeSmallTier(t *testing.T) {
	e := New(Config{Strategy: "momentum", Tier: cost.Tier2Small, Limits: testLimits()}, nil, nil)

	out := e.Normalize([]risk.Position{
		{Symbol: "A", Size: 0.15, Industry: "tech"},
		{Symbol: "B", Size: 0.20, Industry: "tech"},
	}, nil)

	require.Len(t, out, 2)
	for _, p := range out {
		assert.LessOrEqual(t, p.Size, 0.1)
	}
}

func TestNormalizeTier5Gate(t *testing.T) {
	e := New(Config{Strategy: "event", Tier: cost.Tier5Huge, Limits: testLimits()}, nil, nil)
	md := market.DataMap{
		"LIQ":  {DailyVolume: 60_000_000, TurnoverRate: 0.015},
		"THIN": {DailyVolume: 30_000_000, TurnoverRate: 0.05},
	}

	out := e.Normalize([]risk.Position{
		{Symbol: "LIQ", Size: 0.05, Industry: "tech"},
		{Symbol: "THIN", Size: 0.05, Industry: "tech"},
		{Symbol: "NODATA", Size: 0.05, Industry: "bank"},
	}, md)

	require.Len(t, out, 1)
	assert.Equal(t, "LIQ", out[0].Symbol)
}

func TestEvaluateTickArbitration(t *testing.T) {
	e := New(Config{Strategy: "mr", Tier: cost.Tier1Micro, Limits: testLimits()}, nil, nil)
	require.NoError(t, e.SetExitSignal("SHIELDED", risk.UrgencyCritical, 1.0, "distribution"))

	res := e.EvaluateTick([]risk.Position{
		{Symbol: "SHIELDED", PnLPct: -0.30},
		{Symbol: "LOSER", PnLPct: -0.05},
		{Symbol: "WINNER", PnLPct: 0.20},
	})

	assert.Equal(t, []string{"LOSER"}, res.StopLoss)
	assert.Equal(t, []string{"WINNER"}, res.TakeProfit)
	assert.True(t, e.IsInExitMode("SHIELDED"))

	e.ClearExitSignal("SHIELDED")
	res = e.EvaluateTick([]risk.Position{{Symbol: "SHIELDED", PnLPct: -0.30}})
	assert.Equal(t, []string{"SHIELDED"}, res.StopLoss)
}

func TestEvaluateTickStaleExpiry(t *testing.T) {
	e := New(Config{Strategy: "mr", Tier: cost.Tier1Micro, Limits: testLimits(), StaleTicks: 2}, nil, nil)
	require.NoError(t, e.SetExitSignal("GONE", risk.UrgencyHigh, 1.0, "stale"))

	live := []risk.Position{{Symbol: "OTHER", PnLPct: 0}}
	e.EvaluateTick(live)
	assert.True(t, e.IsInExitMode("GONE"))
	e.EvaluateTick(live)
	assert.False(t, e.IsInExitMode("GONE"), "残留信号应在第 2 个周期过期")
}

func TestPlanOrderSmallTier(t *testing.T) {
	e := New(Config{Strategy: "momentum", Tier: cost.Tier1Micro, Limits: testLimits()}, nil, nil)
	plan := e.PlanOrder("X", 1000, market.DataMap{"X": {DailyVolume: 1_000_000}})

	assert.Equal(t, execution.AlgoMarket, plan.Algorithm)
	assert.Equal(t, 1, plan.Estimate.RecommendedSplit)
	assert.Nil(t, plan.Stealth)
	assert.InDelta(t, 0.0015*(1+0.0316227766), plan.Estimate.SlippagePct, 1e-6)
}

func TestPlanOrderTier6Stealth(t *testing.T) {
	e := New(Config{Strategy: "event", Tier: cost.Tier6Mega, Limits: testLimits()}, nil, nil)
	e.SetSeedSource(func() int64 { return 1234 })

	md := market.DataMap{"BIG": {DailyVolume: 100_000_000, TurnoverRate: 0.03, BidAskSpread: 0.001}}
	plan := e.PlanOrder("BIG", 20_000_000, md) // ratio 0.2

	assert.Equal(t, execution.AlgoPOV, plan.Algorithm)
	assert.Equal(t, 10, plan.Estimate.RecommendedSplit)
	require.NotNil(t, plan.Stealth)
	assert.GreaterOrEqual(t, plan.Stealth.Splits, 12)

	sum := 0.0
	for _, v := range plan.Stealth.OrderSizes {
		sum += v
	}
	assert.InDelta(t, 20_000_000, sum, 1e-4)

	// 同一种子方案可复现
	again := e.PlanOrder("BIG", 20_000_000, md)
	assert.Equal(t, plan.Stealth.OrderSizes, again.Stealth.OrderSizes)
}

func TestPlanOrderMissingMarketData(t *testing.T) {
	e := New(Config{Strategy: "event", Tier: cost.Tier6Mega, Limits: testLimits()}, nil, nil)
	e.SetSeedSource(func() int64 { return 1 })

	// 缺行情 → ratio=1 的最坏情况：POV + 大拆单
	plan := e.PlanOrder("UNKNOWN", 1_000_000, market.DataMap{})
	assert.Equal(t, execution.AlgoPOV, plan.Algorithm)
	assert.Equal(t, 50, plan.Estimate.RecommendedSplit)
	require.NotNil(t, plan.Stealth)
}
