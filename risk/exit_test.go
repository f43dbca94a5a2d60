package risk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-engine-go/risk"
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

func newCoordinator(t *testing.T) *risk.ExitCoordinator {
	t.Helper()
	c := risk.NewExitCoordinator(risk.Limits{StopLossPct: -0.05, TakeProfitPct: 0.15}, 3)
	c.SetClock(fakeClock{t: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)})
	return c
}

// TestExitPriority 验证 HIGH/CRITICAL 信号整体压制内部检查。
func TestExitPriority(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.SetExitSignal("600519.SH", risk.UrgencyCritical, 1.0, "distribution detected"))
	require.NoError(t, c.SetExitSignal("000001.SZ", risk.UrgencyHigh, 0.8, "distress"))

	positions := []risk.Position{
		{Symbol: "600519.SH", PnLPct: -0.20}, // 深度亏损，但 CRITICAL 压制
		{Symbol: "000001.SZ", PnLPct: 0.30},  // 大幅盈利，但 HIGH 压制
		{Symbol: "300750.SZ", PnLPct: -0.06}, // 无信号，内部止损
	}

	assert.Equal(t, []string{"300750.SZ"}, c.CheckStopLoss(positions))
	assert.Empty(t, c.CheckTakeProfit(positions))

	d := c.CheckStopLossDetailed(positions)
	assert.ElementsMatch(t, []string{"600519.SH", "000001.SZ"}, d.Suppressed)
}

// TestExitMediumArbitration MEDIUM 信号下比较干预力度。
func TestExitMediumArbitration(t *testing.T) {
	cases := []struct {
		name         string
		reduceRatio  float64
		pnl          float64
		wantStopFire bool
		wantStopDefr bool
		wantTakeFire bool
		wantTakeDefr bool
	}{
		{
			name:        "外部建议 0.5 — 止损(1.0)严格更大放行，止盈(0.5)持平让位",
			reduceRatio: 0.5, pnl: -0.05, // 同时踩中止损边界
			wantStopFire: true,
		},
		{
			name:        "外部建议 1.0 — 内外同为全平，内部全部让位",
			reduceRatio: 1.0, pnl: -0.08,
			wantStopDefr: true,
		},
		{
			name:        "外部建议 0.3 — 止盈(0.5)严格更大放行",
			reduceRatio: 0.3, pnl: 0.15, // 止盈边界，含等号触发
			wantTakeFire: true,
		},
		{
			name:        "内部未触发 — MEDIUM 不产生任何内部动作",
			reduceRatio: 0.3, pnl: 0.01,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCoordinator(t)
			require.NoError(t, c.SetExitSignal("X", risk.UrgencyMedium, tc.reduceRatio, "volume anomaly"))
			positions := []risk.Position{{Symbol: "X", PnLPct: tc.pnl}}

			stop := c.CheckStopLossDetailed(positions)
			take := c.CheckTakeProfitDetailed(positions)
			assert.Equal(t, tc.wantStopFire, len(stop.Fired) == 1, "stop fired")
			assert.Equal(t, tc.wantStopDefr, len(stop.Deferred) == 1, "stop deferred")
			assert.Equal(t, tc.wantTakeFire, len(take.Fired) == 1, "take fired")
			assert.Equal(t, tc.wantTakeDefr, len(take.Deferred) == 1, "take deferred")
		})
	}
}

func TestExitSignalLifecycle(t *testing.T) {
	c := newCoordinator(t)
	assert.False(t, c.IsInExitMode("A"))

	require.NoError(t, c.SetExitSignal("A", risk.UrgencyMedium, 0.3, "first"))
	assert.True(t, c.IsInExitMode("A"))

	// 后到覆盖先到
	require.NoError(t, c.SetExitSignal("A", risk.UrgencyCritical, 1.0, "second"))
	sig, ok := c.Signal("A")
	require.True(t, ok)
	assert.Equal(t, risk.UrgencyCritical, sig.Urgency)
	assert.Equal(t, "second", sig.Reason)

	c.ClearExitSignal("A")
	assert.False(t, c.IsInExitMode("A"))

	// 非法入参
	assert.ErrorIs(t, c.SetExitSignal("A", risk.UrgencyNormal, 0.5, ""), risk.ErrUnknownUrgency)
	assert.ErrorIs(t, c.SetExitSignal("A", risk.UrgencyHigh, 1.5, ""), risk.ErrBadReduceRatio)
}

// TestExitStaleExpiry 持仓中消失的 symbol，其残留信号在 N 个周期后过期。
func TestExitStaleExpiry(t *testing.T) {
	c := newCoordinator(t) // staleTicks = 3
	require.NoError(t, c.SetExitSignal("GONE", risk.UrgencyHigh, 1.0, "stale"))
	require.NoError(t, c.SetExitSignal("LIVE", risk.UrgencyHigh, 1.0, "active"))

	positions := []risk.Position{{Symbol: "LIVE", PnLPct: 0}}
	assert.Empty(t, c.ExpireStale(positions))
	assert.Empty(t, c.ExpireStale(positions))
	assert.Equal(t, []string{"GONE"}, c.ExpireStale(positions))
	assert.False(t, c.IsInExitMode("GONE"))
	assert.True(t, c.IsInExitMode("LIVE"))

	// symbol 重新出现会清零计数
	require.NoError(t, c.SetExitSignal("BACK", risk.UrgencyMedium, 0.2, ""))
	none := []risk.Position{}
	c.ExpireStale(none)
	c.ExpireStale(none)
	c.ExpireStale([]risk.Position{{Symbol: "BACK"}}) // 计数归零
	c.ExpireStale(none)
	c.ExpireStale(none)
	assert.True(t, c.IsInExitMode("BACK"))
}

func TestUrgencyParse(t *testing.T) {
	for s, want := range map[string]risk.Urgency{
		"medium": risk.UrgencyMedium, "high": risk.UrgencyHigh, "critical": risk.UrgencyCritical,
	} {
		u, err := risk.ParseUrgency(s)
		require.NoError(t, err)
		assert.Equal(t, want, u)
		assert.Equal(t, s, u.String())
	}
	_, err := risk.ParseUrgency("panic")
	assert.ErrorIs(t, err, risk.ErrUnknownUrgency)
}
