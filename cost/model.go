package cost

import (
	"math"

	"risk-engine-go/market"
)

// Estimate 一次估算的输出，纯计算值，不落盘。
type Estimate struct {
	SlippagePct      float64 // 预期滑点（比例值）
	ImpactCostPct    float64 // 预期冲击成本
	TotalCostPct     float64 // 增强模型填写：滑点+冲击
	RecommendedSplit int     // 增强模型填写：建议拆单数
}

// volumeRatio 订单占日成交量比例；成交量为零按最坏情况 1.0 处理。
func volumeRatio(orderSize, dailyVolume float64) float64 {
	if dailyVolume <= 0 {
		return 1.0
	}
	return orderSize / dailyVolume
}

// EstimateCost 基线模型：只依赖层级基础滑点与量比。
//
//	slippage = base * (1 + ratio^0.5)
//	impact   = base * 0.5 * ratio^0.7
//
// 两者都随 ratio 严格递增；ratio∈(0,1] 时 impact 恒小于 slippage。
func EstimateCost(tier Tier, orderSize, dailyVolume float64) Estimate {
	base := BaseSlippage(tier)
	ratio := volumeRatio(orderSize, dailyVolume)
	return Estimate{
		SlippagePct:   base * (1 + math.Pow(ratio, 0.5)),
		ImpactCostPct: base * 0.5 * math.Pow(ratio, 0.7),
	}
}

// EstimateEnhanced 增强模型，仅 tier5/tier6 启用：引入实时买卖价差与
// 平方根冲击律。小层级没有增强路径，直接退回基线模型。
func EstimateEnhanced(tier Tier, orderSize float64, md market.Data) Estimate {
	if !IsLargeTier(tier) {
		est := EstimateCost(tier, orderSize, md.DailyVolume)
		est.TotalCostPct = est.SlippagePct + est.ImpactCostPct
		est.RecommendedSplit = 1
		return est
	}

	ratio := volumeRatio(orderSize, md.DailyVolume)
	slippage := BaseSlippage(tier) + md.BidAskSpread + ratio*0.05
	impact := 0.02 * math.Sqrt(ratio)
	return Estimate{
		SlippagePct:      slippage,
		ImpactCostPct:    impact,
		TotalCostPct:     slippage + impact,
		RecommendedSplit: recommendSplit(ratio),
	}
}

// recommendSplit 量比越大拆得越碎，对 ratio 单调不减。
func recommendSplit(ratio float64) int {
	switch {
	case ratio <= 0.05:
		return 1
	case ratio <= 0.10:
		return 3
	default:
		n := int(math.Round(ratio * 50))
		if n < 5 {
			n = 5
		}
		return n
	}
}
