// Package execution 负责大单的算法选择与拆单调度。
package execution

import "risk-engine-go/cost"

// Algorithm 执行算法标签。
type Algorithm string

const (
	AlgoMarket Algorithm = "MARKET"
	AlgoTWAP   Algorithm = "TWAP"
	AlgoVWAP   Algorithm = "VWAP"
	AlgoPOV    Algorithm = "POV"
)

// SuggestAlgorithm 按订单占日成交量的比例选择执行算法。
// 只有最大层级才有意义——小资金单笔体量打不出冲击，一律市价直出。
func SuggestAlgorithm(orderSize, dailyVolume float64, tier cost.Tier) Algorithm {
	if tier != cost.Tier6Mega {
		return AlgoMarket
	}
	ratio := 1.0
	if dailyVolume > 0 {
		ratio = orderSize / dailyVolume
	}
	switch {
	case ratio > 0.10:
		return AlgoPOV
	case ratio > 0.05:
		return AlgoVWAP
	case ratio > 0.02:
		return AlgoTWAP
	default:
		return AlgoMarket
	}
}
