// Package cost 实现分层资金规模下的滑点与冲击成本估算。
package cost

import (
	"errors"
	"fmt"
)

// Tier 资金规模层级，tier1 最小，tier6 最大。
// 各层参数（仓位上限、止损止盈阈值）由上游分层测试子系统标定。
type Tier string

const (
	Tier1Micro  Tier = "tier1_micro"
	Tier2Small  Tier = "tier2_small"
	Tier3Medium Tier = "tier3_medium"
	Tier4Large  Tier = "tier4_large"
	Tier5Huge   Tier = "tier5_huge"
	Tier6Mega   Tier = "tier6_mega"
)

// Tiers 从小到大的全部层级。
var Tiers = []Tier{Tier1Micro, Tier2Small, Tier3Medium, Tier4Large, Tier5Huge, Tier6Mega}

// 基础滑点随层级严格递增。
var baseSlippage = map[Tier]float64{
	Tier1Micro:  0.0015,
	Tier2Small:  0.0020,
	Tier3Medium: 0.0040,
	Tier4Large:  0.0050,
	Tier5Huge:   0.0100,
	Tier6Mega:   0.0200,
}

var ErrUnknownTier = errors.New("unknown capital tier")

// ParseTier 校验层级字符串。
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := baseSlippage[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// BaseSlippage 该层级的基础滑点（比例值，0.0015 = 0.15%）。
// 未知层级按最保守的 tier6 处理。
func BaseSlippage(t Tier) float64 {
	if v, ok := baseSlippage[t]; ok {
		return v
	}
	return baseSlippage[Tier6Mega]
}

// IsLargeTier tier5/tier6 才走增强成本模型与流动性过滤。
func IsLargeTier(t Tier) bool {
	return t == Tier5Huge || t == Tier6Mega
}
