package risk

// EnforceResult 记录一次限额归一化的调整明细，供上层打日志/记指标。
type EnforceResult struct {
	Positions      []Position
	SingleClamped  int     // 被单票上限截断的持仓数
	IndustryScaled int     // 被行业上限缩放的行业数
	TotalScaled    bool    // 是否触发总仓位缩放
	TotalBefore    float64 // 归一化前总仓位
	TotalAfter     float64 // 归一化后总仓位
}

// Enforce 对一批候选持仓依次施加单票、行业、总仓位三道限额。
// 纯函数：输入持仓不被修改，永不失败，输出保证满足全部三条不变量。
// 顺序不可调换——每一道只会缩小仓位，后面的处理不会重新打破前面的约束。
func Enforce(positions []Position, limits Limits) EnforceResult {
	res := EnforceResult{Positions: make([]Position, 0, len(positions))}
	if len(positions) == 0 {
		return res
	}

	// 第一道：单票硬截断（不保比例，只保上限）
	for _, p := range positions {
		if p.Size > limits.MaxSingleStock {
			p.Size = limits.MaxSingleStock
			res.SingleClamped++
		}
		res.Positions = append(res.Positions, p)
	}

	// 第二道：行业内等比缩放，保持行业内相对权重
	byIndustry := make(map[string]float64)
	for _, p := range res.Positions {
		byIndustry[p.Industry] += p.Size
	}
	scale := make(map[string]float64, len(byIndustry))
	for ind, sum := range byIndustry {
		if sum > limits.MaxIndustry && sum > 0 {
			scale[ind] = limits.MaxIndustry / sum
			res.IndustryScaled++
		}
	}
	if len(scale) > 0 {
		for i := range res.Positions {
			if f, ok := scale[res.Positions[i].Industry]; ok {
				res.Positions[i].Size *= f
			}
		}
	}

	// 第三道：总仓位等比缩放
	total := 0.0
	for _, p := range res.Positions {
		total += p.Size
	}
	res.TotalBefore = total
	res.TotalAfter = total
	if total > limits.MaxPosition && total > 0 {
		f := limits.MaxPosition / total
		for i := range res.Positions {
			res.Positions[i].Size *= f
		}
		res.TotalScaled = true
		res.TotalAfter = limits.MaxPosition
	}
	return res
}

// EnforceLimits 只要归一化后的持仓，不关心明细时用这个。
func EnforceLimits(positions []Position, limits Limits) []Position {
	return Enforce(positions, limits).Positions
}
