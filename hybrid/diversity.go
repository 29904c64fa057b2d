package hybrid

import (
	"github.com/rushteam/recfusion/core"
)

// DiversityReranker 是融合后的多样性重排：贪心选择最大化
// score × (1 + diversity_boost) 的物品，boost 奖励相对已选集合
// 新出现的算法来源与类别，避免 TopN 被单一来源/类别垄断。
type DiversityReranker struct {
	// Factor 多样性强度，<= 0 时重排关闭
	Factor float64
}

// Rerank 贪心选出 topN 个物品，最终输出仍按分数降序。
func (d *DiversityReranker) Rerank(items []*core.Item, topN int) []*core.Item {
	if d.Factor <= 0 || len(items) <= 1 {
		return truncate(items, topN)
	}
	if topN <= 0 || topN > len(items) {
		topN = len(items)
	}

	pool := make([]*core.Item, len(items))
	copy(pool, items)

	selected := make([]*core.Item, 0, topN)
	seenSources := make(map[string]bool)
	seenCategories := make(map[string]bool)

	for len(selected) < topN && len(pool) > 0 {
		bestIdx := -1
		bestVal := -1.0
		for i, it := range pool {
			boost := 0.0
			for _, src := range it.Sources() {
				if !seenSources[src] {
					boost += d.Factor
					break
				}
			}
			if cate := it.Category(); cate != "" && !seenCategories[cate] {
				boost += d.Factor
			}
			val := it.Score * (1 + boost)
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		chosen := pool[bestIdx]
		selected = append(selected, chosen)
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)

		for _, src := range chosen.Sources() {
			seenSources[src] = true
		}
		if cate := chosen.Category(); cate != "" {
			seenCategories[cate] = true
		}
	}

	// 对外承诺严格按分数降序输出
	sortByScore(selected)
	return selected
}
