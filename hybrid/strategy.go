package hybrid

import (
	"sort"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pkg/utils"
)

// StrategyKind 是融合策略的标识。
type StrategyKind string

const (
	StrategyWeighted        StrategyKind = "weighted"
	StrategySwitching       StrategyKind = "switching"
	StrategyCascade         StrategyKind = "cascade"
	StrategyMixed           StrategyKind = "mixed"
	StrategyFeatureCombined StrategyKind = "feature_combined" // 当前等同 weighted
)

// CombineContext 是一次融合调用的上下文：配置快照 + 用户状态 + 依赖函数。
type CombineContext struct {
	// CFWeight / CBWeight 已按冷启动缩放后的生效权重
	CFWeight float64
	CBWeight float64

	// AdaptiveWeighting 开启时，双源物品按置信度高的一方 2 倍加权
	AdaptiveWeighting bool

	// InteractionCount 用户累计交互数
	InteractionCount int

	// ColdStart 用户是否处于冷启动（交互数低于阈值）
	ColdStart bool

	// TopN 目标返回条数
	TopN int

	// ItemSimilarity 物品两两内容相似度（cascade 用；可为 nil）
	ItemSimilarity func(a, b string) float64
}

// Strategy 是融合策略的统一契约：把协同/内容两路候选合成一个有序列表。
// 实现不得修改入参 item，需要改写分数时先 Clone。
type Strategy interface {
	Name() StrategyKind
	Combine(cf, cb []*core.Item, sctx CombineContext) []*core.Item
}

// strategyFor 按配置取策略实现；feature_combined 落到 weighted。
func strategyFor(kind StrategyKind) Strategy {
	switch kind {
	case StrategySwitching:
		return &SwitchingStrategy{}
	case StrategyCascade:
		return &CascadeStrategy{}
	case StrategyMixed:
		return &MixedStrategy{}
	case StrategyFeatureCombined:
		return &WeightedStrategy{kind: StrategyFeatureCombined}
	default:
		return &WeightedStrategy{kind: StrategyWeighted}
	}
}

// WeightedStrategy 加权融合：双源物品按生效权重合并分数，
// 单源物品保留原分不打折。
type WeightedStrategy struct {
	kind StrategyKind
}

func (s *WeightedStrategy) Name() StrategyKind {
	if s.kind == "" {
		return StrategyWeighted
	}
	return s.kind
}

func (s *WeightedStrategy) Combine(cf, cb []*core.Item, sctx CombineContext) []*core.Item {
	cfMap := indexByID(cf)
	cbMap := indexByID(cb)

	out := make([]*core.Item, 0, len(cfMap)+len(cbMap))
	seen := make(map[string]bool, len(cfMap)+len(cbMap))

	appendFused := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true

		cfIt := cfMap[id]
		cbIt := cbMap[id]

		switch {
		case cfIt != nil && cbIt != nil:
			it := cfIt.Clone()
			mergeLabels(it, cbIt)
			it.AddSource(firstSource(cbIt))

			wCF, wCB := sctx.CFWeight, sctx.CBWeight
			if sctx.AdaptiveWeighting {
				// 置信度高的一方话语权加倍
				if cfIt.Confidence > cbIt.Confidence {
					wCF *= 2
				} else if cbIt.Confidence > cfIt.Confidence {
					wCB *= 2
				}
			}
			if wCF+wCB > 0 {
				it.Score = (cfIt.Score*wCF + cbIt.Score*wCB) / (wCF + wCB)
			}
			// 多源一致的物品更可信
			sources := len(it.Sources())
			it.Confidence = (cfIt.Confidence + cbIt.Confidence) / 2 * (1 + 0.2*float64(sources-1))
			it.ClampScores()
			out = append(out, it)

		case cfIt != nil:
			out = append(out, cfIt.Clone())

		case cbIt != nil:
			out = append(out, cbIt.Clone())
		}
	}

	for _, it := range cf {
		appendFused(it.ID)
	}
	for _, it := range cb {
		appendFused(it.ID)
	}

	sortByScore(out)
	return truncate(out, sctx.TopN)
}

// SwitchingStrategy 切换策略：冷启动用户直接用内容召回；
// 否则用协同结果，协同不足目标一半时用内容候选去重补齐。
type SwitchingStrategy struct{}

func (s *SwitchingStrategy) Name() StrategyKind { return StrategySwitching }

func (s *SwitchingStrategy) Combine(cf, cb []*core.Item, sctx CombineContext) []*core.Item {
	if sctx.ColdStart {
		out := cloneAll(cb)
		sortByScore(out)
		return truncate(out, sctx.TopN)
	}

	out := cloneAll(cf)
	if len(out) < sctx.TopN/2 {
		seen := make(map[string]bool, len(out))
		for _, it := range out {
			seen[it.ID] = true
		}
		for _, it := range cb {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, it.Clone())
		}
	}
	sortByScore(out)
	return truncate(out, sctx.TopN)
}

// CascadeStrategy 级联策略：协同产出候选集，再用"候选与其他候选的
// 平均内容相似度"做精排微调（80% 原分 + 20% 内容加成）。
type CascadeStrategy struct{}

func (s *CascadeStrategy) Name() StrategyKind { return StrategyCascade }

func (s *CascadeStrategy) Combine(cf, cb []*core.Item, sctx CombineContext) []*core.Item {
	if len(cf) == 0 {
		// 第一级没有产出时退回内容候选，保持可用性
		out := cloneAll(cb)
		sortByScore(out)
		return truncate(out, sctx.TopN)
	}

	out := make([]*core.Item, 0, len(cf))
	for _, it := range cf {
		cp := it.Clone()
		if sctx.ItemSimilarity != nil && len(cf) > 1 {
			var simSum float64
			for _, other := range cf {
				if other.ID == it.ID {
					continue
				}
				simSum += sctx.ItemSimilarity(it.ID, other.ID)
			}
			avgSim := simSum / float64(len(cf)-1)
			cp.Score = 0.8*cp.Score + 0.2*avgSim
			cp.Confidence = cp.Confidence * (1 + 0.2*avgSim)
			cp.PutLabel("cascade_boost", utils.Label{Value: "content_similarity", Source: "hybrid"})
		}
		cp.ClampScores()
		out = append(out, cp)
	}
	sortByScore(out)
	return truncate(out, sctx.TopN)
}

// MixedStrategy 混排策略：按权重比例各取头部候选交错排列，
// 余位轮转补齐，按 ID 去重。
type MixedStrategy struct{}

func (s *MixedStrategy) Name() StrategyKind { return StrategyMixed }

func (s *MixedStrategy) Combine(cf, cb []*core.Item, sctx CombineContext) []*core.Item {
	topN := sctx.TopN
	total := sctx.CFWeight + sctx.CBWeight
	cfQuota := topN / 2
	if total > 0 {
		cfQuota = int(float64(topN)*sctx.CFWeight/total + 0.5)
	}
	if cfQuota > topN {
		cfQuota = topN
	}

	out := make([]*core.Item, 0, topN)
	seen := make(map[string]bool, topN)
	appendItem := func(it *core.Item) bool {
		if len(out) >= topN || seen[it.ID] {
			return len(out) < topN
		}
		seen[it.ID] = true
		out = append(out, it.Clone())
		return len(out) < topN
	}

	// 先按配额各取头部
	for i := 0; i < cfQuota && i < len(cf); i++ {
		if !appendItem(cf[i]) {
			return out
		}
	}
	for i := 0; i < topN-cfQuota && i < len(cb); i++ {
		if !appendItem(cb[i]) {
			return out
		}
	}

	// 余位轮转补齐
	ci, bi := cfQuota, topN-cfQuota
	for len(out) < topN && (ci < len(cf) || bi < len(cb)) {
		if ci < len(cf) {
			appendItem(cf[ci])
			ci++
		}
		if len(out) >= topN {
			break
		}
		if bi < len(cb) {
			appendItem(cb[bi])
			bi++
		}
	}
	return out
}

func indexByID(items []*core.Item) map[string]*core.Item {
	m := make(map[string]*core.Item, len(items))
	for _, it := range items {
		if it != nil {
			m[it.ID] = it
		}
	}
	return m
}

func cloneAll(items []*core.Item) []*core.Item {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it.Clone())
		}
	}
	return out
}

func mergeLabels(dst, src *core.Item) {
	for k, v := range src.Labels {
		if k == "source" {
			continue // source 经 AddSource 去重合并
		}
		dst.PutLabel(k, v)
	}
}

func firstSource(it *core.Item) string {
	sources := it.Sources()
	if len(sources) == 0 {
		return ""
	}
	return sources[0]
}

func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

func truncate(items []*core.Item, n int) []*core.Item {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
