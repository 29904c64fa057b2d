// Package rerank 提供结果集层面的重排 Node：TopN 截断与多样性重排。
package rerank

import (
	"context"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/hybrid"
	"github.com/rushteam/recfusion/pipeline"
)

// DiversityNode 把贪心多样性重排接入 Pipeline。
// 独立于 hybrid.Recommender 内置的多样性阶段，
// 供自行组装 Pipeline 的场景单独使用。
type DiversityNode struct {
	// Factor 多样性强度，<= 0 时原样透传
	Factor float64

	// TopN 输出条数；<= 0 表示保留全部
	TopN int
}

func (n *DiversityNode) Name() string {
	return "rerank.diversity"
}

func (n *DiversityNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DiversityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	topN := n.TopN
	if topN <= 0 {
		topN = len(items)
	}
	reranker := &hybrid.DiversityReranker{Factor: n.Factor}
	return reranker.Rerank(items, topN), nil
}
