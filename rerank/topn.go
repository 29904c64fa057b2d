package rerank

import (
	"context"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pipeline"
)

// TopNNode 截取前 N 个物品，通常放在融合/调权节点之后。
type TopNNode struct {
	// N 要保留的物品数量；N <= 0 表示不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
