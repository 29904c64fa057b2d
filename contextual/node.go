package contextual

import (
	"context"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pipeline"
)

// Node 把上下文推荐器接入 Pipeline。与 hybrid.Node 一样忽略上游 items，
// 可选地把它们作为排除集。
type Node struct {
	NodeName    string
	Recommender *Recommender

	ExcludeUpstream bool
}

var _ pipeline.Node = (*Node)(nil)

func (n *Node) Name() string {
	if n.NodeName != "" {
		return n.NodeName
	}
	return "contextual.recommend"
}

func (n *Node) Kind() pipeline.Kind { return pipeline.KindRecommend }

func (n *Node) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.Recommender == nil || rctx == nil {
		return items, nil
	}
	var excluded []string
	if n.ExcludeUpstream {
		for _, it := range items {
			excluded = append(excluded, it.ID)
		}
	}
	return n.Recommender.Recommend(ctx, rctx, excluded), nil
}
