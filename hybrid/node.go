package hybrid

import (
	"context"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pipeline"
)

// Node 把混合推荐器接入 Pipeline：忽略上游 items，按 rctx.UserID 生成融合结果。
// 上游 items 的 ID 会作为排除集传入，便于在召回后做"已曝光剔除再补量"的编排。
type Node struct {
	NodeName    string
	Recommender *Recommender

	// ExcludeUpstream 为 true 时把上游 items 当作排除集而不是输入
	ExcludeUpstream bool
}

var _ pipeline.Node = (*Node)(nil)

func (n *Node) Name() string {
	if n.NodeName != "" {
		return n.NodeName
	}
	return "hybrid.recommend"
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
	return n.Recommender.Recommend(ctx, rctx.UserID, excluded), nil
}
