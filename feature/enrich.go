package feature

import (
	"context"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pipeline"
	"github.com/rushteam/recfusion/pkg/utils"
)

// EnrichNode 是特征注入节点：把已 fit 的 Extractor 中的物品元信息
// （类别 label、原始字段、数值特征）回填到 Pipeline 中的候选 Item 上，
// 供下游的上下文调权与多样性重排使用。
//
// 可选地从远程 Source 拉取补充特征并合并到 item.Features。
type EnrichNode struct {
	// Extractor 已 fit 的特征抽取器（必填）
	Extractor *Extractor

	// Source 远程特征源（可选）；拉取失败时静默跳过，不中断链路
	Source Source

	// CategoryField 物品字段里的类别字段名，默认 "category"
	CategoryField string
}

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Extractor == nil || len(items) == 0 {
		return items, nil
	}

	field := n.CategoryField
	if field == "" {
		field = "category"
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}

		raw, ok := n.Extractor.Raw(it.ID)
		if ok {
			if cate, ok := raw.Fields[field].(string); ok && cate != "" && it.Category() == "" {
				it.PutLabel("category", utils.Label{Value: cate, Source: "feature"})
			}
			for k, v := range raw.Fields {
				if _, exists := it.Meta[k]; !exists {
					it.Meta[k] = v
				}
			}
			if vecs := n.Extractor.Vectors(it.ID); vecs != nil {
				for i, f := range n.Extractor.numFields {
					if i < len(vecs.Numerical) {
						it.Features[f] = vecs.Numerical[i]
					}
				}
			}
		}

		if n.Source != nil {
			extra, err := n.Source.GetItemFeatures(ctx, it.ID)
			if err == nil {
				for k, v := range extra {
					it.Features[k] = v
				}
			}
		}
	}

	return items, nil
}
