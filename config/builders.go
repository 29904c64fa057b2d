package config

import (
	"fmt"

	"github.com/rushteam/recfusion/contextual"
	"github.com/rushteam/recfusion/filter"
	"github.com/rushteam/recfusion/hybrid"
	"github.com/rushteam/recfusion/pipeline"
	"github.com/rushteam/recfusion/pkg/conv"
	"github.com/rushteam/recfusion/rerank"
)

// 无状态 Node 直接注册；带模型状态的推荐 Node
// 通过 RegisterHybridRecommender / RegisterContextualRecommender 挂载实例。
func init() {
	Register("rerank.topn", buildTopNNode)
	Register("rerank.diversity", buildDiversityNode)
	Register("filter", buildFilterNode)
}

func buildTopNNode(config map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: conv.ConfigGetInt(config, "n", 0),
	}, nil
}

func buildDiversityNode(config map[string]interface{}) (pipeline.Node, error) {
	return &rerank.DiversityNode{
		Factor: conv.ConfigGetFloat64(config, "factor", 0),
		TopN:   conv.ConfigGetInt(config, "top_n", 0),
	}, nil
}

func buildFilterNode(config map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := config["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet[string](filterMap, "type", ""); filterType {
		case "blacklist":
			filters = append(filters, &filter.BlacklistFilter{
				ItemIDs: conv.SliceAnyToString(filterMap["item_ids"]),
				Key:     conv.ConfigGet[string](filterMap, "key", ""),
			})
		case "exposed":
			filters = append(filters, &filter.ExposedFilter{
				KeyPrefix:  conv.ConfigGet[string](filterMap, "key_prefix", ""),
				TimeWindow: int64(conv.ConfigGetInt(filterMap, "time_window", 0)),
			})
		case "purchased":
			filters = append(filters, filter.PurchasedFilter{})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.Node{Filters: filters}, nil
}

// RegisterHybridRecommender 把一个已 fit 的混合推荐器注册为可配置 Node。
// 配置里通过 type: {typeName} 引用，支持 exclude_upstream 配置项。
func RegisterHybridRecommender(typeName string, r *hybrid.Recommender) {
	Register(typeName, func(config map[string]interface{}) (pipeline.Node, error) {
		if r == nil {
			return nil, fmt.Errorf("nil hybrid recommender for %q", typeName)
		}
		return &hybrid.Node{
			NodeName:        typeName,
			Recommender:     r,
			ExcludeUpstream: conv.ConfigGet[bool](config, "exclude_upstream", false),
		}, nil
	})
}

// RegisterContextualRecommender 把一个上下文推荐器注册为可配置 Node。
func RegisterContextualRecommender(typeName string, r *contextual.Recommender) {
	Register(typeName, func(config map[string]interface{}) (pipeline.Node, error) {
		if r == nil {
			return nil, fmt.Errorf("nil contextual recommender for %q", typeName)
		}
		return &contextual.Node{
			NodeName:        typeName,
			Recommender:     r,
			ExcludeUpstream: conv.ConfigGet[bool](config, "exclude_upstream", false),
		}, nil
	})
}
