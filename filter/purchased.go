package filter

import (
	"context"

	"github.com/rushteam/recfusion/core"
)

// PurchasedFilter 过滤掉用户近期已购买的物品。
// 数据来自请求上下文的 Activity 维度，不涉及存储。
// 与上下文推荐器的已购惩罚不同，这里是硬过滤。
type PurchasedFilter struct{}

func (PurchasedFilter) Name() string {
	return "filter.purchased"
}

func (PurchasedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.Activity == nil {
		return false, nil
	}
	for _, id := range rctx.Activity.RecentPurchases {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
