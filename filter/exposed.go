package filter

import (
	"context"

	"github.com/rushteam/recfusion/core"
)

// ExposedFilter 过滤掉用户近期已曝光的物品，
// 避免推荐结果反复出现同样的内容。
type ExposedFilter struct {
	// Store 曝光历史存储
	Store ExposedStore

	// KeyPrefix 存储 key 前缀，实际 key 为 {KeyPrefix}:{UserID}，
	// 默认 "user:exposed"
	KeyPrefix string

	// TimeWindow 曝光时间窗口（秒），0 表示不限
	TimeWindow int64
}

// ExposedStore 是曝光历史存储接口。
type ExposedStore interface {
	// GetExposedItems 获取用户在时间窗口内已曝光的物品 ID 列表
	GetExposedItems(ctx context.Context, userID string, keyPrefix string, timeWindow int64) ([]string, error)
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

func (f *ExposedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" || f.Store == nil {
		return false, nil
	}
	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:exposed"
	}
	exposedIDs, err := f.Store.GetExposedItems(ctx, rctx.UserID, keyPrefix, f.TimeWindow)
	if err != nil {
		// 读曝光历史失败时放行，宁可重复曝光也不误杀
		return false, nil
	}
	for _, id := range exposedIDs {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
