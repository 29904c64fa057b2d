package filter

import (
	"context"

	"github.com/rushteam/recfusion/core"
)

// BlacklistFilter 过滤掉全局黑名单中的物品（下架、违规等）。
type BlacklistFilter struct {
	// ItemIDs 内存黑名单
	ItemIDs []string

	// Store 可选，从存储读取黑名单
	Store BlacklistStore

	// Key Store 中的黑名单 key
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range f.ItemIDs {
		if item.ID == id {
			return true, nil
		}
	}
	if f.Store != nil && f.Key != "" {
		blacklist, err := f.Store.GetBlacklist(ctx, f.Key)
		if err == nil {
			for _, id := range blacklist {
				if item.ID == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}
