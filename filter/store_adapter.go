package filter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rushteam/recfusion/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 黑名单与曝光历史均以 JSON 存储。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

var (
	_ BlacklistStore = (*StoreAdapter)(nil)
	_ ExposedStore   = (*StoreAdapter)(nil)
)

// GetBlacklist 从 Store 读取黑名单（JSON 的 ID 列表）。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetExposedItems 从 Store 读取用户曝光历史。
// 值可以是简单的 ID 列表，也可以是 {item_id, timestamp} 列表
// （后者按 timeWindow 过滤过期记录）。
func (a *StoreAdapter) GetExposedItems(ctx context.Context, userID string, keyPrefix string, timeWindow int64) ([]string, error) {
	key := keyPrefix + ":" + userID
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		return ids, nil
	}

	var entries []struct {
		ItemID    string `json:"item_id"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	cutoff := time.Now().Unix() - timeWindow
	ids = make([]string, 0, len(entries))
	for _, e := range entries {
		if timeWindow > 0 && e.Timestamp < cutoff {
			continue
		}
		ids = append(ids, e.ItemID)
	}
	return ids, nil
}
