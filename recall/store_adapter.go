package recall

import (
	"context"
	"encoding/json"

	"github.com/rushteam/recfusion/core"
)

// StoreInteractionAdapter 是基于 core.Store 的交互数据适配器。
// 从 Redis/内存等存储加载交互矩阵，供 CollaborativeModel.Fit 使用。
//
// key 约定：
//
//	用户列表：{KeyPrefix}:users           -> JSON []string
//	用户交互：{KeyPrefix}:user:{userID}   -> JSON map[itemID]强度
type StoreInteractionAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "cf"
	KeyPrefix string
}

// NewStoreInteractionAdapter 创建交互数据适配器。
func NewStoreInteractionAdapter(s core.Store, keyPrefix string) *StoreInteractionAdapter {
	if keyPrefix == "" {
		keyPrefix = "cf"
	}
	return &StoreInteractionAdapter{store: s, KeyPrefix: keyPrefix}
}

// GetAllInteractions 拉取全量交互矩阵。
// 用户列表不存在时返回空矩阵；单个用户读取失败时跳过该用户。
func (a *StoreInteractionAdapter) GetAllInteractions(ctx context.Context) (map[string]map[string]float64, error) {
	data, err := a.store.Get(ctx, a.KeyPrefix+":users")
	if err != nil {
		if core.IsStoreNotFound(err) {
			return make(map[string]map[string]float64), nil
		}
		return nil, err
	}

	var userIDs []string
	if err := json.Unmarshal(data, &userIDs); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		keys = append(keys, a.KeyPrefix+":user:"+uid)
	}
	values, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(userIDs))
	for i, uid := range userIDs {
		raw, ok := values[keys[i]]
		if !ok {
			continue
		}
		var items map[string]float64
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		out[uid] = items
	}
	return out, nil
}

var _ InteractionStore = (*StoreInteractionAdapter)(nil)
