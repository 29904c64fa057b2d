package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rushteam/recfusion/core"
)

// SaveInteractions 将交互矩阵写入 Store，key 布局与
// recall.StoreInteractionAdapter 的读取约定一致：
//
//	{keyPrefix}:users         -> JSON []string（字典序）
//	{keyPrefix}:user:{userID} -> JSON map[itemID]强度
func SaveInteractions(ctx context.Context, s core.Store, keyPrefix string, interactions map[string]map[string]float64) error {
	if keyPrefix == "" {
		keyPrefix = "cf"
	}

	userIDs := make([]string, 0, len(interactions))
	kvs := make(map[string][]byte, len(interactions)+1)
	for uid, items := range interactions {
		data, err := json.Marshal(items)
		if err != nil {
			return err
		}
		kvs[keyPrefix+":user:"+uid] = data
		userIDs = append(userIDs, uid)
	}
	sort.Strings(userIDs)

	users, err := json.Marshal(userIDs)
	if err != nil {
		return err
	}
	kvs[keyPrefix+":users"] = users

	return s.BatchSet(ctx, kvs)
}
