package feast

import (
	"context"

	"github.com/rushteam/recfusion/feature"
	"github.com/rushteam/recfusion/pkg/conv"
)

// Source 把 Feast 客户端适配为 feature.Source，
// 供特征补全（feature.EnrichNode）与画像构建使用。
type Source struct {
	// Client Feast 客户端
	Client Client

	// ItemFeatures 物品特征名称列表，例如 ["item_stats:ctr"]
	ItemFeatures []string

	// UserFeatures 用户特征名称列表
	UserFeatures []string

	// ItemEntityKey 物品实体键，默认 "item_id"
	ItemEntityKey string

	// UserEntityKey 用户实体键，默认 "user_id"
	UserEntityKey string
}

var _ feature.Source = (*Source)(nil)

func (s *Source) Name() string { return "feast" }

func (s *Source) itemEntityKey() string {
	if s.ItemEntityKey != "" {
		return s.ItemEntityKey
	}
	return "item_id"
}

func (s *Source) userEntityKey() string {
	if s.UserEntityKey != "" {
		return s.UserEntityKey
	}
	return "user_id"
}

// GetItemFeatures 拉取单个物品的数值特征。
func (s *Source) GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error) {
	return s.fetch(ctx, s.ItemFeatures, s.itemEntityKey(), itemID)
}

// GetUserFeatures 拉取单个用户的数值特征。
func (s *Source) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	return s.fetch(ctx, s.UserFeatures, s.userEntityKey(), userID)
}

func (s *Source) fetch(ctx context.Context, features []string, entityKey, entityID string) (map[string]float64, error) {
	if s.Client == nil || len(features) == 0 {
		return nil, nil
	}
	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: []map[string]interface{}{{entityKey: entityID}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) == 0 {
		return nil, nil
	}

	out := make(map[string]float64)
	for name, val := range resp.FeatureVectors[0].Values {
		if f, ok := conv.ToFloat64(val); ok {
			out[name] = f
		}
	}
	return out, nil
}
